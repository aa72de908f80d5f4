package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// QueryCache caches storage query results with a per-entry TTL.
type QueryCache struct {
	maxSize int
	items   map[string]*queryCacheItem
	order   []string
	mu      sync.RWMutex
}

type queryCacheItem struct {
	data      interface{}
	expiresAt time.Time
	key       string
}

// QueryOptimizer wraps a *sql.DB with a small TTL cache for repeated
// reads of the latest run, per-benchmark history and comparison history.
type QueryOptimizer struct {
	db    *sql.DB
	cache *QueryCache
}

// NewQueryOptimizer creates a query optimizer backed by db.
func NewQueryOptimizer(db *sql.DB, cacheSize int) *QueryOptimizer {
	if cacheSize <= 0 {
		cacheSize = 100
	}
	return &QueryOptimizer{
		db:    db,
		cache: NewQueryCache(cacheSize),
	}
}

// GetLatestRunOptimized retrieves the latest run, caching it for 15
// seconds.
func (qo *QueryOptimizer) GetLatestRunOptimized() (*RunRecord, error) {
	cacheKey := "latest_run"

	if cached, found := qo.cache.Get(cacheKey); found {
		if run, ok := cached.(*RunRecord); ok {
			return run, nil
		}
	}

	row := qo.db.QueryRow(`SELECT id FROM runs ORDER BY started_at DESC LIMIT 1`)
	var id string
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}

	run, err := qo.loadRun(id)
	if err != nil {
		return nil, err
	}

	qo.cache.SetWithTTL(cacheKey, run, 15*time.Second)
	return run, nil
}

// GetHistoryOptimized retrieves benchmark history with pagination and
// caching.
func (qo *QueryOptimizer) GetHistoryOptimized(fullName, lang string, limit, offset int) ([]MeasurementRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	cacheKey := fmt.Sprintf("history:%s:%s:%d:%d", fullName, lang, limit, offset)

	if cached, found := qo.cache.Get(cacheKey); found {
		if results, ok := cached.([]MeasurementRecord); ok {
			return results, nil
		}
	}

	rows, err := qo.db.Query(`
		SELECT m.id, m.run_id, m.full_name, m.lang, m.mean_ns, m.median_ns, m.p99_ns,
		       m.stddev_ns, m.cv, m.iterations, m.timed_out, m.alloced_bytes, m.has_memory, m.created_at
		FROM measurements m
		JOIN runs r ON r.id = m.run_id
		WHERE m.full_name = ? AND m.lang = ?
		ORDER BY r.started_at DESC
		LIMIT ? OFFSET ?
	`, fullName, lang, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results, err := scanMeasurements(rows)
	if err != nil {
		return nil, err
	}

	qo.cache.SetWithTTL(cacheKey, results, 5*time.Minute)
	return results, nil
}

// GetComparisonHistoryOptimized retrieves comparison history with caching.
func (qo *QueryOptimizer) GetComparisonHistoryOptimized(fullName, lang string, limit int) ([]*ComparisonRecord, error) {
	cacheKey := fmt.Sprintf("comp_history:%s:%s:%d", fullName, lang, limit)

	if cached, found := qo.cache.Get(cacheKey); found {
		if history, ok := cached.([]*ComparisonRecord); ok {
			return history, nil
		}
	}

	query := `
		SELECT id, baseline_run_id, current_run_id, full_name, lang,
		       baseline_mean_ns, current_mean_ns, delta_percent, is_regression, created_at
		FROM comparison_history
		WHERE full_name = ? AND lang = ?
		ORDER BY created_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := qo.db.Query(query, fullName, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	history, err := scanComparisons(rows)
	if err != nil {
		return nil, err
	}

	qo.cache.SetWithTTL(cacheKey, history, 5*time.Minute)
	return history, nil
}

// ClearCache clears the query cache.
func (qo *QueryOptimizer) ClearCache() {
	qo.cache.Clear()
}

// CacheStats returns cache statistics.
func (qo *QueryOptimizer) CacheStats() (size int, maxSize int) {
	return qo.cache.Size(), qo.cache.MaxSize()
}

func (qo *QueryOptimizer) loadRun(runID string) (*RunRecord, error) {
	row := qo.db.QueryRow(`
		SELECT id, started_at, finished_at, fairness_mode, total_benchmarks
		FROM runs WHERE id = ?
	`, runID)

	run := &RunRecord{}
	var finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.FairnessMode, &run.TotalBenchmarks); err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}

	rows, err := qo.db.Query(`
		SELECT id, run_id, full_name, lang, mean_ns, median_ns, p99_ns,
		       stddev_ns, cv, iterations, timed_out, alloced_bytes, has_memory, created_at
		FROM measurements WHERE run_id = ? ORDER BY full_name, lang
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	measurements, err := scanMeasurements(rows)
	if err != nil {
		return nil, err
	}
	run.Measurements = measurements
	return run, nil
}

// NewQueryCache creates a query cache with the given capacity.
func NewQueryCache(maxSize int) *QueryCache {
	return &QueryCache{
		maxSize: maxSize,
		items:   make(map[string]*queryCacheItem),
		order:   make([]string, 0, maxSize),
	}
}

// Get retrieves a cached item if present and not expired.
func (qc *QueryCache) Get(key string) (interface{}, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()

	item, found := qc.items[key]
	if !found {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		return nil, false
	}
	return item.data, true
}

// Set stores an item with the default TTL (1 minute).
func (qc *QueryCache) Set(key string, data interface{}) {
	qc.SetWithTTL(key, data, 1*time.Minute)
}

// SetWithTTL stores an item with a custom TTL.
func (qc *QueryCache) SetWithTTL(key string, data interface{}, ttl time.Duration) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	if _, found := qc.items[key]; found {
		qc.items[key] = &queryCacheItem{data: data, expiresAt: time.Now().Add(ttl), key: key}
		return
	}
	if len(qc.items) >= qc.maxSize {
		qc.evictOldest()
	}
	qc.items[key] = &queryCacheItem{data: data, expiresAt: time.Now().Add(ttl), key: key}
	qc.order = append(qc.order, key)
}

func (qc *QueryCache) evictOldest() {
	if len(qc.order) == 0 {
		return
	}
	oldestKey := qc.order[0]
	delete(qc.items, oldestKey)
	qc.order = qc.order[1:]
}

// Clear removes all cached items.
func (qc *QueryCache) Clear() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.items = make(map[string]*queryCacheItem)
	qc.order = make([]string, 0, qc.maxSize)
}

// Size returns the current number of cached items.
func (qc *QueryCache) Size() int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return len(qc.items)
}

// MaxSize returns the cache's capacity.
func (qc *QueryCache) MaxSize() int {
	return qc.maxSize
}

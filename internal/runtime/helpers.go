package runtime

import "time"

func measureDuration(fn func() error) time.Duration {
	start := time.Now()
	_ = fn()
	return time.Since(start)
}

func msToDuration(ms uint64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

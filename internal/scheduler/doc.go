// Package scheduler drives already-validated suites through their timed
// runs and assembles the result tree a reporter or --serve stream consumes.
//
// # Ordering and fairness
//
// A suite's benchmarks run in declaration order, or a deterministic
// shuffle when Order is OrderRandom; OrderParallel is treated as
// OrderSequential, since benchmarks are never run concurrently against
// each other. Within one benchmark, Legacy fairness finishes every repeat
// of one language before moving to the next (in the fixed AllLangs
// order); Strict fairness interleaves repeats run-by-run, reshuffling the
// per-language order on every repeat with a DeterministicRng seeded from
// the benchmark's fairness seed XORed with the repeat number (counted
// from one), so no
// language consistently runs while the machine is warmer or cooler than
// its neighbors.
//
// Every language is precompiled before any of its timed runs start.
// A precompile failure removes that language from the benchmark's
// measurements without aborting the others.
//
// # Concurrency
//
// The scheduler itself is single-threaded: suites, benchmarks, and runs
// within a benchmark execute strictly one at a time. Bounded parallelism
// belongs to the validator's Phase 2, not here.
package scheduler

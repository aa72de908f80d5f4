// Package measurement turns raw per-iteration timing samples into the
// aggregate statistics reported for a benchmark: mean, median, percentiles,
// standard deviation / coefficient of variation, and (for multi-run
// invocations) a median-of-medians with an empirical-percentile confidence
// interval.
//
// Every function here is pure and synchronous. Nothing in this package
// spawns a process, touches a clock, or performs I/O; it only reduces
// slices of durations that the runtime package collected.
package measurement

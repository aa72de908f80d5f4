// Package validator produces a deduplicated, classified list of compile
// errors covering every (benchmark, language) pair in a suite before any
// timed run happens.
//
// # Protocol
//
// Phase 1 bootstraps by compile-checking the first benchmark of each
// language concurrently. A failure classified as Setup or Helper is
// attributed to every benchmark of that language and the language is
// excluded from Phase 2 (compile errors in shared imports or helpers
// would otherwise be reported once per benchmark). Phase 2 fans the
// remaining (benchmark, language) pairs out across a bounded worker pool
// built with sourcegraph/conc, classifying each failure individually.
//
// Every compile check goes through the compile cache first: a cache hit
// never invokes a compiler, and ValidateWithCache reports cumulative
// hit/miss/total-check counts alongside the error list.
package validator

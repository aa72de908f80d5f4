// Package compilecache memoizes compile-check results keyed by the content
// of the generated harness source, so re-validating an unchanged benchmark
// never re-invokes a language toolchain.
//
// A Cache is a flat map from a 64-bit content hash to a CompileResult,
// persisted as JSON next to the compile-cache directory. Persistence is
// best-effort: a corrupt or missing cache file starts empty rather than
// failing the run, and Save writes to a temp file and renames it into
// place so a crash mid-write never leaves a torn cache on disk.
package compilecache

// Package ir defines the intermediate representation consumed by the
// validator and scheduler: suites, benchmarks, fixtures, and the
// per-benchmark measurement configuration.
//
// # Overview
//
// The DSL parser and formatter (external collaborators, out of scope for
// this module) lower a .bench source file into a BenchmarkIR value. The
// core never mutates this tree: Fixture, BenchmarkSpec and SuiteIR are
// immutable after construction, matching their lifecycle in the original
// specification.
//
// # Ownership
//
// A BenchmarkIR owns an ordered list of SuiteIR. A SuiteIR owns its
// benchmarks, fixtures, and per-language setup sections. Nothing below
// BenchmarkIR is ever shared across suites.
package ir

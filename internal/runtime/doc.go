// Package runtime implements the uniform language-runtime lifecycle that
// the validator and scheduler drive: generate a harness source for one
// benchmark, compile-check it, precompile it into a cached binary keyed
// by source hash, run it and parse its single-line JSON result, and shut
// it down.
//
// One Runtime value exists per supported language (go, ts, rust, python,
// c, csharp, zig). All seven share the same lifecycle and the same
// generated-source structure (imports/declarations/init/helpers/fixture
// literals/benchmark body/measurement loop/result emission); what differs
// between them is a small, data-driven Profile: the toolchain commands,
// file extensions, and source templates for each of those eight parts.
// Treating "how to build and run this language" as configuration, rather
// than one Go file per language, keeps the seven runtimes from drifting
// out of sync with each other.
package runtime

package runtime

import "github.com/jpequegn/polybench/internal/ir"

// Registry maps each supported language to a fresh Runtime instance.
// Runtimes are cheap value holders around a shared Profile, so a new one
// is constructed per call rather than cached.
type Registry struct {
	profiles map[ir.Lang]Profile
}

// NewRegistry returns a Registry wired with all seven supported
// languages' Profiles.
func NewRegistry() *Registry {
	profiles := map[ir.Lang]Profile{
		ir.Go:         goProfile(),
		ir.TypeScript: tsProfile(),
		ir.Rust:       rustProfile(),
		ir.Python:     pythonProfile(),
		ir.C:          cProfile(),
		ir.CSharp:     csharpProfile(),
		ir.Zig:        zigProfile(),
	}
	return &Registry{profiles: profiles}
}

// New returns a fresh Runtime for lang, or false if lang is unsupported.
func (reg *Registry) New(lang ir.Lang) (Runtime, bool) {
	profile, ok := reg.profiles[lang]
	if !ok {
		return nil, false
	}
	return New(profile), true
}

// Langs returns the set of languages this registry can construct
// runtimes for, in ir.AllLangs order.
func (reg *Registry) Langs() []ir.Lang {
	out := make([]ir.Lang, 0, len(reg.profiles))
	for _, l := range ir.AllLangs {
		if _, ok := reg.profiles[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

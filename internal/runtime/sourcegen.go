package runtime

import (
	"fmt"
	"strings"

	"github.com/jpequegn/polybench/internal/ir"
)

// GenerateSource renders the full harness program for one benchmark,
// following §C.1's eight-part structure: imports, memory helper,
// declarations, helpers, init, fixtures, bench wrapper, main/measurement
// loop. Every Profile produces the same section ordering in its own
// language's syntax; GenerateSource itself never special-cases a Lang.
//
// Each section is preceded by a marker comment, in the profile's own
// comment syntax, naming the suite source it came from. ExtractLineMap
// reads those markers back out of the rendered text so a compiler error
// against the generated file can be pointed at the originating section
// (see linemap.go).
func GenerateSource(profile Profile, suite *ir.SuiteIR, spec *ir.BenchmarkSpec) (string, error) {
	src, ok := spec.Sources[profile.Lang]
	if !ok {
		return "", fmt.Errorf("benchmark %q has no %s implementation", spec.FullName, profile.Lang)
	}

	setup := suite.Setup[profile.Lang]

	var b strings.Builder
	marker := func(section string) {
		fmt.Fprintf(&b, "%s\n", profile.LineComment(sectionMarkerText+section))
	}

	fmt.Fprintf(&b, "%s\n\n", profile.LineComment(fmt.Sprintf("generated harness for %s (%s)", spec.FullName, profile.Name)))

	imports := append([]string{}, profile.BaseImports...)
	if profile.ExtraImports != nil {
		imports = append(imports, profile.ExtraImports(spec)...)
	}
	if rendered := profile.RenderImports(imports); rendered != "" {
		marker("imports")
		b.WriteString(rendered)
		b.WriteString("\n")
	}

	if mem := profile.MemoryHelper(spec); mem != "" {
		marker("memory")
		b.WriteString(mem)
		b.WriteString("\n\n")
	}

	if setup.Declarations != "" {
		marker("declarations")
		b.WriteString(normalizeIndent(setup.Declarations))
		b.WriteString("\n\n")
	}

	if setup.Helpers != "" {
		marker("helpers")
		b.WriteString(normalizeIndent(setup.Helpers))
		b.WriteString("\n\n")
	}

	if setup.Init != "" {
		marker("init")
		b.WriteString(normalizeIndent(setup.Init))
		b.WriteString("\n\n")
	}

	if len(spec.FixtureRefs) > 0 {
		marker("fixtures")
		for _, name := range spec.FixtureRefs {
			fx, ok := suite.Fixtures[name]
			if !ok {
				return "", fmt.Errorf("benchmark %q references undeclared fixture %q", spec.FullName, name)
			}
			if expr, ok := fx.ExpressionFor(profile.Lang); ok {
				fmt.Fprintf(&b, "%s\n", expr)
				continue
			}
			b.WriteString(profile.FixtureLiteral(fx.Name, fx.RawBytes))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if spec.UseSink {
		marker("sink")
		b.WriteString(profile.SinkDecl)
		b.WriteString("\n\n")
	}

	marker(spec.FullName + ".impl")
	body := renderBenchBody(spec, src, profile.SinkAssign)
	b.WriteString(profile.RenderBenchFunc(body))
	b.WriteString("\n")

	marker("measurement loop")
	b.WriteString(profile.RenderMain(spec, "bench()"))
	b.WriteString("\n")

	return b.String(), nil
}

// sectionMarkerText prefixes every §C.7 line-map marker so ExtractLineMap
// can tell it apart from a comment a suite author happened to write.
const sectionMarkerText = "@polybench:section "

// renderBenchBody assembles the unindented, statement-per-line body of the
// bench() wrapper: the benchmark's Each block (run every iteration before
// the timed call, used for per-iteration setup) followed by its Impl
// expression, sink-assigned when the benchmark declares use_sink.
func renderBenchBody(spec *ir.BenchmarkSpec, src ir.LangSource, sinkAssign func(string) string) string {
	var b strings.Builder
	if src.Each != "" {
		b.WriteString(normalizeIndent(src.Each))
		b.WriteString("\n")
	}
	impl := strings.TrimSpace(src.Impl)
	if spec.UseSink {
		b.WriteString(sinkAssign(impl))
	} else {
		b.WriteString(impl)
	}
	b.WriteString("\n")
	return b.String()
}

// normalizeIndent trims a shared leading-whitespace prefix so embedded
// suite source blocks line up with generated code instead of carrying
// whatever indentation they had in the .bench file.
func normalizeIndent(block string) string {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}

package rules

import (
	"fmt"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "MAGIC-NUMBER",
		Summary:         "Numeric literal in a delay/interval position; bind it to a named constant first.",
		Kinds:           []ir.UnitKind{ir.KindFunction, ir.KindComponent, ir.KindTypeDecl},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/MAGIC-NUMBER.md",
		Eval:            evalMagicNumber,
	})
}

func evalMagicNumber(u *ir.SourceUnit, _ *EvalContext) []ir.Finding {
	var out []ir.Finding
	for _, lit := range u.Summary.TimingLiterals {
		out = append(out, ir.Finding{
			Line:   lit.Line,
			Offset: lit.Offset,
			Message: fmt.Sprintf(
				"Bare literal %s passed to %s; name the duration (e.g. a _MS constant) so the intent is readable.",
				lit.Value, lit.Call),
			Evidence: fmt.Sprintf("%s(%s)", lit.Call, lit.Value),
		})
	}
	return out
}

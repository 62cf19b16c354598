package rules

import (
	"fmt"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "SINGLE-RESPONSIBILITY-SIZE",
		Summary:         "A type exposing many public methods is likely doing more than one job.",
		Kinds:           []ir.UnitKind{ir.KindTypeDecl},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/SINGLE-RESPONSIBILITY-SIZE.md",
		Eval:            evalSRPSize,
	})
}

func evalSRPSize(u *ir.SourceUnit, ev *EvalContext) []ir.Finding {
	max := ev.Settings.MaxPublicMethods
	if u.Summary.PublicMethods <= max {
		return nil
	}
	return []ir.Finding{{
		Message: fmt.Sprintf(
			"%s exposes %d public methods (max %d); split the responsibilities into smaller units.",
			u.Summary.Name, u.Summary.PublicMethods, max),
		Evidence: fmt.Sprintf("%s(public_methods=%d)", u.Summary.Name, u.Summary.PublicMethods),
	}}
}

package rules

import (
	"fmt"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "GQL-OVERFETCH",
		Summary:         "Deeply nested selections need pagination arguments.",
		Kinds:           []ir.UnitKind{ir.KindGraphQLOp},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/GQL-OVERFETCH.md",
		Eval:            evalGQLOverfetch,
	})
}

func evalGQLOverfetch(u *ir.SourceUnit, ctx *EvalContext) []ir.Finding {
	var out []ir.Finding
	for _, sel := range u.Summary.Selections {
		if sel.Depth <= ctx.Settings.OverfetchDepth || sel.Paginated {
			continue
		}
		out = append(out, ir.Finding{
			Offset: sel.Offset,
			Message: fmt.Sprintf(
				"Selection on %s nests %d levels with no pagination argument; bound the result set (first/limit) or flatten the query.",
				sel.Entity, sel.Depth),
			Evidence: fmt.Sprintf("%s depth=%d", sel.Entity, sel.Depth),
		})
	}
	return out
}

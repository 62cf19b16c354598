package rules

import (
	"fmt"
	"strings"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "GQL-DUPLICATE-FIELDS",
		Summary:         "Repeated field sets across operations should share a fragment.",
		Kinds:           []ir.UnitKind{ir.KindGraphQLOp},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/GQL-DUPLICATE-FIELDS.md",
		Eval:            evalGQLDuplicateFields,
	})
}

// Only the first operation of each duplicate group (scan order) reports,
// so the group yields exactly one finding no matter how units are
// partitioned across workers.
func evalGQLDuplicateFields(u *ir.SourceUnit, ctx *EvalContext) []ir.Finding {
	var out []ir.Finding
	for _, sel := range u.Summary.Selections {
		if sel.UsesFragment || len(sel.Fields) == 0 {
			continue
		}
		group := ctx.Index.DuplicateGroup(sel.Entity, sel.Fields)
		if len(group) < ctx.Settings.FragmentDuplicateThreshold {
			continue
		}
		first := group[0]
		if first.File != u.File || first.Start != u.Start {
			continue
		}
		names := make([]string, 0, len(group))
		for _, ref := range group {
			n := ref.Name
			if n == "" {
				n = "(anonymous)"
			}
			names = append(names, n)
		}
		out = append(out, ir.Finding{
			Offset: sel.Offset,
			Message: fmt.Sprintf(
				"%d operations select the same %d fields of %s without a shared fragment (%s); extract one.",
				len(group), len(sel.Fields), sel.Entity, strings.Join(names, ", ")),
			Evidence: fmt.Sprintf("%s{%s}", sel.Entity, strings.Join(sel.Fields, ",")),
		})
	}
	return out
}

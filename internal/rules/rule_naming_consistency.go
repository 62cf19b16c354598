package rules

import (
	"fmt"
	"strings"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "NAMING-CONSISTENCY",
		Summary:         "Retrieval helpers for the same entity should agree on one verb stem.",
		Kinds:           []ir.UnitKind{ir.KindFunction, ir.KindComponent},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/NAMING-CONSISTENCY.md",
		Eval:            evalNamingConsistency,
	})
}

// The heuristic is scoped on purpose: only camelCase names whose first
// segment is a known retrieval verb participate. The first stem seen for an
// entity (scan order, so file path then byte offset) becomes canonical and
// later divergent stems are flagged against it.
func evalNamingConsistency(u *ir.SourceUnit, ctx *EvalContext) []ir.Finding {
	verb, entity := SplitVerb(u.Summary.Name)
	if verb == "" || entity == "" {
		return nil
	}
	if !ctx.Settings.retrievalVerb(verb) {
		return nil
	}
	canonical := ctx.Index.CanonicalVerb(entity)
	if canonical == "" || strings.EqualFold(canonical, verb) {
		return nil
	}
	return []ir.Finding{{
		Message: fmt.Sprintf(
			"%q uses the stem %q but %s accessors elsewhere use %q; pick one stem per entity.",
			u.Summary.Name, verb, entity, canonical),
		Evidence: fmt.Sprintf("%s vs canonical %s%s", u.Summary.Name, canonical, entity),
	}}
}

package rules

import (
	"fmt"
	"strings"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "GQL-OPERATION-NAMING",
		Summary:         "GraphQL operations must be named and start with an approved verb prefix.",
		Kinds:           []ir.UnitKind{ir.KindGraphQLOp},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/GQL-OPERATION-NAMING.md",
		Eval:            evalGQLOperationNaming,
	})
}

func evalGQLOperationNaming(u *ir.SourceUnit, ctx *EvalContext) []ir.Finding {
	name := u.Summary.Name
	if name == "" {
		return []ir.Finding{{
			Message: fmt.Sprintf(
				"Anonymous %s; give every operation a verb-prefixed name so traces and caches can identify it.",
				u.Summary.Operation),
			Evidence: fmt.Sprintf("%s (unnamed)", u.Summary.Operation),
		}}
	}
	if ctx.Settings.verbPrefix(name) {
		return nil
	}
	return []ir.Finding{{
		Message: fmt.Sprintf(
			"Operation %q does not start with an approved verb prefix (%s).",
			name, strings.Join(ctx.Settings.VerbPrefixes, ", ")),
		Evidence: fmt.Sprintf("%s %s", u.Summary.Operation, name),
	}}
}

package rules

import (
	"fmt"

	"github.com/convlint/convlint/internal/ir"
)

func init() {
	register(Rule{
		ID:              "ARITY-LIMIT",
		Summary:         "Exported callables should take at most two positional parameters; extras belong in a trailing options object.",
		Kinds:           []ir.UnitKind{ir.KindFunction, ir.KindComponent},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/ARITY-LIMIT.md",
		Eval:            evalArityLimit,
	})
}

func evalArityLimit(u *ir.SourceUnit, ev *EvalContext) []ir.Finding {
	if !u.Summary.Exported {
		return nil
	}
	max := ev.Settings.MaxParameters
	positional := u.Summary.ParamCount
	if u.Summary.OptionsParam {
		// A trailing options object is not a positional parameter, but
		// it only excuses the extras if everything else fits the limit.
		positional--
	}
	if positional <= max {
		return nil
	}
	return []ir.Finding{{
		Message: fmt.Sprintf(
			"%s declares %d positional parameters (max %d); absorb the extras into a trailing options object.",
			u.Summary.Name, positional, max),
		Evidence: fmt.Sprintf("%s(params=%d)", u.Summary.Name, u.Summary.ParamCount),
	}}
}

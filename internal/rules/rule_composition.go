package rules

import (
	"fmt"

	"github.com/convlint/convlint/internal/ir"
)

// trivialBases are platform types whose extension carries no shared
// behavior worth extracting.
var trivialBases = map[string]bool{
	"Error": true, "Array": true, "Map": true, "Set": true,
}

func init() {
	register(Rule{
		ID:              "COMPOSITION-OVER-INHERITANCE",
		Summary:         "Type extends a base; prefer extracting shared behavior into a standalone reusable function or hook.",
		Kinds:           []ir.UnitKind{ir.KindTypeDecl},
		DefaultSeverity: ir.SeverityWarning,
		Docs:            "docs/rules/COMPOSITION-OVER-INHERITANCE.md",
		Eval:            evalComposition,
	})
}

func evalComposition(u *ir.SourceUnit, ev *EvalContext) []ir.Finding {
	base := u.Summary.BaseName
	if base == "" || trivialBases[base] {
		return nil
	}
	depth := ev.Index.InheritanceDepth(u.Summary.Name)
	if depth < 1 {
		depth = 1
	}
	return []ir.Finding{{
		Message: fmt.Sprintf(
			"%s extends %s (inheritance depth %d); extract the shared behavior into a reusable function or hook instead.",
			u.Summary.Name, base, depth),
		Evidence: fmt.Sprintf("%s extends %s", u.Summary.Name, base),
	}}
}

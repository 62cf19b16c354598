// Package debt estimates remediation effort for findings. The numbers
// are heuristic sprint-planning aids, not commitments.
package debt

import (
	"strings"

	"github.com/convlint/convlint/internal/ir"
)

// Baseline minutes per rule, tuned from typical review-feedback
// turnaround on the conventions each rule enforces.
var baseMinutes = map[string]float64{
	"ARITY-LIMIT":                    20, // introduce an options object, update call sites
	"COMPOSITION-OVER-INHERITANCE":   45, // extract shared behavior, migrate the subclass
	"SINGLE-RESPONSIBILITY-SIZE":     60, // split the type, move callers
	"MAGIC-NUMBER":                   5,
	"NAMING-CONSISTENCY":             10,
	"GQL-OPERATION-NAMING":           5,
	"GQL-DUPLICATE-FIELDS":           25, // extract a fragment, rewrite each operation
	"GQL-OVERFETCH":                  30,
	"UNREADABLE-SOURCE":              5,
	"RULE-EVAL-FAULT":                0,
}

const defaultMinutes = 15

// Annotate fills DebtMinutes on each finding in place and returns the
// total. Evidence that names several operations scales the duplicate
// fragment estimate, since every call site needs the rewrite.
func Annotate(findings []ir.Finding) float64 {
	total := 0.0
	for i := range findings {
		f := &findings[i]
		mins, ok := baseMinutes[strings.ToUpper(f.RuleID)]
		if !ok {
			mins = defaultMinutes
		}
		if strings.EqualFold(f.RuleID, "GQL-DUPLICATE-FIELDS") {
			if n := strings.Count(f.Message, ","); n > 0 {
				mins += float64(n) * 10
			}
		}
		f.DebtMinutes = mins
		total += mins
	}
	return total
}

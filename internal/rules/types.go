package rules

import "github.com/convlint/convlint/internal/ir"

// Rule is a single convention check evaluated over SourceUnits.
type Rule struct {
	ID              string
	Summary         string
	Kinds           []ir.UnitKind
	DefaultSeverity ir.Severity
	Docs            string
	// Eval is a pure predicate over the unit's syntactic summary and
	// the per-run naming index. It must not retain state between calls.
	Eval func(u *ir.SourceUnit, ev *EvalContext) []ir.Finding
}

// EvalContext carries the immutable per-run inputs every predicate
// sees: the naming index snapshot and the effective settings.
type EvalContext struct {
	Index    *NamingIndex
	Settings Settings
}

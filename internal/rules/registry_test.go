package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/convlint/convlint/internal/ir"
)

func TestRegistry_DuplicateID(t *testing.T) {
	reg := NewRegistry()
	r := Rule{ID: "X-1", Kinds: []ir.UnitKind{ir.KindFunction}, Eval: func(*ir.SourceUnit, *EvalContext) []ir.Finding { return nil }}
	if err := reg.Register(r); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := reg.Register(r)
	var dup *DuplicateRuleError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRuleError, got %v", err)
	}
	// case-insensitive dup
	r.ID = "x-1"
	if err := reg.Register(r); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateRuleError for lowercased id, got %v", err)
	}
}

func TestRegistry_RulesForPreservesRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	ids := []string{"B-RULE", "A-RULE", "C-RULE"}
	for _, id := range ids {
		reg.MustRegister(Rule{
			ID:    id,
			Kinds: []ir.UnitKind{ir.KindFunction},
			Eval:  func(*ir.SourceUnit, *EvalContext) []ir.Finding { return nil },
		})
	}
	got := reg.RulesFor(ir.KindFunction)
	if len(got) != len(ids) {
		t.Fatalf("expected %d rules, got %d", len(ids), len(got))
	}
	for i, id := range ids {
		if got[i].ID != id {
			t.Fatalf("rule %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestRegistry_RulesForFiltersByKind(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Rule{ID: "FN-ONLY", Kinds: []ir.UnitKind{ir.KindFunction},
		Eval: func(*ir.SourceUnit, *EvalContext) []ir.Finding { return nil }})
	reg.MustRegister(Rule{ID: "GQL-ONLY", Kinds: []ir.UnitKind{ir.KindGraphQLOp},
		Eval: func(*ir.SourceUnit, *EvalContext) []ir.Finding { return nil }})

	if got := reg.RulesFor(ir.KindGraphQLOp); len(got) != 1 || got[0].ID != "GQL-ONLY" {
		t.Fatalf("expected only GQL-ONLY for graphql units, got %v", got)
	}
	if got := reg.RulesFor(ir.KindTypeDecl); len(got) != 0 {
		t.Fatalf("expected no rules for type units, got %v", got)
	}
}

// The finding set must not depend on registration order.
func TestEvaluate_OrderIndependence(t *testing.T) {
	mk := func(id string) Rule {
		return Rule{
			ID:              id,
			Kinds:           []ir.UnitKind{ir.KindFunction},
			DefaultSeverity: ir.SeverityWarning,
			Eval: func(u *ir.SourceUnit, _ *EvalContext) []ir.Finding {
				return []ir.Finding{{Message: id + " hit", Evidence: u.Summary.Name}}
			},
		}
	}
	units := []ir.SourceUnit{
		{File: "a.ts", Start: 10, Line: 2, Kind: ir.KindFunction, Summary: ir.Summary{Name: "doWork"}},
		{File: "b.ts", Start: 5, Line: 1, Kind: ir.KindFunction, Summary: ir.Summary{Name: "other"}},
	}

	forward := NewRegistry()
	forward.MustRegister(mk("R-ONE"))
	forward.MustRegister(mk("R-TWO"))

	reverse := NewRegistry()
	reverse.MustRegister(mk("R-TWO"))
	reverse.MustRegister(mk("R-ONE"))

	a := Evaluate(context.Background(), forward, units, DefaultSettings())
	b := Evaluate(context.Background(), reverse, units, DefaultSettings())

	if len(a) != len(b) {
		t.Fatalf("finding counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].RuleID != b[i].RuleID || a[i].File != b[i].File || a[i].Message != b[i].Message {
			t.Fatalf("finding %d differs across registration orders: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEvaluate_PanicBecomesFaultFinding(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Rule{
		ID:    "BOOM",
		Kinds: []ir.UnitKind{ir.KindFunction},
		Eval: func(*ir.SourceUnit, *EvalContext) []ir.Finding {
			panic("predicate exploded")
		},
	})
	reg.MustRegister(Rule{
		ID:              "OK",
		Kinds:           []ir.UnitKind{ir.KindFunction},
		DefaultSeverity: ir.SeverityInfo,
		Eval: func(u *ir.SourceUnit, _ *EvalContext) []ir.Finding {
			return []ir.Finding{{Message: "fine"}}
		},
	})
	units := []ir.SourceUnit{
		{File: "a.ts", Start: 0, Line: 1, Kind: ir.KindFunction, Summary: ir.Summary{Name: "f"}},
	}

	findings := Evaluate(context.Background(), reg, units, DefaultSettings())

	var fault, ok bool
	for _, f := range findings {
		switch f.RuleID {
		case "RULE-EVAL-FAULT":
			fault = true
			if f.Severity != ir.SeverityError {
				t.Fatalf("fault finding severity = %s, want error", f.Severity)
			}
			if f.Evidence != "predicate exploded" {
				t.Fatalf("fault evidence = %q", f.Evidence)
			}
		case "OK":
			ok = true
		}
	}
	if !fault {
		t.Fatal("expected a RULE-EVAL-FAULT finding for the panicking rule")
	}
	if !ok {
		t.Fatal("other rules must still run after one faults")
	}
}

func TestEvaluate_UniqueIDs(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Rule{
		ID:    "MULTI",
		Kinds: []ir.UnitKind{ir.KindFunction},
		Eval: func(u *ir.SourceUnit, _ *EvalContext) []ir.Finding {
			// identical findings collide on the content hash
			return []ir.Finding{{Message: "same"}, {Message: "same"}}
		},
	})
	units := []ir.SourceUnit{
		{File: "a.ts", Kind: ir.KindFunction, Summary: ir.Summary{Name: "f"}},
	}
	findings := Evaluate(context.Background(), reg, units, DefaultSettings())
	seen := map[string]bool{}
	for _, f := range findings {
		if f.ID == "" {
			t.Fatal("finding without an ID")
		}
		if seen[f.ID] {
			t.Fatalf("duplicate finding ID %s", f.ID)
		}
		seen[f.ID] = true
	}
}

func TestEvaluate_DisabledRuleSkipped(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Rule{
		ID:    "SKIP-ME",
		Kinds: []ir.UnitKind{ir.KindFunction},
		Eval: func(*ir.SourceUnit, *EvalContext) []ir.Finding {
			return []ir.Finding{{Message: "should not appear"}}
		},
	})
	units := []ir.SourceUnit{{File: "a.ts", Kind: ir.KindFunction, Summary: ir.Summary{Name: "f"}}}

	set := DefaultSettings()
	set.Disabled = DisabledSet([]string{"skip-me"})
	if findings := Evaluate(context.Background(), reg, units, set); len(findings) != 0 {
		t.Fatalf("expected no findings from a disabled rule, got %d", len(findings))
	}
}

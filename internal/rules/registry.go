package rules

import (
	"fmt"
	"strings"

	"github.com/convlint/convlint/internal/ir"
)

// DuplicateRuleError indicates a rule ID registered twice. It is a
// build-time defect: the run aborts before scanning.
type DuplicateRuleError struct {
	ID string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("duplicate rule id %q", e.ID)
}

// Registry holds rule definitions for one process run. It is read-only
// during evaluation, so concurrent readers need no locking.
type Registry struct {
	rules []Rule
	index map[string]int // UPPER(ruleID) -> index
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

func (r *Registry) Register(rule Rule) error {
	id := strings.ToUpper(strings.TrimSpace(rule.ID))
	if id == "" {
		return fmt.Errorf("rule with empty id")
	}
	if _, exists := r.index[id]; exists {
		return &DuplicateRuleError{ID: rule.ID}
	}
	if rule.DefaultSeverity == "" {
		rule.DefaultSeverity = ir.SeverityWarning
	}
	r.rules = append(r.rules, rule)
	r.index[id] = len(r.rules) - 1
	return nil
}

// MustRegister is for built-in rules registered from init(); a
// duplicate there is a programming defect.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// List returns all rules in registration order.
func (r *Registry) List() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// RulesFor returns the rules applicable to a unit kind, in
// registration order.
func (r *Registry) RulesFor(kind ir.UnitKind) []Rule {
	var out []Rule
	for _, rule := range r.rules {
		for _, k := range rule.Kinds {
			if k == kind {
				out = append(out, rule)
				break
			}
		}
	}
	return out
}

// Get returns a rule by ID if registered.
func (r *Registry) Get(id string) (Rule, bool) {
	idx, ok := r.index[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Rule{}, false
	}
	return r.rules[idx], true
}

var defaultRegistry = NewRegistry()

// Default is the process-wide registry the built-in rule files
// register into from init().
func Default() *Registry { return defaultRegistry }

func register(rule Rule) { defaultRegistry.MustRegister(rule) }

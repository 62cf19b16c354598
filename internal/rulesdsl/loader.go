package rulesdsl

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/convlint/convlint/internal/ir"
	"github.com/convlint/convlint/internal/rules"
)

type dslPack struct {
	Rules []dslRule `yaml:"rules"`
}

type dslRule struct {
	ID       string `yaml:"id"`
	Summary  string `yaml:"summary"`
	Severity string `yaml:"severity"` // error|warning|info
	Message  string `yaml:"message"`

	Where struct {
		Kind            string `yaml:"kind"`             // component|function|type-definition|graphql-operation (optional)
		NameRegex       string `yaml:"name_regex"`       // regex on the unit name (case-insensitive, optional)
		IdentifierRegex string `yaml:"identifier_regex"` // regex any identifier in the unit must match (optional)
	} `yaml:"where"`
}

type compiled struct {
	rule         dslRule
	kind         ir.UnitKind
	reName       *regexp.Regexp
	reIdentifier *regexp.Regexp
}

// LoadAndRegister reads one YAML rule pack and registers its compiled
// rules into the given registry. Returns the number registered.
func LoadAndRegister(reg *rules.Registry, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rules pack: %w", err)
	}
	var pack dslPack
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return 0, fmt.Errorf("parse yaml: %w", err)
	}
	var n int
	for _, r := range pack.Rules {
		cr, err := compile(r)
		if err != nil {
			return n, fmt.Errorf("compile rule %q: %w", r.ID, err)
		}
		if err := reg.Register(toRule(*cr)); err != nil {
			return n, fmt.Errorf("register rule %q: %w", r.ID, err)
		}
		n++
	}
	return n, nil
}

func compile(r dslRule) (*compiled, error) {
	if r.ID == "" || r.Severity == "" || r.Message == "" {
		return nil, fmt.Errorf("missing required fields (id/severity/message)")
	}
	sev := ir.Severity(strings.ToLower(r.Severity))
	switch sev {
	case ir.SeverityError, ir.SeverityWarning, ir.SeverityInfo:
	default:
		return nil, fmt.Errorf("unknown severity %q", r.Severity)
	}
	c := &compiled{rule: r}
	if r.Where.Kind != "" {
		k := ir.UnitKind(strings.ToLower(strings.TrimSpace(r.Where.Kind)))
		switch k {
		case ir.KindComponent, ir.KindFunction, ir.KindTypeDecl, ir.KindGraphQLOp:
			c.kind = k
		default:
			return nil, fmt.Errorf("unknown kind %q", r.Where.Kind)
		}
	}
	if r.Where.NameRegex != "" {
		re, err := regexp.Compile("(?i)" + r.Where.NameRegex)
		if err != nil {
			return nil, fmt.Errorf("name_regex: %w", err)
		}
		c.reName = re
	}
	if r.Where.IdentifierRegex != "" {
		re, err := regexp.Compile("(?i)" + r.Where.IdentifierRegex)
		if err != nil {
			return nil, fmt.Errorf("identifier_regex: %w", err)
		}
		c.reIdentifier = re
	}
	return c, nil
}

func toRule(c compiled) rules.Rule {
	kinds := []ir.UnitKind{ir.KindComponent, ir.KindFunction, ir.KindTypeDecl, ir.KindGraphQLOp}
	if c.kind != "" {
		kinds = []ir.UnitKind{c.kind}
	}
	sev := ir.Severity(strings.ToLower(c.rule.Severity))
	return rules.Rule{
		ID:              c.rule.ID,
		Summary:         c.rule.Summary,
		Kinds:           kinds,
		DefaultSeverity: sev,
		Eval: func(u *ir.SourceUnit, _ *rules.EvalContext) []ir.Finding {
			if c.reName != nil && !c.reName.MatchString(u.Summary.Name) {
				return nil
			}
			if c.reIdentifier != nil {
				found := false
				for _, id := range u.Summary.Identifiers {
					if c.reIdentifier.MatchString(id) {
						found = true
						break
					}
				}
				if !found {
					return nil
				}
			}
			return []ir.Finding{{
				Message:  c.rule.Message,
				Evidence: evidenceFor(u, c),
			}}
		},
	}
}

func evidenceFor(u *ir.SourceUnit, c compiled) string {
	parts := []string{string(u.Kind) + "=" + u.Summary.Name}
	if c.reIdentifier != nil {
		for _, id := range u.Summary.Identifiers {
			if c.reIdentifier.MatchString(id) {
				parts = append(parts, "ident~"+id)
				break
			}
		}
	}
	return strings.Join(parts, " | ")
}

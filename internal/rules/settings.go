package rules

import (
	"strings"

	"github.com/convlint/convlint/internal/ir"
)

// Settings are the effective knobs for one evaluation pass.
type Settings struct {
	SeverityThreshold          ir.Severity
	Disabled                   map[string]bool // UPPER(ruleID)
	VerbPrefixes               []string
	RetrievalVerbs             []string
	MaxParameters              int
	MaxPublicMethods           int
	FragmentDuplicateThreshold int
	OverfetchDepth             int
	Workers                    int
}

func DefaultSettings() Settings {
	return Settings{
		SeverityThreshold:          ir.SeverityWarning,
		Disabled:                   map[string]bool{},
		VerbPrefixes:               []string{"fetch", "update", "create", "delete"},
		RetrievalVerbs:             []string{"get", "fetch", "retrieve", "load"},
		MaxParameters:              2,
		MaxPublicMethods:           3,
		FragmentDuplicateThreshold: 2,
		OverfetchDepth:             1,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = d.SeverityThreshold
	}
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	if len(s.VerbPrefixes) == 0 {
		s.VerbPrefixes = d.VerbPrefixes
	}
	if len(s.RetrievalVerbs) == 0 {
		s.RetrievalVerbs = d.RetrievalVerbs
	}
	if s.MaxParameters == 0 {
		s.MaxParameters = d.MaxParameters
	}
	if s.MaxPublicMethods == 0 {
		s.MaxPublicMethods = d.MaxPublicMethods
	}
	if s.FragmentDuplicateThreshold == 0 {
		s.FragmentDuplicateThreshold = d.FragmentDuplicateThreshold
	}
	if s.OverfetchDepth == 0 {
		s.OverfetchDepth = d.OverfetchDepth
	}
	return s
}

func (s Settings) retrievalVerb(verb string) bool {
	for _, v := range s.RetrievalVerbs {
		if strings.EqualFold(v, verb) {
			return true
		}
	}
	return false
}

func (s Settings) verbPrefix(name string) bool {
	for _, v := range s.VerbPrefixes {
		if len(name) >= len(v) && strings.EqualFold(name[:len(v)], v) {
			return true
		}
	}
	return false
}

// DisabledSet normalizes a list of rule IDs into the lookup map the
// evaluator uses.
func DisabledSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	return out
}

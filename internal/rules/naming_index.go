package rules

import (
	"strings"
	"unicode"

	"github.com/convlint/convlint/internal/ir"
)

// OpRef identifies one GraphQL operation unit within the index.
type OpRef struct {
	File  string
	Start int
	Name  string
}

// NamingIndex is the project-wide snapshot the cross-unit rules
// consult. It is built once per run from the scanned units and never
// mutated afterwards, so predicates can read it concurrently.
type NamingIndex struct {
	canonicalVerb map[string]string // entity (lower) -> first retrieval verb seen
	bases         map[string]string // type name -> base name
	duplicates    map[string][]OpRef
}

// BuildNamingIndex derives the index from units in scan order (file,
// then byte offset), which makes "first seen" deterministic.
func BuildNamingIndex(units []ir.SourceUnit, retrievalVerbs []string) *NamingIndex {
	verbs := make(map[string]bool, len(retrievalVerbs))
	for _, v := range retrievalVerbs {
		verbs[strings.ToLower(v)] = true
	}

	ix := &NamingIndex{
		canonicalVerb: map[string]string{},
		bases:         map[string]string{},
		duplicates:    map[string][]OpRef{},
	}

	for i := range units {
		u := &units[i]
		switch u.Kind {
		case ir.KindFunction, ir.KindComponent:
			verb, entity := SplitVerb(u.Summary.Name)
			if entity == "" || !verbs[verb] {
				continue
			}
			key := strings.ToLower(entity)
			if _, ok := ix.canonicalVerb[key]; !ok {
				ix.canonicalVerb[key] = verb
			}

		case ir.KindTypeDecl:
			if u.Summary.Name != "" {
				ix.bases[u.Summary.Name] = u.Summary.BaseName
			}

		case ir.KindGraphQLOp:
			for _, sel := range u.Summary.Selections {
				if sel.UsesFragment || len(sel.Fields) == 0 {
					continue
				}
				key := selectionKey(sel.Entity, sel.Fields)
				ix.duplicates[key] = append(ix.duplicates[key], OpRef{
					File:  u.File,
					Start: u.Start,
					Name:  u.Summary.Name,
				})
			}
		}
	}
	return ix
}

// CanonicalVerb returns the verb stem first observed for retrieval
// operations on the entity, or "" when none was recorded.
func (ix *NamingIndex) CanonicalVerb(entity string) string {
	return ix.canonicalVerb[strings.ToLower(entity)]
}

// InheritanceDepth walks the extends chain for a type name. An unknown
// base still counts as one level; chains are capped to guard against
// cycles.
func (ix *NamingIndex) InheritanceDepth(name string) int {
	depth := 0
	cur := name
	for depth < 10 {
		base := ix.bases[cur]
		if base == "" {
			break
		}
		depth++
		cur = base
	}
	return depth
}

// DuplicateGroup returns all operations selecting the given field set
// on the given entity, in scan order.
func (ix *NamingIndex) DuplicateGroup(entity string, fields []string) []OpRef {
	return ix.duplicates[selectionKey(entity, fields)]
}

func selectionKey(entity string, fields []string) string {
	return strings.ToLower(entity) + "{" + strings.Join(fields, ",") + "}"
}

// SplitVerb splits a camelCase name into its leading verb segment and
// the remaining entity, e.g. "fetchUserData" -> ("fetch", "UserData").
func SplitVerb(name string) (verb, entity string) {
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			return strings.ToLower(name[:i]), name[i:]
		}
	}
	return strings.ToLower(name), ""
}

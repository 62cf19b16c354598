package scanner

import (
	"sort"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/convlint/convlint/internal/ir"
)

var paginationArgs = map[string]bool{
	"first": true, "last": true, "limit": true, "offset": true,
	"skip": true, "take": true, "page": true, "pageSize": true,
	"after": true, "before": true,
}

// ParseOperations extracts graphql-operation units from a document.
// baseOffset/baseLine anchor positions when the document is embedded in
// a code file (gql-tagged template).
func ParseOperations(rel, src string, baseOffset, baseLine int) ([]ir.SourceUnit, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: rel, Input: src})
	if err != nil {
		return nil, &UnreadableSourceError{Path: rel, Err: err}
	}

	var units []ir.SourceUnit
	for _, op := range doc.Operations {
		u := ir.SourceUnit{
			File: rel,
			Kind: ir.KindGraphQLOp,
		}
		if op.Position != nil {
			u.Start = baseOffset + op.Position.Start
			u.End = baseOffset + op.Position.End
			u.Line = baseLine + op.Position.Line - 1
		}
		u.Summary.Name = op.Name
		u.Summary.Operation = string(op.Operation)
		u.Summary.Selections = summarizeSelections(op.SelectionSet, baseOffset)
		units = append(units, u)
	}
	return units, nil
}

// summarizeSelections reduces each top-level field to the summary the
// GraphQL rules evaluate: its leaf field set, fragment usage, nested
// relation depth and pagination arguments.
func summarizeSelections(set ast.SelectionSet, baseOffset int) []ir.Selection {
	var out []ir.Selection
	for _, sel := range set {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		s := ir.Selection{Entity: field.Name}
		if field.Position != nil {
			// same anchoring as the operation itself, so findings on
			// embedded documents sort with the rest of the file
			s.Offset = baseOffset + field.Position.Start
		}
		s.Paginated = hasPaginationArg(field.Arguments)
		collectFields(field.SelectionSet, 0, &s)
		sort.Strings(s.Fields)
		out = append(out, s)
	}
	return out
}

func collectFields(set ast.SelectionSet, depth int, s *ir.Selection) {
	for _, sel := range set {
		switch f := sel.(type) {
		case *ast.Field:
			if len(f.SelectionSet) == 0 {
				s.Fields = append(s.Fields, f.Name)
				continue
			}
			// A field with its own selection set is a nested relation.
			if depth+1 > s.Depth {
				s.Depth = depth + 1
			}
			if hasPaginationArg(f.Arguments) {
				s.Paginated = true
			}
			collectFields(f.SelectionSet, depth+1, s)
		case *ast.FragmentSpread:
			s.UsesFragment = true
		case *ast.InlineFragment:
			collectFields(f.SelectionSet, depth, s)
		}
	}
}

func hasPaginationArg(args ast.ArgumentList) bool {
	for _, a := range args {
		if paginationArgs[a.Name] {
			return true
		}
	}
	return false
}

package scanner

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/convlint/convlint/internal/ir"
)

// timingCalls are callee names whose numeric arguments are treated as
// timing/threshold positions for the magic-number rule.
var timingCalls = map[string]bool{
	"setTimeout":  true,
	"setInterval": true,
	"setRetry":    true,
	"debounce":    true,
	"throttle":    true,
	"delay":       true,
	"sleep":       true,
	"wait":        true,
	"poll":        true,
}

// optionsNames are trailing parameter names accepted as a structured
// options value for the arity rule.
var optionsNames = map[string]bool{
	"options": true,
	"opts":    true,
	"config":  true,
	"params":  true,
}

// CodeParser is the tree-sitter front end for TypeScript/JavaScript.
// It extracts declarations into SourceUnits; it does not interpret them.
type CodeParser struct {
	ts  *sitter.Parser
	tsx *sitter.Parser
	js  *sitter.Parser
}

func NewCodeParser() *CodeParser {
	ts := sitter.NewParser()
	ts.SetLanguage(typescript.GetLanguage())
	tx := sitter.NewParser()
	tx.SetLanguage(tsx.GetLanguage())
	js := sitter.NewParser()
	js.SetLanguage(javascript.GetLanguage())
	return &CodeParser{ts: ts, tsx: tx, js: js}
}

// Parse extracts SourceUnits from one code file. GraphQL documents
// embedded as gql-tagged templates are handed to the GraphQL front end.
func (p *CodeParser) Parse(ctx context.Context, rel string, content []byte) ([]ir.SourceUnit, error) {
	parser := p.ts
	ext := strings.ToLower(filepath.Ext(rel))
	switch ext {
	case ".tsx":
		parser = p.tsx
	case ".js", ".jsx", ".mjs", ".cjs":
		parser = p.js
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	w := &walker{rel: rel, ext: ext, src: content}
	w.walk(tree.RootNode(), false)
	return w.units, nil
}

type walker struct {
	rel   string
	ext   string
	src   []byte
	units []ir.SourceUnit
}

func (w *walker) text(n *sitter.Node) string {
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *walker) walk(node *sitter.Node, exported bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "export_statement":
			w.walk(child, true)

		case "class_declaration", "abstract_class_declaration":
			w.addClass(child, exported)

		case "interface_declaration", "type_alias_declaration", "enum_declaration":
			w.addTypeDecl(child, exported)

		case "function_declaration", "generator_function_declaration":
			w.addFunction(child, exported)

		case "lexical_declaration", "variable_declaration":
			w.addVarDecls(child, exported)

		default:
			w.walk(child, exported)
		}
	}
}

func (w *walker) addClass(node *sitter.Node, exported bool) {
	name := w.fieldText(node, "name")
	if name == "" {
		return
	}
	u := w.newUnit(node, ir.KindTypeDecl)
	u.Summary.Name = name
	u.Summary.Exported = exported
	u.Summary.BaseName = w.classBase(node)
	u.Summary.PublicMethods = w.publicMethodCount(node.ChildByFieldName("body"))
	u.Summary.Identifiers = w.identifiers(node)
	u.Summary.TimingLiterals = w.timingLiterals(node)
	w.units = append(w.units, u)
}

func (w *walker) addTypeDecl(node *sitter.Node, exported bool) {
	name := w.fieldText(node, "name")
	if name == "" {
		return
	}
	u := w.newUnit(node, ir.KindTypeDecl)
	u.Summary.Name = name
	u.Summary.Exported = exported
	if node.Type() == "interface_declaration" {
		u.Summary.BaseName = w.interfaceBase(node)
	}
	u.Summary.Identifiers = w.identifiers(node)
	w.units = append(w.units, u)
}

func (w *walker) addFunction(node *sitter.Node, exported bool) {
	name := w.fieldText(node, "name")
	if name == "" {
		return
	}
	w.addCallable(node, node.ChildByFieldName("parameters"), name, exported)
}

// addVarDecls handles const/let bindings whose value is an arrow
// function, a function expression, or a gql-tagged template.
func (w *walker) addVarDecls(node *sitter.Node, exported bool) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		name := w.fieldText(decl, "name")
		value := decl.ChildByFieldName("value")
		if name == "" || value == nil {
			continue
		}
		switch value.Type() {
		case "arrow_function", "function", "function_expression", "generator_function":
			w.addCallable(decl, value.ChildByFieldName("parameters"), name, exported)
		case "call_expression":
			w.addTaggedGraphQL(value)
		}
	}
}

func (w *walker) addCallable(node *sitter.Node, params *sitter.Node, name string, exported bool) {
	kind := ir.KindFunction
	if w.isComponent(name) {
		kind = ir.KindComponent
	}
	u := w.newUnit(node, kind)
	u.Summary.Name = name
	u.Summary.Exported = exported
	u.Summary.ParamCount, u.Summary.OptionsParam = w.paramSummary(params)
	u.Summary.Identifiers = w.identifiers(node)
	u.Summary.TimingLiterals = w.timingLiterals(node)
	w.units = append(w.units, u)

	// Operations defined inside the body as gql tags still count.
	w.findTaggedGraphQL(node)
}

// isComponent treats an uppercase-named callable in a JSX-capable file
// as a component.
func (w *walker) isComponent(name string) bool {
	if w.ext != ".tsx" && w.ext != ".jsx" {
		return false
	}
	r := []rune(name)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

func (w *walker) newUnit(node *sitter.Node, kind ir.UnitKind) ir.SourceUnit {
	return ir.SourceUnit{
		File:  w.rel,
		Start: int(node.StartByte()),
		End:   int(node.EndByte()),
		Line:  int(node.StartPoint().Row) + 1,
		Kind:  kind,
	}
}

func (w *walker) fieldText(node *sitter.Node, field string) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return w.text(n)
}

// paramSummary counts declared parameters and reports whether the
// trailing one is a structured options value (destructured pattern,
// an options-like name, or an *Options type annotation).
func (w *walker) paramSummary(params *sitter.Node) (int, bool) {
	if params == nil {
		return 0, false
	}
	var count int
	var last *sitter.Node
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "required_parameter", "optional_parameter",
			"identifier", "object_pattern", "array_pattern", "assignment_pattern":
			count++
			last = p
		case "rest_parameter", "rest_pattern":
			count++
			last = p
		}
	}
	if last == nil {
		return count, false
	}

	pattern := last
	if last.Type() == "required_parameter" || last.Type() == "optional_parameter" {
		if pn := last.ChildByFieldName("pattern"); pn != nil {
			pattern = pn
		}
		if tn := last.ChildByFieldName("type"); tn != nil {
			if strings.HasSuffix(strings.TrimSpace(w.text(tn)), "Options") {
				return count, true
			}
		}
	}
	switch pattern.Type() {
	case "object_pattern":
		return count, true
	case "identifier":
		return count, optionsNames[strings.ToLower(w.text(pattern))]
	}
	return count, false
}

func (w *walker) classBase(node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() != "class_heritage" {
			continue
		}
		// TS wraps the base in an extends_clause; JS puts it directly.
		for j := 0; j < int(c.NamedChildCount()); j++ {
			h := c.NamedChild(j)
			if h.Type() == "extends_clause" {
				if h.NamedChildCount() > 0 {
					return w.text(h.NamedChild(0))
				}
				return ""
			}
			if h.Type() == "implements_clause" {
				continue
			}
			return w.text(h)
		}
	}
	return ""
}

func (w *walker) interfaceBase(node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		c := node.NamedChild(i)
		if c.Type() == "extends_type_clause" && c.NamedChildCount() > 0 {
			return w.text(c.NamedChild(0))
		}
	}
	return ""
}

func (w *walker) publicMethodCount(body *sitter.Node) int {
	if body == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(body.NamedChildCount()); i++ {
		m := body.NamedChild(i)
		if m.Type() != "method_definition" {
			continue
		}
		name := w.fieldText(m, "name")
		if name == "" || name == "constructor" || strings.HasPrefix(name, "#") {
			continue
		}
		if w.hasAccessModifier(m) {
			continue
		}
		count++
	}
	return count
}

func (w *walker) hasAccessModifier(m *sitter.Node) bool {
	for i := 0; i < int(m.ChildCount()); i++ {
		c := m.Child(i)
		if c.Type() == "accessibility_modifier" {
			t := w.text(c)
			return t == "private" || t == "protected"
		}
	}
	return false
}

// identifiers collects referenced identifier names in the subtree,
// deduplicated and sorted, capped to keep summaries small.
func (w *walker) identifiers(node *sitter.Node) []string {
	seen := map[string]bool{}
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "identifier" || n.Type() == "property_identifier" {
			seen[w.text(n)] = true
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(node)
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	if len(out) > 64 {
		out = out[:64]
	}
	return out
}

// timingLiterals finds bare numeric literals in timing-call argument
// positions within the subtree.
func (w *walker) timingLiterals(node *sitter.Node) []ir.TimingLiteral {
	var out []ir.TimingLiteral
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			if lit, ok := w.timingLiteral(n); ok {
				out = append(out, lit)
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(node)
	return out
}

func (w *walker) timingLiteral(call *sitter.Node) (ir.TimingLiteral, bool) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.Type() != "arguments" {
		return ir.TimingLiteral{}, false
	}
	callee := w.text(fn)
	if i := strings.LastIndex(callee, "."); i >= 0 {
		callee = callee[i+1:]
	}
	if !timingCalls[callee] {
		return ir.TimingLiteral{}, false
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		a := args.NamedChild(i)
		if a.Type() == "number" {
			return ir.TimingLiteral{
				Call:   callee,
				Value:  w.text(a),
				Offset: int(a.StartByte()),
				Line:   int(a.StartPoint().Row) + 1,
			}, true
		}
	}
	return ir.TimingLiteral{}, false
}

// findTaggedGraphQL locates gql`...` tags anywhere in the subtree.
func (w *walker) findTaggedGraphQL(node *sitter.Node) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			w.addTaggedGraphQL(n)
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		visit(node.NamedChild(i))
	}
}

func (w *walker) addTaggedGraphQL(call *sitter.Node) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil || args == nil || args.Type() != "template_string" {
		return
	}
	tag := w.text(fn)
	if tag != "gql" && tag != "graphql" {
		return
	}
	raw := w.text(args)
	src := strings.Trim(raw, "`")
	baseOffset := int(args.StartByte()) + 1
	baseLine := int(args.StartPoint().Row) + 1

	ops, err := ParseOperations(w.rel, src, baseOffset, baseLine)
	if err != nil {
		// A malformed embedded document is not this unit's concern;
		// the file itself parsed fine.
		return
	}
	w.units = append(w.units, ops...)
}

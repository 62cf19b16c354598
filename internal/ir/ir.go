package ir

import "time"

const Version = "1.0"

// UnitKind discriminates the tagged SourceUnit variant.
type UnitKind string

const (
	KindComponent UnitKind = "component"
	KindFunction  UnitKind = "function"
	KindTypeDecl  UnitKind = "type-definition"
	KindGraphQLOp UnitKind = "graphql-operation"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// SeverityRank orders severities for threshold comparison and sorting.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	default:
		return 1 // info or unknown
	}
}

type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	Context  Context      `json:"context"`
	Units    []SourceUnit `json:"units"`
	Findings []Finding    `json:"findings,omitempty"`
}

// Context is the config snapshot recorded with a run so a stored run
// can be re-reported without the original config file.
type Context struct {
	SeverityThreshold string   `json:"severity_threshold,omitempty"`
	DisabledRules     []string `json:"disabled_rules,omitempty"`
	VerbPrefixes      []string `json:"verb_prefixes,omitempty"`
	MaxParameters     int      `json:"max_parameters,omitempty"`
	MaxPublicMethods  int      `json:"max_public_methods,omitempty"`
	OverfetchDepth    int      `json:"overfetch_depth,omitempty"`
}

// SourceUnit is one classified declaration or operation. The scanner
// creates it; it is read-only afterwards.
type SourceUnit struct {
	File  string   `json:"file"`
	Start int      `json:"start"` // byte offset of the declaration
	End   int      `json:"end"`
	Line  int      `json:"line"` // 1-based
	Kind  UnitKind `json:"kind"`

	Summary Summary `json:"summary"`
}

// Summary is the normalized syntactic view predicates evaluate against.
// Fields are populated per kind; zero values mean "not applicable".
type Summary struct {
	Name     string `json:"name"`
	Exported bool   `json:"exported,omitempty"`

	// function / component
	ParamCount   int  `json:"param_count,omitempty"`
	OptionsParam bool `json:"options_param,omitempty"` // trailing destructured options param absorbs extras

	// type-definition
	BaseName      string `json:"base_name,omitempty"`
	PublicMethods int    `json:"public_methods,omitempty"`

	Identifiers    []string        `json:"identifiers,omitempty"`
	TimingLiterals []TimingLiteral `json:"timing_literals,omitempty"`

	// graphql-operation
	Operation  string      `json:"operation,omitempty"` // query | mutation | subscription
	Selections []Selection `json:"selections,omitempty"`
}

// TimingLiteral is a numeric literal observed in a delay/interval-like
// call position.
type TimingLiteral struct {
	Call   string `json:"call"`
	Value  string `json:"value"`
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
}

// Selection summarizes one top-level field of a GraphQL operation.
type Selection struct {
	Entity       string   `json:"entity"`
	Fields       []string `json:"fields,omitempty"` // sorted leaf field names
	UsesFragment bool     `json:"uses_fragment,omitempty"`
	Depth        int      `json:"depth"` // nesting of selection sets below this field
	Paginated    bool     `json:"paginated,omitempty"`
	Offset       int      `json:"offset,omitempty"` // byte offset within the document
}

type Finding struct {
	ID       string   `json:"id"`
	RuleID   string   `json:"rule_id"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Offset   int      `json:"offset"`
	Unit     string   `json:"unit,omitempty"` // name of the offending unit
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Evidence string   `json:"evidence,omitempty"`

	// Estimated remediation effort, annotated after evaluation.
	DebtMinutes float64 `json:"debt_minutes,omitempty"`
}

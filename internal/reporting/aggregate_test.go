package reporting

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convlint/convlint/internal/ir"
)

func sampleFindings() []ir.Finding {
	return []ir.Finding{
		{ID: "F3", RuleID: "MAGIC-NUMBER", File: "src/b.ts", Line: 9, Offset: 200, Severity: ir.SeverityWarning, Message: "bare literal"},
		{ID: "F1", RuleID: "ARITY-LIMIT", File: "src/a.ts", Line: 3, Offset: 40, Severity: ir.SeverityWarning, Message: "too many params"},
		{ID: "F2", RuleID: "RULE-EVAL-FAULT", File: "src/a.ts", Line: 1, Offset: 10, Severity: ir.SeverityError, Message: "rule faulted"},
		{ID: "F4", RuleID: "GQL-OPERATION-NAMING", File: "queries/q.graphql", Line: 1, Offset: 0, Severity: ir.SeverityInfo, Message: "naming"},
	}
}

func TestAggregate_GroupsAndOrders(t *testing.T) {
	rep := Aggregate("run-1", sampleFindings(), 0)

	require.Len(t, rep.Files, 3)
	assert.Equal(t, "queries/q.graphql", rep.Files[0].File)
	assert.Equal(t, "src/a.ts", rep.Files[1].File)
	assert.Equal(t, "src/b.ts", rep.Files[2].File)

	// within a file, byte offset order
	a := rep.Files[1].Findings
	require.Len(t, a, 2)
	assert.Equal(t, "F2", a[0].ID)
	assert.Equal(t, "F1", a[1].ID)

	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, Counts{Errors: 1, Warnings: 2, Info: 1}, rep.Counts)
}

func TestAggregate_CountsAlwaysPresent(t *testing.T) {
	rep := Aggregate("run-1", []ir.Finding{
		{RuleID: "X", File: "a.ts", Severity: ir.SeverityInfo},
	}, 0)
	// zero buckets stay present rather than disappearing
	assert.Equal(t, 0, rep.Counts.Errors)
	assert.Equal(t, 0, rep.Counts.Warnings)
	assert.Equal(t, 1, rep.Counts.Info)
}

func TestExceedsThreshold(t *testing.T) {
	rep := Aggregate("run-1", []ir.Finding{
		{RuleID: "X", File: "a.ts", Severity: ir.SeverityWarning},
	}, 0)
	assert.True(t, rep.ExceedsThreshold(ir.SeverityWarning))
	assert.True(t, rep.ExceedsThreshold(ir.SeverityInfo))
	assert.False(t, rep.ExceedsThreshold(ir.SeverityError))

	empty := Aggregate("run-2", nil, 0)
	assert.False(t, empty.ExceedsThreshold(ir.SeverityInfo))
}

// Rendering the same findings twice must be byte-identical, in both formats.
func TestRender_Deterministic(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		var first, second bytes.Buffer

		repA := Aggregate("run-1", sampleFindings(), 1)
		repB := Aggregate("run-1", sampleFindings(), 1)

		switch format {
		case "text":
			require.NoError(t, WriteText(&first, repA))
			require.NoError(t, WriteText(&second, repB))
		case "json":
			require.NoError(t, WriteFindingsJSON(&first, repA))
			require.NoError(t, WriteFindingsJSON(&second, repB))
		}
		assert.Equal(t, first.String(), second.String(), "%s output differs between runs", format)
		assert.NotEmpty(t, first.String())
	}
}

func TestWriteFindingsJSON_EmptyReportHasEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFindingsJSON(&buf, Aggregate("run-1", nil, 0)))
	assert.Contains(t, buf.String(), `"findings": []`)
	assert.Contains(t, buf.String(), `"errors": 0`)
}

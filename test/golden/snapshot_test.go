package golden

import (
	"bytes"
	"testing"

	"github.com/convlint/convlint/internal/debt"
	"github.com/convlint/convlint/internal/ir"
	"github.com/convlint/convlint/internal/reporting"
)

// Two pipeline passes over the same tree must render byte-identical
// reports, findings included.
func TestSnapshot_DoubleRunByteIdentical(t *testing.T) {
	files := map[string]string{
		"src/app.ts":        sampleCode,
		"queries/q.graphql": sampleQueries,
	}

	render := func() string {
		findings := lintStrings(t, files)
		debt.Annotate(findings)
		rep := reporting.Aggregate("run-golden", findings, 0)
		var buf bytes.Buffer
		if err := reporting.WriteFindingsJSON(&buf, rep); err != nil {
			t.Fatalf("render: %v", err)
		}
		return buf.String()
	}

	first := render()
	second := render()
	if first != second {
		t.Fatalf("reports differ between identical runs:\n--- first ---\n%s\n--- second ---\n%s", first, second)
	}
	if first == "" {
		t.Fatal("empty report")
	}
}

// Findings carry stable content-derived IDs across runs of the same input.
func TestSnapshot_StableFindingIDs(t *testing.T) {
	files := map[string]string{"src/app.ts": sampleCode}

	ids := func() map[string]ir.Severity {
		out := map[string]ir.Severity{}
		for _, f := range lintStrings(t, files) {
			out[f.ID] = f.Severity
		}
		return out
	}

	a, b := ids(), ids()
	if len(a) != len(b) {
		t.Fatalf("finding counts differ: %d vs %d", len(a), len(b))
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			t.Fatalf("finding ID %s not stable across runs", id)
		}
	}
}

package reporting

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/convlint/convlint/internal/ir"
)

// jsonRecord is the flat machine-readable row, one per finding.
type jsonRecord struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	RuleID   string `json:"ruleId"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Evidence string `json:"evidence,omitempty"`
}

type jsonPayload struct {
	RunID    string       `json:"run_id,omitempty"`
	Counts   Counts       `json:"counts"`
	Total    int          `json:"total"`
	Findings []jsonRecord `json:"findings"`
}

// WriteFindingsJSON renders the report as a flat record list. Record
// order follows the report's grouping, so repeated renders of the same
// report are byte-identical.
func WriteFindingsJSON(w io.Writer, rep *Report) error {
	payload := jsonPayload{
		RunID:    rep.RunID,
		Counts:   rep.Counts,
		Total:    rep.Total,
		Findings: []jsonRecord{},
	}
	for _, fg := range rep.Files {
		for _, f := range fg.Findings {
			payload.Findings = append(payload.Findings, jsonRecord{
				File:     f.File,
				Line:     f.Line,
				RuleID:   f.RuleID,
				Severity: string(f.Severity),
				Message:  f.Message,
				Evidence: f.Evidence,
			})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// WriteJSON persists the full run document under outDir.
func WriteJSON(runID, outDir string, run *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, runID+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return "", err
	}
	return path, nil
}

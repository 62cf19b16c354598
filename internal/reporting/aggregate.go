package reporting

import (
	"sort"

	"github.com/convlint/convlint/internal/ir"
)

// Report is the ordered, grouped view of one run's findings. Building
// it twice from the same findings yields byte-identical rendered
// output in every format.
type Report struct {
	RunID    string      `json:"run_id,omitempty"`
	Files    []FileGroup `json:"files"`
	Counts   Counts      `json:"counts"`
	Total    int         `json:"total"`
	Waived   int         `json:"waived,omitempty"`
	DebtMins float64     `json:"debt_minutes,omitempty"`
}

// FileGroup holds one file's findings ordered by byte offset.
type FileGroup struct {
	File     string       `json:"file"`
	Findings []ir.Finding `json:"findings"`
}

// Counts carries one bucket per severity even when the bucket is zero,
// so consumers never have to probe for missing keys.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// Aggregate groups findings by file (files sorted lexicographically,
// findings within a file by offset, then rule ID) and tallies
// per-severity counts.
func Aggregate(runID string, findings []ir.Finding, waived int) *Report {
	byFile := map[string][]ir.Finding{}
	rep := &Report{RunID: runID, Waived: waived, Total: len(findings)}

	for _, f := range findings {
		byFile[f.File] = append(byFile[f.File], f)
		switch f.Severity {
		case ir.SeverityError:
			rep.Counts.Errors++
		case ir.SeverityWarning:
			rep.Counts.Warnings++
		default:
			rep.Counts.Info++
		}
		rep.DebtMins += f.DebtMinutes
	}

	names := make([]string, 0, len(byFile))
	for name := range byFile {
		names = append(names, name)
	}
	sort.Strings(names)

	rep.Files = make([]FileGroup, 0, len(names))
	for _, name := range names {
		fs := byFile[name]
		sort.SliceStable(fs, func(i, j int) bool {
			if fs[i].Offset != fs[j].Offset {
				return fs[i].Offset < fs[j].Offset
			}
			return fs[i].RuleID < fs[j].RuleID
		})
		rep.Files = append(rep.Files, FileGroup{File: name, Findings: fs})
	}
	return rep
}

// ExceedsThreshold reports whether any finding is at or above the
// given severity, which drives the process exit code.
func (r *Report) ExceedsThreshold(threshold ir.Severity) bool {
	min := ir.SeverityRank(threshold)
	if r.Counts.Errors > 0 && ir.SeverityRank(ir.SeverityError) >= min {
		return true
	}
	if r.Counts.Warnings > 0 && ir.SeverityRank(ir.SeverityWarning) >= min {
		return true
	}
	if r.Counts.Info > 0 && ir.SeverityRank(ir.SeverityInfo) >= min {
		return true
	}
	return false
}

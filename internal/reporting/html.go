package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"

	"github.com/convlint/convlint/internal/ir"
)

func WriteHTML(runID, outDir string, run *ir.Run, rep *Report) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, runID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(runID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>convlint report – <span class='mono'>%s</span></h1>", html.EscapeString(runID))
	fmt.Fprintf(f, "<p>Units: %d &nbsp; Findings: %d &nbsp; Files flagged: %d</p>", len(run.Units), rep.Total, len(rep.Files))
	fmt.Fprintf(f, "<p><b>Severity</b>: %d errors &nbsp; %d warnings &nbsp; %d info</p>",
		rep.Counts.Errors, rep.Counts.Warnings, rep.Counts.Info)
	if rep.DebtMins > 0 {
		fmt.Fprintf(f, "<p class='dim'>~%.0f minutes estimated remediation (heuristic)</p>", rep.DebtMins)
	}

	// Threshold/disabled banner
	fmt.Fprintf(f, "<p class='dim'>Severity threshold: %s", html.EscapeString(run.Context.SeverityThreshold))
	if n := len(run.Context.DisabledRules); n > 0 {
		fmt.Fprintf(f, " &nbsp; Disabled rules: %d", n)
	}
	fmt.Fprint(f, "</p>")

	// Noisiest rules
	if rep.Total > 0 {
		byRule := map[string]int{}
		for _, fg := range rep.Files {
			for _, fd := range fg.Findings {
				byRule[fd.RuleID]++
			}
		}
		type rc struct {
			rule  string
			count int
		}
		var tops []rc
		for r, n := range byRule {
			tops = append(tops, rc{r, n})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].count == tops[j].count {
				return tops[i].rule < tops[j].rule
			}
			return tops[i].count > tops[j].count
		})
		fmt.Fprint(f, "<h2>Noisiest Rules</h2><table><tr><th>Rule</th><th>Findings</th></tr>")
		limit := len(tops)
		if limit > 10 {
			limit = 10
		}
		for i := 0; i < limit; i++ {
			fmt.Fprintf(f, "<tr><td>%s</td><td>%d</td></tr>", html.EscapeString(tops[i].rule), tops[i].count)
		}
		fmt.Fprint(f, "</table>")
	}

	// Findings grouped by file
	if rep.Total > 0 {
		for _, fg := range rep.Files {
			fmt.Fprintf(f, "<h2 class='mono'>%s</h2>", html.EscapeString(fg.File))
			fmt.Fprint(f, "<table><tr><th>Line</th><th>Severity</th><th>Rule</th><th>Unit</th><th>Message</th></tr>")
			for _, fd := range fg.Findings {
				fmt.Fprintf(f, "<tr><td>%d</td><td>%s</td><td>%s</td><td class='mono'>%s</td><td>%s</td></tr>",
					fd.Line,
					html.EscapeString(string(fd.Severity)),
					html.EscapeString(fd.RuleID),
					html.EscapeString(fd.Unit),
					html.EscapeString(fd.Message),
				)
			}
			fmt.Fprint(f, "</table>")
		}
	} else {
		fmt.Fprint(f, "<h2>Findings</h2><p class='dim'>No findings at or above the configured threshold.</p>")
	}

	fmt.Fprint(f, "</body></html>")
	return path, nil
}

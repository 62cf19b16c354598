package reporting

import (
	"fmt"
	"io"
)

// WriteText renders the grouped report for terminals. Output order
// follows the report's own ordering, so it is deterministic.
func WriteText(w io.Writer, rep *Report) error {
	for _, fg := range rep.Files {
		if _, err := fmt.Fprintf(w, "%s\n", fg.File); err != nil {
			return err
		}
		for _, f := range fg.Findings {
			if _, err := fmt.Fprintf(w, "  %d:%d  %-7s  %s  %s\n",
				f.Line, f.Offset, f.Severity, f.RuleID, f.Message); err != nil {
				return err
			}
			if f.Evidence != "" {
				if _, err := fmt.Fprintf(w, "           evidence: %s\n", f.Evidence); err != nil {
					return err
				}
			}
		}
	}

	if _, err := fmt.Fprintf(w, "\n%d findings (%d errors, %d warnings, %d info)",
		rep.Total, rep.Counts.Errors, rep.Counts.Warnings, rep.Counts.Info); err != nil {
		return err
	}
	if rep.Waived > 0 {
		if _, err := fmt.Fprintf(w, ", %d waived", rep.Waived); err != nil {
			return err
		}
	}
	if rep.DebtMins > 0 {
		if _, err := fmt.Fprintf(w, ", ~%.0f min estimated remediation", rep.DebtMins); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

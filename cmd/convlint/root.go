package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convlint/convlint/internal/ir"
)

// thresholdExceededError signals findings at or above the severity
// threshold; main maps it to exit code 1.
type thresholdExceededError struct {
	count int
}

func (e *thresholdExceededError) Error() string {
	return fmt.Sprintf("%d findings at or above the severity threshold", e.count)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "convlint",
		Short:         "Style-convention linter for TypeScript and GraphQL codebases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLintCmd(),
		newReportCmd(),
		newDiffCmd(),
		newServeCmd(),
		newRulesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("convlint %s (ir %s)\n", version, ir.Version)
		},
	}
}

// version is stamped by the release build via -ldflags.
var version = "dev"

package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var thErr *thresholdExceededError
		if errors.As(err, &thErr) {
			os.Exit(1)
		}
		// config, usage and runtime failures all land here
		fmt.Fprintln(os.Stderr, "convlint:", err)
		os.Exit(2)
	}
}

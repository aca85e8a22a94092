package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Evaluation or check completed
	ExitCheckFailed = 1 // One or more configuration checks failed
	ExitError       = 2 // Configuration or runtime error
)

// CheckFailureError indicates that the check command ran successfully but
// one or more configuration checks failed. It is never used for evaluation
// outcomes: a REJECT decision is a successful evaluation, not an error.
type CheckFailureError struct {
	Message string
}

func (e *CheckFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var checkFailureErr *CheckFailureError
		if errors.As(err, &checkFailureErr) {
			os.Exit(ExitCheckFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}

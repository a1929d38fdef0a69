package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/steveyegge/conductor/internal/controller"
	"github.com/steveyegge/conductor/internal/types"
	"github.com/steveyegge/conductor/internal/utils"
)

// FatalError writes an error message to stderr and exits with code 1.
// Use this for fatal errors that prevent the command from completing.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
// Use this when you can provide an actionable suggestion to fix the error.
//
// Example:
//
//	FatalErrorWithHint("no active pipeline", "Run 'conductor init feature' to start one")
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
// Use this for optional operations that enhance functionality but aren't required.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// hintedError carries an actionable suggestion up to main.
type hintedError struct {
	err  error
	hint string
}

func (e *hintedError) Error() string { return e.err.Error() }
func (e *hintedError) Unwrap() error { return e.err }

func withHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &hintedError{err: err, hint: hint}
}

// errorCode maps known errors to the stable codes used in JSON error output.
func errorCode(err error) string {
	switch {
	case errors.Is(err, controller.ErrNoPipeline):
		return "no_pipeline"
	case errors.Is(err, controller.ErrPipelineActive):
		return "pipeline_active"
	case errors.Is(err, types.ErrUnknownStage):
		return "unknown_stage"
	case errors.Is(err, types.ErrUnknownPipeline):
		return "unknown_pipeline"
	case errors.Is(err, utils.ErrNoProject):
		return "no_project"
	}
	return ""
}

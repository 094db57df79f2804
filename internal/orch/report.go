package orch

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/programme-lv/harness/api"
)

// PrintSummary writes the run's single-line terminal verdict to w.
func PrintSummary(w io.Writer, summary api.RunSummary) {
	switch summary.Status {
	case api.Success:
		color.New(color.FgGreen, color.Bold).Fprintln(w, "all tests passed")
	case api.Failure:
		color.New(color.FgRed, color.Bold).Fprintf(w, "some tests failed (exit code %d)\n", summary.ExitCode)
	default:
		msg := "unknown error"
		if summary.ErrorMessage != nil {
			msg = *summary.ErrorMessage
		}
		color.New(color.FgYellow, color.Bold).Fprintf(w, "harness failure: %s\n", msg)
	}
	if summary.TeardownFailed {
		fmt.Fprintln(w, "warning: service teardown could not be confirmed")
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/tarn-lang/tarn"
	"github.com/tarn-lang/tarn/errz"
)

// checkHandler runs the analyzer over each named file and prints every
// diagnostic, then exits nonzero if any file failed.
func checkHandler(cmd *cobra.Command, args []string) {
	processGlobalFlags()
	failed := 0
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fatal(err)
		}
		_, err = tarn.Check(cmd.Context(), string(data), tarn.WithFilename(path))
		if err == nil {
			fmt.Printf("%s %s\n", color.GreenString("ok"), path)
			continue
		}
		failed++
		for _, diag := range unpackDiagnostics(err) {
			fmt.Fprintln(os.Stderr, diag)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func unpackDiagnostics(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, renderDiagnostic(e))
		}
		return out
	}
	return []string{renderDiagnostic(err)}
}

func renderDiagnostic(err error) string {
	var e *errz.Error
	if errors.As(err, &e) {
		return e.FriendlyErrorMessage()
	}
	return err.Error()
}

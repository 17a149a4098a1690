package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tarn-lang/tarn"
	"github.com/tarn-lang/tarn/dis"
)

func disHandler(cmd *cobra.Command, args []string) {
	processGlobalFlags()
	source, filename, err := getCode(cmd, args)
	if err != nil {
		fatal(err)
	}
	if source == "" {
		fatal("no code to disassemble")
	}
	program, err := tarn.Compile(cmd.Context(), source, getOptions(filename)...)
	if err != nil {
		fatal(err)
	}
	if err := dis.PrintUnit(program.Unit(), os.Stdout); err != nil {
		fatal(err)
	}
}

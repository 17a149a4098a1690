package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarn-lang/tarn"
)

func evalHandler(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		fatal("no expression given")
	}
	result, err := tarn.Eval(cmd.Context(), args[0], getOptions("")...)
	if err != nil {
		fatal(err)
	}
	format, _ := cmd.Flags().GetString("output")
	output, err := formatResult(result, format)
	if err != nil {
		fatal(err)
	}
	if output != "" {
		fmt.Println(output)
	}
}

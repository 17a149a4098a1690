package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tarn-lang/tarn"
)

func runHandler(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	source, filename, err := getCode(cmd, args)
	if err != nil {
		fatal(err)
	}
	if source == "" {
		fatal("no code to run")
	}

	start := time.Now()
	result, err := tarn.Eval(ctx, source, getOptions(filename)...)
	elapsed := time.Since(start)
	if err != nil {
		fatal(err)
	}

	output, err := formatResult(result, viper.GetString("output"))
	if err != nil {
		fatal(err)
	}
	if output != "" {
		fmt.Println(output)
	}
	if viper.GetBool("timing") {
		fmt.Fprintf(os.Stderr, "executed in %s\n", elapsed)
	}
}

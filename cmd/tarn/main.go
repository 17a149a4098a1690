// Command tarn is the command line interface for the Tarn language: it
// runs scripts, evaluates expressions, checks source files, disassembles
// compiled units, and hosts a REPL.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tarn [file]",
		Short: "Tarn is a small language with static safety checks",
		Long: "Tarn runs scripts compiled to bytecode on a garbage-collected\n" +
			"virtual machine. With no arguments it starts a REPL.",
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			processGlobalFlags()
			if shouldRunRepl(cmd, args) {
				if err := runRepl(cmd.Context()); err != nil {
					fatal(err)
				}
				return
			}
			runHandler(cmd, args)
		},
	}
	rootCmd.Flags().StringP("code", "c", "", "Code to evaluate")
	rootCmd.Flags().Bool("stdin", false, "Read code from stdin")
	rootCmd.Flags().Bool("timing", false, "Show execution time")
	rootCmd.Flags().StringP("output", "o", "", "Output format (json or text)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	must(viper.BindPFlag("code", rootCmd.Flags().Lookup("code")))
	must(viper.BindPFlag("stdin", rootCmd.Flags().Lookup("stdin")))
	must(viper.BindPFlag("timing", rootCmd.Flags().Lookup("timing")))
	must(viper.BindPFlag("output", rootCmd.Flags().Lookup("output")))
	must(viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color")))
	must(viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")))
	viper.SetEnvPrefix("tarn")
	must(viper.BindEnv("no-color", "NO_COLOR"))

	evalCmd := &cobra.Command{
		Use:     "eval [expression]",
		Aliases: []string{"e"},
		Short:   "Evaluate an expression and print the result",
		Args:    cobra.MaximumNArgs(1),
		Run:     evalHandler,
	}
	evalCmd.Flags().StringP("output", "o", "", "Output format (json or text)")
	rootCmd.AddCommand(evalCmd)

	checkCmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Check source files and report diagnostics",
		Args:  cobra.MinimumNArgs(1),
		Run:   checkHandler,
	}
	rootCmd.AddCommand(checkCmd)

	disCmd := &cobra.Command{
		Use:   "dis [file]",
		Short: "Disassemble compiled Tarn bytecode",
		Args:  cobra.MaximumNArgs(1),
		Run:   disHandler,
	}
	disCmd.Flags().StringP("code", "c", "", "Code to disassemble")
	disCmd.Flags().Bool("stdin", false, "Read code from stdin")
	rootCmd.AddCommand(disCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tarn %s (commit %s, built %s)\n", version, commit, date)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

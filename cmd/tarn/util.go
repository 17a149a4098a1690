package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tarn-lang/tarn"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/manifest"
)

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case *errz.Error:
		s = msg.FriendlyErrorMessage()
	case error:
		s = msg.Error()
	case string:
		s = msg
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintln(os.Stderr, color.RedString("%s", s))
	os.Exit(1)
}

func isTerminalIO() bool {
	stdin := os.Stdin.Fd()
	stdout := os.Stdout.Fd()
	inTerm := isatty.IsTerminal(stdin) || isatty.IsCygwinTerminal(stdin)
	outTerm := isatty.IsTerminal(stdout) || isatty.IsCygwinTerminal(stdout)
	return inTerm && outTerm
}

func shouldRunRepl(cmd *cobra.Command, args []string) bool {
	if viper.GetBool("stdin") {
		return false
	}
	if f := cmd.Flags().Lookup("code"); f != nil && f.Changed {
		return false
	}
	if len(args) > 0 {
		return false
	}
	return isTerminalIO()
}

// getCode determines what code to execute. There are three possibilities:
// --code <code>, --stdin, or a file path as args[0].
func getCode(cmd *cobra.Command, args []string) (source, filename string, err error) {
	codeFlagSet := false
	if f := cmd.Flags().Lookup("code"); f != nil && f.Changed {
		codeFlagSet = true
	}
	stdinFlagSet := false
	if f := cmd.Flags().Lookup("stdin"); f != nil && f.Changed {
		stdinFlagSet = true
	}
	pathSupplied := len(args) > 0
	if pathSupplied && (codeFlagSet || stdinFlagSet) || codeFlagSet && stdinFlagSet {
		return "", "", errors.New("multiple input sources specified")
	}
	switch {
	case stdinFlagSet:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(data), "", nil
	case pathSupplied:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	default:
		return viper.GetString("code"), "", nil
	}
}

// getOptions assembles API options from flags and, when a tarn.toml is
// found above the working directory, the project manifest.
func getOptions(filename string) []tarn.Option {
	var opts []tarn.Option
	if filename != "" {
		opts = append(opts, tarn.WithFilename(filename))
	}
	level := zerolog.WarnLevel
	if m, err := manifest.FindAndLoad("."); err == nil && m != nil {
		opts = append(opts, tarn.WithHeapConfig(m.HeapConfig()))
		level = m.LogLevel()
	}
	if viper.GetBool("verbose") {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
	opts = append(opts, tarn.WithLogger(logger))
	return opts
}

func processGlobalFlags() {
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/tarn-lang/tarn"
)

const (
	replPrompt     = ">>> "
	maxHistorySize = 500
)

// repl is a line-oriented read-eval-print loop. Submitted statements
// accumulate in the session: each evaluation compiles and runs the whole
// session so far, so earlier bindings stay visible. Execution state is
// rebuilt per line; side effects of earlier lines replay.
type repl struct {
	ctx         context.Context
	session     []string
	input       []rune
	history     []string
	historyIdx  int
	historyPath string
}

func runRepl(ctx context.Context) error {
	history, historyPath := loadHistory()
	r := &repl{
		ctx:         ctx,
		history:     history,
		historyIdx:  -1,
		historyPath: historyPath,
	}
	fmt.Printf("Tarn %s (Ctrl+D to exit)\n", version)
	r.redraw()
	defer r.saveHistory()

	return keyboard.Listen(func(key keys.Key) (bool, error) {
		switch key.Code {
		case keys.CtrlD:
			fmt.Println()
			return true, nil
		case keys.CtrlC:
			r.input = r.input[:0]
			r.historyIdx = -1
			fmt.Println()
			r.redraw()
		case keys.Enter:
			fmt.Println()
			r.submit()
			r.redraw()
		case keys.Backspace:
			if len(r.input) > 0 {
				r.input = r.input[:len(r.input)-1]
			}
			r.redraw()
		case keys.Up:
			r.recall(1)
			r.redraw()
		case keys.Down:
			r.recall(-1)
			r.redraw()
		case keys.Space:
			r.input = append(r.input, ' ')
			r.redraw()
		case keys.Tab:
			// No completion; ignore.
		case keys.RuneKey:
			r.input = append(r.input, key.Runes...)
			r.redraw()
		}
		return false, nil
	})
}

func (r *repl) redraw() {
	fmt.Printf("\r\x1b[K%s%s", replPrompt, string(r.input))
}

// recall moves through history: direction 1 is older, -1 is newer.
func (r *repl) recall(direction int) {
	next := r.historyIdx + direction
	if next < -1 || next >= len(r.history) {
		return
	}
	r.historyIdx = next
	if next == -1 {
		r.input = r.input[:0]
		return
	}
	r.input = []rune(r.history[len(r.history)-1-next])
}

func (r *repl) submit() {
	line := strings.TrimSpace(string(r.input))
	r.input = r.input[:0]
	r.historyIdx = -1
	if line == "" {
		return
	}
	r.history = append(r.history, line)

	source := strings.Join(append(append([]string{}, r.session...), line), "\n")
	result, err := tarn.Eval(r.ctx, source, getOptions("")...)
	if err != nil {
		fmt.Println(color.RedString("%s", renderDiagnostic(err)))
		return
	}
	// The line was accepted; keep it in the session.
	r.session = append(r.session, line)
	output, ferr := formatResult(result, viper.GetString("output"))
	if ferr == nil && output != "" {
		fmt.Println(output)
	}
}

func loadHistory() ([]string, string) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, ""
	}
	path := filepath.Join(home, ".tarn_history")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path
	}
	var history []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			history = append(history, line)
		}
	}
	return history, path
}

func (r *repl) saveHistory() {
	if r.historyPath == "" {
		return
	}
	history := r.history
	if len(history) > maxHistorySize {
		history = history[len(history)-maxHistorySize:]
	}
	_ = os.WriteFile(r.historyPath, []byte(strings.Join(history, "\n")+"\n"), 0600)
}

package tarn

import (
	"github.com/rs/zerolog"

	"github.com/tarn-lang/tarn/gc"
	"github.com/tarn-lang/tarn/parser"
	"github.com/tarn-lang/tarn/vm"
)

// Option configures a Tarn compilation or execution.
type Option func(*options)

type options struct {
	filename             string
	heapConfig           gc.Config
	logger               zerolog.Logger
	contextCheckInterval int
	hasInterval          bool
}

func collectOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) parserOpts() []parser.Option {
	var opts []parser.Option
	if o.filename != "" {
		opts = append(opts, parser.WithFilename(o.filename))
	}
	return opts
}

func (o *options) vmOpts() []vm.Option {
	cfg := o.heapConfig
	cfg.Logger = &o.logger
	opts := []vm.Option{
		vm.WithHeap(gc.New(cfg)),
		vm.WithLogger(o.logger),
	}
	if o.hasInterval {
		opts = append(opts, vm.WithContextCheckInterval(o.contextCheckInterval))
	}
	return opts
}

// WithFilename sets the filename used in error messages and stack traces.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithHeapConfig configures the heap each execution creates: initial
// collection threshold, growth factor, hard byte limit, and stress mode.
func WithHeapConfig(cfg gc.Config) Option {
	return func(o *options) {
		o.heapConfig = cfg
	}
}

// WithLogger sets the logger for GC cycle events and run lifecycle events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithContextCheckInterval sets the number of VM instructions between
// deterministic checks of ctx.Done(). Zero disables cancellation checking.
func WithContextCheckInterval(n int) Option {
	return func(o *options) {
		o.contextCheckInterval = n
		o.hasInterval = true
	}
}

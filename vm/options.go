package vm

import (
	"github.com/rs/zerolog"

	"github.com/tarn-lang/tarn/gc"
)

// Option configures a VM at construction time.
type Option func(*VM)

// WithHeap supplies a preconfigured heap. Without this option the VM
// creates one with default settings.
func WithHeap(heap *gc.Heap) Option {
	return func(vm *VM) {
		vm.heap = heap
	}
}

// WithLogger sets the logger used for run lifecycle events. It does not
// affect a heap supplied via WithHeap, which carries its own logger.
func WithLogger(log zerolog.Logger) Option {
	return func(vm *VM) {
		vm.log = log
	}
}

// WithContextCheckInterval sets the number of instructions between
// deterministic checks of ctx.Done(). Zero disables the check entirely,
// making execution insensitive to cancellation.
func WithContextCheckInterval(n int) Option {
	return func(vm *VM) {
		vm.contextCheckInterval = n
	}
}

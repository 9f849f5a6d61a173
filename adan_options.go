package adan

import (
	"io"

	"github.com/Cappucina/ADAN/native"
	"github.com/Cappucina/ADAN/toolchain"
	"github.com/Cappucina/ADAN/vm"
)

// Option configures an ADAN compilation, run or build.
type Option func(*options)

type options struct {
	name        string
	output      io.Writer
	observer    vm.Observer
	legacySlots bool
	toolchain   []toolchain.Option
}

func collectOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.output != nil {
		opts = append(opts, vm.WithOutput(o.output))
	}
	if o.observer != nil {
		opts = append(opts, vm.WithObserver(o.observer))
	}
	return opts
}

func (o *options) nativeOpts() []native.Option {
	var opts []native.Option
	if o.legacySlots {
		opts = append(opts, native.WithLegacySlots())
	}
	return opts
}

// WithName sets the chunk name shown in listings. The default is "main".
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithOutput sets the writer that io.print and io.printf write to when
// running bytecode.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithObserver sets an observer called before every VM instruction.
func WithObserver(observer vm.Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithLegacySlots selects the hashed 1000-slot variable layout for native
// code generation.
func WithLegacySlots() Option {
	return func(o *options) {
		o.legacySlots = true
	}
}

// WithToolchainOptions passes options to the assembler and linker driver
// used by Build and Object. This option is additive.
func WithToolchainOptions(opts ...toolchain.Option) Option {
	return func(o *options) {
		o.toolchain = append(o.toolchain, opts...)
	}
}

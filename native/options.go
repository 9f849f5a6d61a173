package native

import "github.com/Cappucina/ADAN/ast"

// Generator turns top-level expressions into assembly text for one target.
type Generator interface {
	Generate(exprs []ast.Node) (string, error)
}

// Options configures a native generator.
type Options struct {
	// LegacySlots selects the hashed 1000-slot variable layout.
	LegacySlots bool
}

// Option is a configuration function for a native generator.
type Option func(*Options)

// WithLegacySlots places variables at hash(name) mod 1000 in a fixed block,
// matching the layout of older ADAN builds. Programs whose variable names
// collide under the hash fail to compile.
func WithLegacySlots() Option {
	return func(o *Options) {
		o.LegacySlots = true
	}
}

// NewOptions applies opts to the default options.
func NewOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

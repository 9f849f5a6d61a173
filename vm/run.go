package vm

import (
	"context"

	"github.com/Cappucina/ADAN/bytecode"
)

// Run the given chunk in a new Virtual Machine.
func Run(ctx context.Context, main *bytecode.Chunk, options ...Option) error {
	return New(main, options...).Run(ctx)
}

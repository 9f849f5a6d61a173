// Package bytecode provides the immutable representation of compiled ADAN
// programs.
//
// A [Chunk] is the output of one compilation pass: a flat sequence of
// instruction words, a constant table and a name table. Chunks are created
// once by the compiler and are never modified afterwards, so a Chunk may be
// executed by several VMs at the same time.
//
// # Immutability Guarantees
//
//   - No mutation methods exist on Chunk
//   - All fields are unexported
//   - NewChunk copies its input slices to prevent caller mutation
//
// Index-based access is used for all collections:
//
//	chunk.WordAt(0)
//	chunk.ConstantAt(i)
//	chunk.NameAt(j)
//
// # Package Dependencies
//
// This package depends only on [github.com/Cappucina/ADAN/op]. Constants are
// stored as plain Go values (nil, bool, int64, float64, string) and converted
// to objects by the VM when it loads the chunk.
package bytecode

// Package adan is the entry point to the ADAN back end. It compiles
// expression trees to bytecode and runs them on the virtual machine, or
// lowers them to x86-64 or AArch64 assembly and drives the external
// assembler and linker.
//
// Trees come from an external parser, either as ast.Node values or as a
// document decoded with ast.Decode.
//
//	exprs, _ := ast.DecodeFile("program.json")
//	out, err := adan.Eval(ctx, exprs)
package adan

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/compiler"
	"github.com/Cappucina/ADAN/native"
	"github.com/Cappucina/ADAN/native/amd64"
	"github.com/Cappucina/ADAN/native/arm64"
	"github.com/Cappucina/ADAN/toolchain"
	"github.com/Cappucina/ADAN/vm"
	"golang.org/x/sync/errgroup"
)

// Compile compiles top-level expressions into an immutable chunk. The chunk
// may be run any number of times, from several goroutines.
func Compile(exprs []ast.Node, opts ...Option) (*bytecode.Chunk, error) {
	o := collectOptions(opts...)
	return compiler.Compile(exprs, &compiler.Config{Name: o.name})
}

// Run executes a compiled chunk on a fresh virtual machine. Output goes to
// the writer set with WithOutput, os.Stdout by default.
func Run(ctx context.Context, chunk *bytecode.Chunk, opts ...Option) error {
	o := collectOptions(opts...)
	return vm.Run(ctx, chunk, o.vmOpts()...)
}

// Eval compiles and runs exprs and returns everything the program printed.
// If WithOutput is also given, the output is written there as well. On a
// runtime error the output produced before the failure is returned with
// the error.
func Eval(ctx context.Context, exprs []ast.Node, opts ...Option) (string, error) {
	chunk, err := Compile(exprs, opts...)
	if err != nil {
		return "", err
	}
	o := collectOptions(opts...)
	var buf bytes.Buffer
	var out io.Writer = &buf
	if o.output != nil {
		out = io.MultiWriter(&buf, o.output)
	}
	vmOpts := append(o.vmOpts(), vm.WithOutput(out))
	err = vm.Run(ctx, chunk, vmOpts...)
	return buf.String(), err
}

// NewGenerator returns the native code generator for target.
func NewGenerator(target native.Target, opts ...Option) (native.Generator, error) {
	o := collectOptions(opts...)
	switch target.Arch {
	case native.AMD64:
		return amd64.New(target.OS, o.nativeOpts()...), nil
	case native.ARM64:
		return arm64.New(target.OS, o.nativeOpts()...), nil
	default:
		return nil, fmt.Errorf("unsupported target: %s", target)
	}
}

// Generate lowers exprs to assembly text for target.
func Generate(target native.Target, exprs []ast.Node, opts ...Option) (string, error) {
	g, err := NewGenerator(target, opts...)
	if err != nil {
		return "", err
	}
	return g.Generate(exprs)
}

// GenerateAll lowers exprs for several targets concurrently, each with its
// own generator. The first failure cancels the remaining work and no
// partial result is returned.
func GenerateAll(ctx context.Context, targets []native.Target, exprs []ast.Node, opts ...Option) (map[native.Target]string, error) {
	results := make([]string, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := Generate(target, exprs, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			results[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[native.Target]string, len(targets))
	for i, target := range targets {
		out[target] = results[i]
	}
	return out, nil
}

// Build lowers exprs for target and links the executable at output.
func Build(ctx context.Context, target native.Target, exprs []ast.Node, output string, opts ...Option) (*toolchain.Result, error) {
	text, err := Generate(target, exprs, opts...)
	if err != nil {
		return nil, err
	}
	o := collectOptions(opts...)
	return toolchain.New(target, o.toolchain...).Build(ctx, text, output)
}

// Object lowers exprs for target and assembles the object file at output
// without linking it.
func Object(ctx context.Context, target native.Target, exprs []ast.Node, output string, opts ...Option) (*toolchain.Result, error) {
	text, err := Generate(target, exprs, opts...)
	if err != nil {
		return nil, err
	}
	o := collectOptions(opts...)
	return toolchain.New(target, o.toolchain...).Object(ctx, text, output)
}

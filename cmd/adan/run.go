package main

import (
	"fmt"

	adan "github.com/Cappucina/ADAN"
	"github.com/Cappucina/ADAN/dis"
	"github.com/Cappucina/ADAN/vm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a program on the bytecode virtual machine",
		Args:  cobra.ExactArgs(1),
		RunE:  runHandler,
	}
	cmd.Flags().Bool("trace", false, "log every executed instruction at trace level")
	cmd.Flags().Bool("disassemble", false, "print the instruction listing before running")
	return cmd
}

func runHandler(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	exprs, err := readProgram(cmd, args[0])
	if err != nil {
		return err
	}
	chunk, err := adan.Compile(exprs)
	if err != nil {
		return err
	}
	if disassemble, _ := cmd.Flags().GetBool("disassemble"); disassemble {
		fmt.Fprint(cmd.OutOrStdout(), dis.Listing(chunk))
	}
	opts := []adan.Option{adan.WithOutput(cmd.OutOrStdout())}
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		opts = append(opts, adan.WithObserver(traceObserver(zerolog.Ctx(ctx))))
	}
	return adan.Run(ctx, chunk, opts...)
}

func traceObserver(logger *zerolog.Logger) vm.Observer {
	return vm.ObserverFunc(func(event vm.StepEvent) bool {
		logger.Trace().
			Int("ip", event.IP).
			Str("op", event.OpcodeName).
			Int("stack", event.StackDepth).
			Int("scope", event.ScopeDepth).
			Msg("step")
		return true
	})
}

package main

import (
	"fmt"

	adan "github.com/Cappucina/ADAN"
	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/dis"
	"github.com/spf13/cobra"
)

func newDisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis <file>",
		Short: "Disassemble the bytecode compiled from a program",
		Args:  cobra.ExactArgs(1),
		RunE:  disHandler,
	}
	cmd.Flags().StringP("output", "o", "table", "output format (table, listing or json)")
	cmd.Flags().Bool("stats", false, "print chunk statistics after the instructions")
	cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]string{"table", "listing", "json"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func disHandler(cmd *cobra.Command, args []string) error {
	exprs, err := readProgram(cmd, args[0])
	if err != nil {
		return err
	}
	chunk, err := adan.Compile(exprs)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("output")
	if err := printInstructions(cmd, chunk, format); err != nil {
		return err
	}
	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		s := chunk.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "instructions: %d, words: %d, constants: %d, names: %d, max scope depth: %d\n",
			s.InstructionCount, s.WordCount, s.ConstantCount, s.NameCount, s.MaxScopeDepth)
	}
	return nil
}

func printInstructions(cmd *cobra.Command, chunk *bytecode.Chunk, format string) error {
	switch format {
	case "listing":
		fmt.Fprint(cmd.OutOrStdout(), dis.Listing(chunk))
		return nil
	case "table", "json":
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	instructions, err := dis.Disassemble(chunk)
	if err != nil {
		return err
	}
	if format == "json" {
		data, err := getOutputJSON(instructions)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	return dis.Print(instructions, cmd.OutOrStdout())
}

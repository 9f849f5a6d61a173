package main

import (
	"encoding/json"
	"fmt"

	"github.com/Cappucina/ADAN/ast"
	"github.com/spf13/cobra"
)

func newAstCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Display the expression tree of a program",
		Args:  cobra.ExactArgs(1),
		RunE:  astHandler,
	}
	cmd.Flags().StringP("output", "o", "text", "output format (text or json)")
	cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func astHandler(cmd *cobra.Command, args []string) error {
	exprs, err := readProgram(cmd, args[0])
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "text":
		for _, expr := range exprs {
			fmt.Fprintln(cmd.OutOrStdout(), expr.String())
		}
		return nil
	case "json":
		// Round trip through the interchange encoding so the document can
		// be fed back to the other commands.
		data, err := ast.Encode(exprs)
		if err != nil {
			return err
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out, err := getOutputJSON(doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	adan "github.com/Cappucina/ADAN"
	"github.com/Cappucina/ADAN/native"
	"github.com/spf13/cobra"
)

func newAsmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asm <file>",
		Short: "Generate assembly for one or more native targets",
		Long: `Generate assembly text. With one target the text is written to the
output file, or to stdout when the output is "-". With several targets
each one is written to <output>.<target>.asm or .s, generated in parallel.`,
		Args: cobra.ExactArgs(1),
		RunE: asmHandler,
	}
	cmd.Flags().StringP("output", "o", "", "output file, or - for stdout")
	cmd.Flags().Bool("legacy-slots", false, "use the hashed 1000-slot variable layout")
	return cmd
}

func completeTargets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, target := range native.Targets() {
		names = append(names, target.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func generatorOptions(cmd *cobra.Command) []adan.Option {
	var opts []adan.Option
	if legacy, _ := cmd.Flags().GetBool("legacy-slots"); legacy {
		opts = append(opts, adan.WithLegacySlots())
	}
	return opts
}

func asmHandler(cmd *cobra.Command, args []string) error {
	targets, err := getTargets()
	if err != nil {
		return err
	}
	exprs, err := readProgram(cmd, args[0])
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	if len(targets) == 1 {
		text, err := adan.Generate(targets[0], exprs, generatorOptions(cmd)...)
		if err != nil {
			return err
		}
		if output == "" {
			output = defaultOutput(args[0], targets[0].AsmExtension())
		}
		return writeOutput(cmd, output, text)
	}

	results, err := adan.GenerateAll(cmd.Context(), targets, exprs, generatorOptions(cmd)...)
	if err != nil {
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(defaultOutput(args[0], ".asm"), ".asm")
	}
	for _, target := range targets {
		if output == "-" {
			if err := writeOutput(cmd, "-", results[target]); err != nil {
				return err
			}
			continue
		}
		path := output + "." + target.String() + target.AsmExtension()
		if err := writeOutput(cmd, path, results[target]); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(cmd *cobra.Command, path, text string) error {
	if path == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

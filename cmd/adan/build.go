package main

import (
	"fmt"

	adan "github.com/Cappucina/ADAN"
	"github.com/Cappucina/ADAN/toolchain"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Compile a program to a native executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildHandler(cmd, args, true)
		},
	}
	cmd.Flags().StringP("output", "o", "", "executable path (default is the input name without extension)")
	addToolchainFlags(cmd)
	return cmd
}

func newObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object <file>",
		Short: "Compile a program to an object file without linking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildHandler(cmd, args, false)
		},
	}
	cmd.Flags().StringP("output", "o", "", "object file path (default is the input name with .o)")
	addToolchainFlags(cmd)
	return cmd
}

func addToolchainFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Bool("save-asm", false, "keep the generated assembly and object files")
	flags.String("assembler", "", "assembler executable")
	flags.String("linker", "", "linker executable")
	flags.Bool("legacy-slots", false, "use the hashed 1000-slot variable layout")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		// build and object share the config keys, so the flags are bound
		// only for the command that runs.
		for key, name := range map[string]string{
			"toolchain.keep-temps": "save-asm",
			"toolchain.assembler":  "assembler",
			"toolchain.linker":     "linker",
		} {
			if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
				return err
			}
		}
		return nil
	}
}

func toolchainOptions() []toolchain.Option {
	opts := []toolchain.Option{toolchain.WithKeepTemps(viper.GetBool("toolchain.keep-temps"))}
	if assembler := viper.GetString("toolchain.assembler"); assembler != "" {
		opts = append(opts, toolchain.WithAssembler(assembler))
	}
	if linker := viper.GetString("toolchain.linker"); linker != "" {
		opts = append(opts, toolchain.WithLinker(linker))
	}
	return opts
}

func buildHandler(cmd *cobra.Command, args []string, link bool) error {
	ctx := cmd.Context()
	target, err := getTarget()
	if err != nil {
		return err
	}
	exprs, err := readProgram(cmd, args[0])
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		ext := ".o"
		if link {
			ext = ""
		}
		output = defaultOutput(args[0], ext)
	}

	opts := append(generatorOptions(cmd), adan.WithToolchainOptions(toolchainOptions()...))
	build := adan.Object
	if link {
		build = adan.Build
	}
	result, err := build(ctx, target, exprs, output, opts...)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Str("build_id", result.BuildID).
		Str("target", target.String()).
		Str("output", result.Output).
		Msg("build finished")
	if viper.GetBool("toolchain.keep-temps") {
		fmt.Fprintf(cmd.ErrOrStderr(), "kept build files in %s\n", result.WorkDir)
	}
	return nil
}

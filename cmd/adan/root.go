package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configName = ".adan"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adan",
		Short: "Compile and run ADAN expression trees",
		Long: `adan runs ADAN programs on the bytecode virtual machine, or compiles them
to x86-64 or AArch64 assembly and links native executables.

Programs are read as expression tree documents in JSON or YAML, as produced
by the ADAN parser. Use "-" to read a document from stdin.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default is .adan.yaml in the working or home directory)")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.Bool("no-color", false, "disable colored output")
	flags.String("format", "", "input document format when reading stdin (json or yaml)")
	flags.StringP("target", "t", "", "native targets, comma separated (default is the host)")
	viper.BindPFlag("config", flags.Lookup("config"))
	viper.BindPFlag("log-level", flags.Lookup("log-level"))
	viper.BindPFlag("no-color", flags.Lookup("no-color"))
	viper.BindPFlag("format", flags.Lookup("format"))
	viper.BindPFlag("target", flags.Lookup("target"))
	cmd.RegisterFlagCompletionFunc("target", completeTargets)

	cmd.AddCommand(
		newRunCmd(),
		newDisCmd(),
		newAsmCmd(),
		newBuildCmd(),
		newObjectCmd(),
		newAstCmd(),
		newVersionCmd(),
	)
	return cmd
}

// setup loads configuration, applies the global flags and attaches the
// logger to the command context.
func setup(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}
	if viper.GetBool("no-color") || !isTerminal(cmd.OutOrStdout()) {
		color.NoColor = true
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}

func initConfig() error {
	viper.SetEnvPrefix("ADAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		return nil
	}
	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(filepath.Clean(home))
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %q", viper.GetString("log-level"))
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: color.NoColor}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

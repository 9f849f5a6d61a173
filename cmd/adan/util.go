package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/native"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var red = color.New(color.FgRed).SprintFunc()

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s\n", red(err.Error()))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// readProgram loads the expression tree document named by path, or stdin
// when path is "-".
func readProgram(cmd *cobra.Command, path string) ([]ast.Node, error) {
	if path != "-" {
		return ast.DecodeFile(path)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	format := ast.FormatJSON
	if f := viper.GetString("format"); f != "" {
		format = ast.Format(strings.ToLower(f))
	}
	return ast.Decode(data, format)
}

// getTargets resolves the target setting, a comma separated list of target
// names. An empty setting selects the host.
func getTargets() ([]native.Target, error) {
	setting := strings.TrimSpace(viper.GetString("target"))
	if setting == "" {
		host, err := native.HostTarget()
		if err != nil {
			return nil, err
		}
		return []native.Target{host}, nil
	}
	var targets []native.Target
	seen := map[native.Target]bool{}
	for _, name := range strings.Split(setting, ",") {
		target, err := native.ParseTarget(name)
		if err != nil {
			return nil, err
		}
		if !seen[target] {
			seen[target] = true
			targets = append(targets, target)
		}
	}
	return targets, nil
}

func getTarget() (native.Target, error) {
	targets, err := getTargets()
	if err != nil {
		return native.Target{}, err
	}
	if len(targets) > 1 {
		return native.Target{}, fmt.Errorf("expected a single target, got %d", len(targets))
	}
	return targets[0], nil
}

// defaultOutput derives an output path from the input path by replacing
// its extension. A name that would equal the input's gets ".out" appended.
func defaultOutput(input, ext string) string {
	if input == "-" {
		return "a" + ext
	}
	base := filepath.Base(input)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ext
	if name == base {
		name += ".out"
	}
	return name
}

func getOutputJSON(v any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(v, "", "  ")
	}
	return prettyjson.Marshal(v)
}

var outputFormatsCompletion = []string{"text", "json"}

package toolchain

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cappucina/ADAN/native"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

// fakeRunner records commands and fails the tools named in fail.
type fakeRunner struct {
	commands []Command
	fail     map[string]int
	// assembly holds the contents of the first .asm or .s argument seen.
	assembly string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	r.commands = append(r.commands, Command{Tool: name, Args: args})
	for _, arg := range args {
		if r.assembly == "" && (strings.HasSuffix(arg, ".asm") || strings.HasSuffix(arg, ".s")) {
			data, err := os.ReadFile(arg)
			if err != nil {
				return err
			}
			r.assembly = string(data)
		}
	}
	if code, ok := r.fail[name]; ok {
		return &ToolError{Tool: name, Args: args, ExitCode: code, Stderr: name + " broke"}
	}
	return nil
}

func tools(cmds []Command) []string {
	var names []string
	for _, cmd := range cmds {
		names = append(names, cmd.Tool)
	}
	return names
}

func buildDirs(t *testing.T, parent string) []string {
	entries, err := os.ReadDir(parent)
	require.Nil(t, err)
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "adan-") {
			dirs = append(dirs, entry.Name())
		}
	}
	return dirs
}

func TestBuildLinuxAMD64(t *testing.T) {
	work := t.TempDir()
	runner := &fakeRunner{}
	tc := New(native.X86_64Linux, WithRunner(runner), WithWorkDir(work))

	result, err := tc.Build(context.Background(), "; program\n", "/out/prog")
	require.Nil(t, err)
	require.Equal(t, "; program\n", runner.assembly)
	require.Equal(t, []Command{
		{"nasm", []string{"-f", "elf64", result.AsmPath, "-o", result.ObjPath}},
		{"gcc", []string{result.ObjPath, "-o", "/out/prog", "-no-pie"}},
	}, runner.commands)
	require.Equal(t, filepath.Join(work, "adan-"+result.BuildID), result.WorkDir)
	require.True(t, strings.HasSuffix(result.AsmPath, "program.asm"))
	require.Equal(t, "/out/prog", result.Output)

	// Temporaries are removed.
	require.Empty(t, buildDirs(t, work))
}

func TestLinkerFallback(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"gcc": 1}}
	tc := New(native.X86_64Linux, WithRunner(runner), WithWorkDir(t.TempDir()))
	_, err := tc.Build(context.Background(), "", "prog")
	require.Nil(t, err)
	require.Equal(t, []string{"nasm", "gcc", "ld"}, tools(runner.commands))
	require.Equal(t, []string{"-dynamic-linker", "/lib64/ld-linux-x86-64.so.2"}, runner.commands[2].Args[:2])
}

func TestBothLinkersFail(t *testing.T) {
	work := t.TempDir()
	runner := &fakeRunner{fail: map[string]int{"gcc": 1, "ld": 2}}
	tc := New(native.X86_64Linux, WithRunner(runner), WithWorkDir(work))
	result, err := tc.Build(context.Background(), "", "prog")
	require.Nil(t, result)
	require.NotNil(t, err)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	require.Len(t, merr.Errors, 2)
	require.Contains(t, err.Error(), "gcc failed with exit status 1: gcc broke")
	require.Contains(t, err.Error(), "ld failed with exit status 2: ld broke")

	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	require.Equal(t, "gcc", toolErr.Tool)

	// Temporaries are removed on failure too.
	require.Empty(t, buildDirs(t, work))
}

func TestAssemblerFailureStopsBuild(t *testing.T) {
	runner := &fakeRunner{fail: map[string]int{"nasm": 1}}
	tc := New(native.X86_64MacOS, WithRunner(runner), WithWorkDir(t.TempDir()))
	_, err := tc.Build(context.Background(), "", "prog")
	require.NotNil(t, err)
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	require.Equal(t, 1, toolErr.ExitCode)
	require.Equal(t, []string{"nasm"}, tools(runner.commands))
}

func TestKeepTemps(t *testing.T) {
	work := t.TempDir()
	tc := New(native.AArch64MacOS, WithRunner(&fakeRunner{}), WithWorkDir(work), WithKeepTemps(true))
	result, err := tc.Build(context.Background(), "// arm\n", "prog")
	require.Nil(t, err)
	require.Len(t, buildDirs(t, work), 1)
	data, err := os.ReadFile(result.AsmPath)
	require.Nil(t, err)
	require.Equal(t, "// arm\n", string(data))
	require.True(t, strings.HasSuffix(result.AsmPath, "program.s"))
}

func TestObjectSkipsLinking(t *testing.T) {
	runner := &fakeRunner{}
	tc := New(native.X86_64Linux, WithRunner(runner), WithWorkDir(t.TempDir()))
	result, err := tc.Object(context.Background(), "", "prog.o")
	require.Nil(t, err)
	require.Equal(t, "prog.o", result.ObjPath)
	require.Equal(t, []Command{
		{"nasm", []string{"-f", "elf64", result.AsmPath, "-o", "prog.o"}},
	}, runner.commands)
}

func TestCommandsPerTarget(t *testing.T) {
	tests := []struct {
		target   native.Target
		assemble Command
		link     []Command
	}{
		{
			native.X86_64MacOS,
			Command{"nasm", []string{"-f", "macho64", "a", "-o", "o"}},
			[]Command{{"clang", []string{"-arch", "x86_64", "o", "-o", "x", "-e", "_main"}}},
		},
		{
			native.AArch64MacOS,
			Command{"clang", []string{"-c", "-arch", "arm64", "a", "-o", "o"}},
			[]Command{{"clang", []string{"-arch", "arm64", "o", "-o", "x"}}},
		},
		{
			native.AArch64Linux,
			Command{"as", []string{"a", "-o", "o"}},
			[]Command{{"gcc", []string{"o", "-o", "x"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			tc := New(tt.target)
			require.Equal(t, tt.assemble, tc.AssembleCommand("a", "o"))
			require.Equal(t, tt.link, tc.LinkCommands("o", "x"))
		})
	}
}

func TestToolOverrides(t *testing.T) {
	tc := New(native.X86_64Linux, WithAssembler("yasm"), WithLinker("cc"))
	require.Equal(t, "yasm", tc.AssembleCommand("a", "o").Tool)
	require.Equal(t, []Command{{"cc", []string{"o", "-o", "x", "-no-pie"}}}, tc.LinkCommands("o", "x"))
}

func TestToolErrorMessage(t *testing.T) {
	err := &ToolError{Tool: "nasm", ExitCode: 1, Stderr: "error: bad"}
	require.Equal(t, "nasm failed with exit status 1: error: bad", err.Error())

	err = &ToolError{Tool: "nasm", ExitCode: -1, Err: exec.ErrNotFound}
	require.Equal(t, "nasm failed: executable file not found in $PATH", err.Error())
	require.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var runner ExecRunner
	require.Nil(t, runner.Run(context.Background(), "sh", "-c", "exit 0"))

	err := runner.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	var toolErr *ToolError
	require.True(t, errors.As(err, &toolErr))
	require.Equal(t, 3, toolErr.ExitCode)
	require.Equal(t, "oops", toolErr.Stderr)
	require.Equal(t, []string{"-c", "echo oops >&2; exit 3"}, toolErr.Args)
}

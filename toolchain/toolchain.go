// Package toolchain assembles and links generated assembly with the host's
// external tools: nasm or the system assembler, then gcc, ld or clang.
//
// Every build works in its own temporary directory named after a random
// build id. The directory is removed when the build finishes, whether it
// succeeded or not, unless temporaries are kept.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Cappucina/ADAN/native"
	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Command is one external tool invocation.
type Command struct {
	Tool string
	Args []string
}

// Toolchain drives the assembler and linker for one target.
type Toolchain struct {
	target    native.Target
	runner    Runner
	assembler string
	linker    string
	keepTemps bool
	workDir   string
}

// Option is a configuration function for a Toolchain.
type Option func(*Toolchain)

// WithRunner replaces the subprocess runner, mainly for tests.
func WithRunner(runner Runner) Option {
	return func(t *Toolchain) {
		t.runner = runner
	}
}

// WithAssembler overrides the assembler executable. The arguments are the
// same as for the default assembler, so a compatible tool is required.
func WithAssembler(name string) Option {
	return func(t *Toolchain) {
		t.assembler = name
	}
}

// WithLinker overrides the linker executable. An explicit linker disables
// the fallback linker on x86-64 Linux.
func WithLinker(name string) Option {
	return func(t *Toolchain) {
		t.linker = name
	}
}

// WithKeepTemps keeps the build directory with the assembly and object
// files.
func WithKeepTemps(keep bool) Option {
	return func(t *Toolchain) {
		t.keepTemps = keep
	}
}

// WithWorkDir sets the parent directory of build directories. The default
// is os.TempDir().
func WithWorkDir(dir string) Option {
	return func(t *Toolchain) {
		t.workDir = dir
	}
}

// New returns a toolchain for target.
func New(target native.Target, opts ...Option) *Toolchain {
	t := &Toolchain{target: target, runner: ExecRunner{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Result describes the files produced by a build.
type Result struct {
	BuildID string
	// WorkDir is the build directory. It no longer exists unless
	// temporaries were kept.
	WorkDir string
	AsmPath string
	ObjPath string
	// Output is the executable or object file written for the caller.
	Output string
}

// AssembleCommand returns the command turning asm into the object file obj.
func (t *Toolchain) AssembleCommand(asm, obj string) Command {
	var cmd Command
	switch {
	case t.target.Arch == native.AMD64 && t.target.OS == native.MacOS:
		cmd = Command{"nasm", []string{"-f", "macho64", asm, "-o", obj}}
	case t.target.Arch == native.AMD64:
		cmd = Command{"nasm", []string{"-f", "elf64", asm, "-o", obj}}
	case t.target.OS == native.MacOS:
		cmd = Command{"clang", []string{"-c", "-arch", "arm64", asm, "-o", obj}}
	default:
		cmd = Command{"as", []string{asm, "-o", obj}}
	}
	if t.assembler != "" {
		cmd.Tool = t.assembler
	}
	return cmd
}

// LinkCommands returns the commands that can link obj into the executable
// out, in the order they are tried.
func (t *Toolchain) LinkCommands(obj, out string) []Command {
	var cmds []Command
	switch {
	case t.target.Arch == native.AMD64 && t.target.OS == native.MacOS:
		cmds = []Command{{"clang", []string{"-arch", "x86_64", obj, "-o", out, "-e", "_main"}}}
	case t.target.Arch == native.AMD64:
		cmds = []Command{
			{"gcc", []string{obj, "-o", out, "-no-pie"}},
			{"ld", []string{"-dynamic-linker", "/lib64/ld-linux-x86-64.so.2", obj, "-lc", "-o", out}},
		}
	case t.target.OS == native.MacOS:
		cmds = []Command{{"clang", []string{"-arch", "arm64", obj, "-o", out}}}
	default:
		cmds = []Command{{"gcc", []string{obj, "-o", out}}}
	}
	if t.linker != "" {
		cmds = []Command{{t.linker, cmds[0].Args}}
	}
	return cmds
}

// Build assembles asm and links it into the executable at output.
func (t *Toolchain) Build(ctx context.Context, asm, output string) (*Result, error) {
	return t.build(ctx, asm, output, true)
}

// Object assembles asm into the object file at output without linking.
func (t *Toolchain) Object(ctx context.Context, asm, output string) (*Result, error) {
	return t.build(ctx, asm, output, false)
}

func (t *Toolchain) build(ctx context.Context, asm, output string, link bool) (result *Result, err error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("creating build id: %w", err)
	}
	logger := zerolog.Ctx(ctx).With().
		Str("build_id", id.String()).
		Str("target", t.target.String()).
		Logger()

	parent := t.workDir
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "adan-"+id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating build directory: %w", err)
	}
	defer func() {
		if t.keepTemps {
			logger.Debug().Str("dir", dir).Msg("keeping build directory")
			return
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			err = multierror.Append(err, fmt.Errorf("removing build directory: %w", rmErr))
			result = nil
		}
	}()

	res := &Result{
		BuildID: id.String(),
		WorkDir: dir,
		AsmPath: filepath.Join(dir, "program"+t.target.AsmExtension()),
		ObjPath: filepath.Join(dir, "program.o"),
		Output:  output,
	}
	if !link {
		res.ObjPath = output
	}
	if err := os.WriteFile(res.AsmPath, []byte(asm), 0o644); err != nil {
		return nil, fmt.Errorf("writing assembly: %w", err)
	}

	if err := t.run(ctx, logger, t.AssembleCommand(res.AsmPath, res.ObjPath)); err != nil {
		return nil, err
	}
	if !link {
		return res, nil
	}

	var linkErr *multierror.Error
	for _, cmd := range t.LinkCommands(res.ObjPath, output) {
		err := t.run(ctx, logger, cmd)
		if err == nil {
			return res, nil
		}
		linkErr = multierror.Append(linkErr, err)
	}
	return nil, linkErr.ErrorOrNil()
}

func (t *Toolchain) run(ctx context.Context, logger zerolog.Logger, cmd Command) error {
	start := time.Now()
	err := t.runner.Run(ctx, cmd.Tool, cmd.Args...)
	event := logger.Debug()
	if err != nil {
		event = logger.Error().Err(err)
	}
	event.Str("tool", cmd.Tool).
		Strs("args", cmd.Args).
		Dur("duration", time.Since(start)).
		Msg("external tool")
	return err
}

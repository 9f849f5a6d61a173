package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes an external tool and waits for it to finish.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs tools as subprocesses.
type ExecRunner struct{}

// Run executes name with args. A failed run is reported as a *ToolError
// carrying the exit status and whatever the tool wrote.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &output
	cmd.Stderr = &output
	err := cmd.Run()
	if err == nil {
		return nil
	}
	toolErr := &ToolError{
		Tool:     name,
		Args:     args,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(output.String()),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	return toolErr
}

// ToolError reports a failed assembler or linker invocation.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the tool could not be started
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Tool)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&sb, " failed with exit status %d", e.ExitCode)
	} else if e.Err != nil {
		fmt.Fprintf(&sb, " failed: %v", e.Err)
	} else {
		sb.WriteString(" failed")
	}
	if e.Stderr != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Stderr)
	}
	return sb.String()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

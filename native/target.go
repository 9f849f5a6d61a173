// Package native holds the infrastructure shared by the ADAN native code
// generators: compilation targets, the assembly output buffer, literal pools,
// static value types and the per-compilation symbol table.
package native

import (
	"fmt"
	"runtime"
	"strings"
)

// Arch is a target instruction set.
type Arch string

const (
	AMD64 Arch = "x86_64"
	ARM64 Arch = "aarch64"
)

// OS is a target operating system. It decides symbol naming, relocation
// syntax and calling convention details.
type OS string

const (
	Linux OS = "linux"
	MacOS OS = "macos"
)

// Target identifies the platform a program is compiled for.
type Target struct {
	Arch Arch
	OS   OS
}

var (
	X86_64Linux  = Target{Arch: AMD64, OS: Linux}
	X86_64MacOS  = Target{Arch: AMD64, OS: MacOS}
	AArch64MacOS = Target{Arch: ARM64, OS: MacOS}
	AArch64Linux = Target{Arch: ARM64, OS: Linux}
)

var targetAliases = map[string]Target{
	"x86_64-linux":  X86_64Linux,
	"x86-64-linux":  X86_64Linux,
	"linux":         X86_64Linux,
	"x86_64-macos":  X86_64MacOS,
	"x86-64-macos":  X86_64MacOS,
	"macos":         X86_64MacOS,
	"aarch64-macos": AArch64MacOS,
	"arm64-macos":   AArch64MacOS,
	"apple-silicon": AArch64MacOS,
	"aarch64-linux": AArch64Linux,
	"arm64-linux":   AArch64Linux,
}

// Targets returns every supported target in a stable order.
func Targets() []Target {
	return []Target{X86_64Linux, X86_64MacOS, AArch64MacOS, AArch64Linux}
}

// String returns the canonical name, e.g. "x86_64-linux".
func (t Target) String() string {
	return string(t.Arch) + "-" + string(t.OS)
}

// AsmExtension returns the file extension for the target's assembly: ".asm"
// for NASM sources and ".s" for GNU as sources.
func (t Target) AsmExtension() string {
	if t.Arch == AMD64 {
		return ".asm"
	}
	return ".s"
}

// ParseTarget resolves a target name or one of its aliases. Matching is case
// insensitive.
func ParseTarget(name string) (Target, error) {
	if t, ok := targetAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	names := make([]string, 0, len(Targets()))
	for _, t := range Targets() {
		names = append(names, t.String())
	}
	return Target{}, fmt.Errorf("unknown target %q (supported: %s)",
		name, strings.Join(names, ", "))
}

// HostTarget returns the target matching the running machine.
func HostTarget() (Target, error) {
	return targetFor(runtime.GOOS, runtime.GOARCH)
}

func targetFor(goos, goarch string) (Target, error) {
	var t Target
	switch goarch {
	case "amd64":
		t.Arch = AMD64
	case "arm64":
		t.Arch = ARM64
	default:
		return Target{}, fmt.Errorf("unsupported host architecture: %s", goarch)
	}
	switch goos {
	case "linux":
		t.OS = Linux
	case "darwin":
		t.OS = MacOS
	default:
		return Target{}, fmt.Errorf("unsupported host operating system: %s", goos)
	}
	return t, nil
}

package vm

import (
	"github.com/Cappucina/ADAN/op"
)

// Observer is an interface for observing VM execution. Implementations can
// be used for tracing or profiling without modifying the VM.
//
// OnStep is called synchronously before each instruction executes, so
// implementations should be fast. Returning false halts execution.
type Observer interface {
	OnStep(event StepEvent) bool
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// IP is the word offset of the instruction.
	IP int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// StackDepth is the current depth of the value stack.
	StackDepth int

	// ScopeDepth is the current depth of the environment chain.
	ScopeDepth int
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event StepEvent) bool

func (f ObserverFunc) OnStep(event StepEvent) bool { return f(event) }

// NoOpObserver is an Observer implementation that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) OnStep(StepEvent) bool { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}

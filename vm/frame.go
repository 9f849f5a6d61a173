package vm

import (
	"sort"

	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/object"
)

// frame is one level of the environment chain.
type frame map[string]object.Object

// Env is the chain of variable frames visible to a running program. Frame
// zero is the global table; blocks push and pop frames above it.
type Env struct {
	frames []frame
}

// NewEnv returns an environment holding only an empty global frame.
func NewEnv() *Env {
	return &Env{frames: []frame{{}}}
}

// Depth returns the number of frames, including the global frame.
func (e *Env) Depth() int {
	return len(e.frames)
}

// Push enters a new innermost frame.
func (e *Env) Push() {
	e.frames = append(e.frames, frame{})
}

// Pop discards the innermost frame. The global frame cannot be popped.
func (e *Env) Pop() error {
	if len(e.frames) == 1 {
		return errz.New(errz.ErrRuntime, errz.ErrStackUnderflow, "scope underflow")
	}
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]
	return nil
}

// Get resolves name from the innermost frame outward.
func (e *Env) Get(name string) (object.Object, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if value, ok := e.frames[i][name]; ok {
			return value, true
		}
	}
	return nil, false
}

// Set rebinds name in the innermost frame that already binds it. A name no
// frame binds is created in the global frame.
func (e *Env) Set(name string, value object.Object) {
	for i := len(e.frames) - 1; i > 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			e.frames[i][name] = value
			return
		}
	}
	e.frames[0][name] = value
}

// DeclareLocal binds name in the innermost frame, shadowing outer bindings.
func (e *Env) DeclareLocal(name string, value object.Object) {
	e.frames[len(e.frames)-1][name] = value
}

// DeclareGlobal binds name in the global frame.
func (e *Env) DeclareGlobal(name string, value object.Object) {
	e.frames[0][name] = value
}

// GlobalNames returns the sorted names bound in the global frame.
func (e *Env) GlobalNames() []string {
	names := make([]string, 0, len(e.frames[0]))
	for name := range e.frames[0] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

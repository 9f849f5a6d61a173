// Package vm provides a VirtualMachine that executes compiled ADAN bytecode.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/object"
	"github.com/Cappucina/ADAN/op"
)

const (
	// InitialStackSize is the starting capacity of the value stack. The
	// stack grows past it as needed.
	InitialStackSize = 1024

	// DefaultContextCheckInterval is the number of instructions between
	// checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

var ErrGlobalNotFound = errors.New("global not found")

type VirtualMachine struct {
	ip        int // instruction pointer
	sp        int // stack pointer
	main      *bytecode.Chunk
	constants []object.Object
	env       *Env
	out       io.Writer
	running   bool
	runMutex  sync.Mutex
	stack     []object.Object

	// contextCheckInterval is the number of instructions between checks of
	// ctx.Done(). A value of 0 disables checking.
	contextCheckInterval int

	// observer is called before each instruction. If nil, no callbacks are
	// made.
	observer Observer
}

// New creates a new Virtual Machine that will execute main.
func New(main *bytecode.Chunk, options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		sp:                   -1,
		main:                 main,
		stack:                make([]object.Object, InitialStackSize),
		env:                  NewEnv(),
		out:                  os.Stdout,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	return vm
}

func (vm *VirtualMachine) start() error {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return fmt.Errorf("vm is already running")
	}
	vm.running = true
	return nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

// Run executes the chunk from its first instruction until HALT or the end of
// the instruction sequence. Each run starts with an empty stack and an empty
// global table. The first error aborts the run; output already written stays
// written.
func (vm *VirtualMachine) Run(ctx context.Context) (err error) {
	if vm.main == nil {
		return fmt.Errorf("no main code available")
	}
	// Set up some guarantees:
	// 1. It is an error to call Run on a VM that is already running
	// 2. The running flag will always be set to false when Run returns
	// 3. Any panics are translated to errors and the VM is stopped
	if err := vm.start(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		vm.stop()
	}()

	vm.reset()
	if err := vm.loadConstants(); err != nil {
		return err
	}
	return vm.eval(ctx)
}

func (vm *VirtualMachine) reset() {
	for i := 0; i <= vm.sp; i++ {
		vm.stack[i] = nil
	}
	vm.ip = 0
	vm.sp = -1
	vm.env = NewEnv()
}

func (vm *VirtualMachine) loadConstants() error {
	vm.constants = make([]object.Object, vm.main.ConstantCount())
	for i := range vm.constants {
		obj, err := object.FromGoType(vm.main.ConstantAt(i))
		if err != nil {
			return err
		}
		vm.constants[i] = obj
	}
	return nil
}

// Get a global variable by name.
func (vm *VirtualMachine) Get(name string) (object.Object, error) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if value, ok := vm.env.frames[0][name]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrGlobalNotFound, name)
}

// GlobalNames returns the sorted names of all global variables.
func (vm *VirtualMachine) GlobalNames() []string {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	return vm.env.GlobalNames()
}

// Evaluate the main chunk starting at vm.ip.
func (vm *VirtualMachine) eval(ctx context.Context) error {
	var instructionCount int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for vm.ip < vm.main.Len() {

		// Periodic check of ctx.Done()
		if checkInterval > 0 && doneChan != nil {
			instructionCount++
			if instructionCount >= checkInterval {
				instructionCount = 0
				select {
				case <-doneChan:
					return ctx.Err()
				default:
				}
			}
		}

		// The current instruction opcode
		opcode := vm.main.WordAt(vm.ip)

		if vm.observer != nil {
			event := StepEvent{
				IP:         vm.ip,
				Opcode:     opcode,
				OpcodeName: op.GetInfo(opcode).Name,
				StackDepth: vm.sp + 1,
				ScopeDepth: vm.env.Depth(),
			}
			if !vm.observer.OnStep(event) {
				return fmt.Errorf("execution halted by observer")
			}
		}

		// Advance the instruction pointer before executing the instruction.
		vm.ip++

		switch opcode {
		case op.Nop:
		case op.LoadConst:
			if err := vm.push(vm.constants[vm.fetch()]); err != nil {
				return err
			}
		case op.LoadGlobal:
			name := vm.main.NameAt(int(vm.fetch()))
			value, ok := vm.env.Get(name)
			if !ok {
				return errz.New(errz.ErrName, errz.ErrUndefinedVariable,
					"undefined variable: %s", name)
			}
			if err := vm.push(value); err != nil {
				return err
			}
		case op.StoreGlobal, op.DeclareLocal, op.DeclareGlobal:
			name := vm.main.NameAt(int(vm.fetch()))
			value, err := vm.peek()
			if err != nil {
				return err
			}
			switch opcode {
			case op.StoreGlobal:
				vm.env.Set(name, value)
			case op.DeclareLocal:
				vm.env.DeclareLocal(name, value)
			default:
				vm.env.DeclareGlobal(name, value)
			}
		case op.EnterScope:
			vm.env.Push()
		case op.ExitScope:
			if err := vm.env.Pop(); err != nil {
				return err
			}
		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			a, b, err := vm.popOperands()
			if err != nil {
				return err
			}
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return err
			}
			if err := vm.push(result); err != nil {
				return err
			}
		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			a, b, err := vm.popOperands()
			if err != nil {
				return err
			}
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return err
			}
			if err := vm.push(result); err != nil {
				return err
			}
		case op.PopTop:
			if _, err := vm.pop(); err != nil {
				return err
			}
		case op.Print, op.PrintFormat:
			if err := vm.print(opcode == op.Print); err != nil {
				return err
			}
		case op.Halt:
			return nil
		default:
			return vm.evalError("unknown opcode: %d", opcode)
		}
	}
	return nil
}

// print pops the argument count and then the arguments, and writes them in
// their original order. PRINT separates arguments with spaces and ends the
// line; PRINT_FORMAT writes them back to back.
func (vm *VirtualMachine) print(newline bool) error {
	countObj, err := vm.pop()
	if err != nil {
		return err
	}
	count, err := object.AsInt(countObj)
	if err != nil {
		return err
	}
	if count < 0 {
		return vm.evalError("invalid argument count: %d", count)
	}
	if count > int64(vm.sp+1) {
		return errz.New(errz.ErrRuntime, errz.ErrStackUnderflow, "stack underflow")
	}
	parts := make([]string, count)
	for i := int(count) - 1; i >= 0; i-- {
		value, _ := vm.pop()
		parts[i] = value.Inspect()
	}
	var text string
	if newline {
		text = strings.Join(parts, " ") + "\n"
	} else {
		text = strings.Join(parts, "")
	}
	if _, err := io.WriteString(vm.out, text); err != nil {
		return errz.New(errz.ErrRuntime, err, "write failed: %v", err)
	}
	return vm.push(object.Nil)
}

// TOS returns the top-of-stack object if there is one, without modifying the
// stack. This only works on a stopped VM. If the VM is running, (nil, false)
// is returned.
func (vm *VirtualMachine) TOS() (object.Object, bool) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if !vm.running && vm.sp >= 0 {
		return vm.stack[vm.sp], true
	}
	return nil, false
}

func (vm *VirtualMachine) pop() (object.Object, error) {
	if vm.sp < 0 {
		return nil, errz.New(errz.ErrRuntime, errz.ErrStackUnderflow, "stack underflow")
	}
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj, nil
}

// popOperands pops the right operand and then the left one.
func (vm *VirtualMachine) popOperands() (object.Object, object.Object, error) {
	if vm.sp < 1 {
		return nil, nil, errz.New(errz.ErrRuntime, errz.ErrStackUnderflow, "stack underflow")
	}
	b, _ := vm.pop()
	a, _ := vm.pop()
	return a, b, nil
}

func (vm *VirtualMachine) peek() (object.Object, error) {
	if vm.sp < 0 {
		return nil, errz.New(errz.ErrRuntime, errz.ErrStackUnderflow, "stack underflow")
	}
	return vm.stack[vm.sp], nil
}

func (vm *VirtualMachine) push(obj object.Object) error {
	vm.sp++
	if vm.sp == len(vm.stack) {
		vm.stack = append(vm.stack, obj)
		return nil
	}
	vm.stack[vm.sp] = obj
	return nil
}

func (vm *VirtualMachine) fetch() uint16 {
	ip := vm.ip
	vm.ip++
	return uint16(vm.main.WordAt(ip))
}

// evalError creates a runtime error.
func (vm *VirtualMachine) evalError(format string, args ...any) *errz.StructuredError {
	return errz.New(errz.ErrRuntime, nil, format, args...)
}

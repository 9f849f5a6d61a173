package native

import (
	"sort"

	"github.com/Cappucina/ADAN/errz"
)

const (
	// LegacySlotCount is the size of the fixed variable block used by the
	// hashed storage layout.
	LegacySlotCount = 1000

	// SlotSize is the size in bytes of one variable slot.
	SlotSize = 8
)

// LegacySlot returns the slot the hashed storage layout assigns to name:
// h = h*31 + b over the bytes of name, wrapping at 64 bits, modulo 1000.
func LegacySlot(name string) int {
	var h uint64
	for i := 0; i < len(name); i++ {
		h = h*31 + uint64(name[i])
	}
	return int(h % LegacySlotCount)
}

// Symbol is a variable bound during native generation.
type Symbol struct {
	Name string
	Slot int
	// Type is the static type of the value most recently stored. Generated
	// code is straight-line, so this is exact at every read.
	Type Type
}

// Offset returns the byte offset of the symbol's slot in variable storage.
func (s *Symbol) Offset() int {
	return s.Slot * SlotSize
}

// SymbolTable maps variable names to storage slots for one compilation.
// Scopes mirror the environment chain of the bytecode VM: scope zero holds
// globals and each block pushes a scope above it.
type SymbolTable struct {
	scopes  [][]*Symbol
	slots   int
	legacy  bool
	owners  map[int]string
	seen    map[string]bool
	ordered []string
}

// NewSymbolTable returns a table holding only the global scope. When legacy
// is true slots come from LegacySlot instead of being allocated in order.
// Two names landing on the same slot are rejected, and so is a second live
// binding of one name in another scope.
func NewSymbolTable(legacy bool) *SymbolTable {
	return &SymbolTable{
		scopes: [][]*Symbol{nil},
		legacy: legacy,
		owners: map[int]string{},
		seen:   map[string]bool{},
	}
}

// PushScope enters a block scope.
func (t *SymbolTable) PushScope() {
	t.scopes = append(t.scopes, nil)
}

// PopScope leaves the innermost block scope. Slots are not reused.
func (t *SymbolTable) PopScope() {
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// Depth returns the number of scopes, including the global scope.
func (t *SymbolTable) Depth() int {
	return len(t.scopes)
}

func lookup(scope []*Symbol, name string) *Symbol {
	for _, sym := range scope {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// Resolve finds name from the innermost scope outward.
func (t *SymbolTable) Resolve(name string) (*Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym := lookup(t.scopes[i], name); sym != nil {
			return sym, true
		}
	}
	return nil, false
}

// Read resolves a variable read. Reading a name that was never bound is an
// error.
func (t *SymbolTable) Read(name string) (*Symbol, error) {
	sym, ok := t.Resolve(name)
	if !ok {
		return nil, errz.New(errz.ErrName, errz.ErrUndefinedVariable,
			"undefined variable: %s", name)
	}
	return sym, nil
}

// Assign rebinds the innermost symbol named name, or binds it in the global
// scope when no scope has it.
func (t *SymbolTable) Assign(name string, typ Type) (*Symbol, error) {
	if sym, ok := t.Resolve(name); ok {
		sym.Type = typ
		return sym, nil
	}
	return t.bind(0, name, typ)
}

// DeclareLocal binds name in the innermost scope, shadowing outer bindings.
func (t *SymbolTable) DeclareLocal(name string, typ Type) (*Symbol, error) {
	return t.bind(len(t.scopes)-1, name, typ)
}

// DeclareGlobal binds name in the global scope.
func (t *SymbolTable) DeclareGlobal(name string, typ Type) (*Symbol, error) {
	return t.bind(0, name, typ)
}

func (t *SymbolTable) bind(depth int, name string, typ Type) (*Symbol, error) {
	if sym := lookup(t.scopes[depth], name); sym != nil {
		sym.Type = typ
		return sym, nil
	}
	// The hashed layout gives every binding of a name the same slot, so a
	// second live binding would overwrite the first.
	if outer, ok := t.Resolve(name); t.legacy && ok {
		return nil, errz.New(errz.ErrCompile, errz.ErrSlotCollision,
			"variable %q is already bound in another scope and would share storage slot %d",
			name, outer.Slot)
	}
	slot, err := t.allocate(name)
	if err != nil {
		return nil, err
	}
	sym := &Symbol{Name: name, Slot: slot, Type: typ}
	t.scopes[depth] = append(t.scopes[depth], sym)
	return sym, nil
}

func (t *SymbolTable) allocate(name string) (int, error) {
	if !t.seen[name] {
		t.seen[name] = true
		t.ordered = append(t.ordered, name)
	}
	if !t.legacy {
		slot := t.slots
		t.slots++
		return slot, nil
	}
	slot := LegacySlot(name)
	if owner, ok := t.owners[slot]; ok && owner != name {
		return 0, errz.New(errz.ErrCompile, errz.ErrSlotCollision,
			"variables %q and %q share storage slot %d", owner, name, slot)
	}
	t.owners[slot] = name
	return slot, nil
}

// Slots returns the number of storage slots the generated program needs.
// It is never less than one so the storage block always exists.
func (t *SymbolTable) Slots() int {
	if t.legacy {
		return LegacySlotCount
	}
	if t.slots == 0 {
		return 1
	}
	return t.slots
}

// StorageSize returns the size in bytes of the variable storage block.
func (t *SymbolTable) StorageSize() int {
	return t.Slots() * SlotSize
}

// LegacyCollisions groups the variable names bound so far that would alias
// one another under the hashed storage layout. Each group is sorted, and
// groups are ordered by slot.
func (t *SymbolTable) LegacyCollisions() [][]string {
	bySlot := map[int][]string{}
	for _, name := range t.ordered {
		slot := LegacySlot(name)
		bySlot[slot] = append(bySlot[slot], name)
	}
	var slots []int
	for slot, names := range bySlot {
		if len(names) > 1 {
			slots = append(slots, slot)
		}
	}
	sort.Ints(slots)
	groups := make([][]string, 0, len(slots))
	for _, slot := range slots {
		names := bySlot[slot]
		sort.Strings(names)
		groups = append(groups, names)
	}
	return groups
}

// Package scripting provides sandboxed GopherLua states for rule formulas.
// It has no dependency on game domain packages; rule packages compile their
// snippets here and bind their own globals.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes one State may
// execute when no override is configured.
const DefaultInstructionLimit = 100_000

// unsafeGlobals are removed after OpenBase.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}

// budget is a context.Context that cancels itself once Done() has been called
// limit times. GopherLua's mainLoopWithContext calls Done() once per opcode,
// so the budget is an exact instruction count.
type budget struct {
	context.Context
	cancel context.CancelFunc
	limit  int64
	used   atomic.Int64
}

func newBudget(limit int) *budget {
	base, cancel := context.WithCancel(context.Background())
	return &budget{Context: base, cancel: cancel, limit: int64(limit)}
}

// Done counts one opcode and fires cancel when the budget is spent.
func (b *budget) Done() <-chan struct{} {
	if b.used.Add(1) >= b.limit {
		b.cancel()
	}
	return b.Context.Done()
}

// State is a sandboxed LState with an instruction budget.
type State struct {
	L      *lua.LState
	budget *budget
}

// NewState creates a State with:
//   - only the base, table, string and math libraries loaded
//   - dofile, loadfile, load, loadstring, collectgarbage and require removed
//   - execution capped at limit opcodes over the State's lifetime
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: The caller owns the State and must call Close.
func NewState(limit int) *State {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	b := newBudget(limit)
	L.SetContext(b)
	return &State{L: L, budget: b}
}

// Used returns the number of opcodes executed so far.
func (s *State) Used() int64 { return s.budget.used.Load() }

// Exhausted reports whether the instruction budget has been spent.
func (s *State) Exhausted() bool { return s.budget.Err() != nil }

// Close releases the budget and the Lua state.
func (s *State) Close() {
	s.budget.cancel()
	s.L.Close()
}

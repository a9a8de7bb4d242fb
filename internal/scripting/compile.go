package scripting

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Compile parses and compiles src into a FunctionProto.
//
// A FunctionProto is immutable and may be instantiated in any number of
// LStates concurrently via LState.NewFunctionFromProto.
//
// Precondition: name identifies the chunk in error messages.
// Postcondition: Returns a non-nil proto or a syntax error naming the chunk.
func Compile(name, src string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("scripting: parsing %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling %s: %w", name, err)
	}
	return proto, nil
}

// Instantiate runs proto as a chunk in L and returns its first return value.
//
// Precondition: L should be the L of a State from NewState.
// Postcondition: Returns the chunk result or the Lua error.
func Instantiate(L *lua.LState, proto *lua.FunctionProto) (lua.LValue, error) {
	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, 1, nil); err != nil {
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

package scripting_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/dmgcalc/internal/scripting"
)

func TestCompile_SyntaxError(t *testing.T) {
	_, err := scripting.Compile("bad", `this is not valid lua @@@@`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestInstantiate_ReturnsChunkValue(t *testing.T) {
	proto, err := scripting.Compile("add", `return function(a, b) return a + b end`)
	require.NoError(t, err)
	L := newState(t, 0).L
	fn, err := scripting.Instantiate(L, proto)
	require.NoError(t, err)
	require.Equal(t, lua.LTFunction, fn.Type())
	require.NoError(t, L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(3), lua.LNumber(4)))
	assert.Equal(t, lua.LNumber(7), L.Get(-1))
}

func TestCompile_ProtoSharedAcrossStates(t *testing.T) {
	proto, err := scripting.Compile("sq", `return 6 * 7`)
	require.NoError(t, err)
	var wg sync.WaitGroup
	results := make([]lua.LValue, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := scripting.NewState(0)
			defer s.Close()
			v, err := scripting.Instantiate(s.L, proto)
			if err == nil {
				results[i] = v
			}
		}(i)
	}
	wg.Wait()
	for _, v := range results {
		assert.Equal(t, lua.LNumber(42), v)
	}
}

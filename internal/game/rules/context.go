package rules

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/scripting"
)

// TalentView is one talent slot reduced to its effective level and the
// multiplier tables evaluated at that level.
type TalentView struct {
	Level  int
	Tables map[string][]float64
}

// WeaponRef identifies the equipped weapon inside formulas.
type WeaponRef struct {
	Name  string
	Affix int
}

// Context is the evaluation context of a single damage computation. It is
// created fresh per call, threaded through every buff in declared order and
// discarded afterwards; it must not be shared between goroutines.
type Context struct {
	Name    string
	Level   int
	Cons    int
	Element string
	Talents map[string]TalentView
	// Attr is the live attribute view; buffs extend it as they are applied.
	Attr      *attr.Set
	Params    Params
	Modifiers ModifierMap
	Weapon    WeaponRef
	// ScriptLimit bounds the Lua opcodes of this evaluation; 0 uses the default.
	ScriptLimit int

	vm        *scripting.State
	fns       map[*lua.FunctionProto]*lua.LFunction
	luaTalent *lua.LTable
}

// Calc returns the total of a stat.
func (c *Context) Calc(s attr.Stat) float64 {
	return s.Total()
}

// Param returns the scenario parameter key, or 0 when absent.
func (c *Context) Param(key string) float64 {
	return c.Params.Get(key)
}

// Talent returns the value vector of table in slot.
//
// Postcondition: Returns an error wrapping ErrMissingTalent when the slot or
// table is absent.
func (c *Context) Talent(slot, table string) ([]float64, error) {
	tv, ok := c.Talents[slot]
	if !ok {
		return nil, fmt.Errorf("talent slot %q: %w", slot, ErrMissingTalent)
	}
	v, ok := tv.Tables[table]
	if !ok || len(v) == 0 {
		return nil, fmt.Errorf("talent table %s[%q]: %w", slot, table, ErrMissingTalent)
	}
	return v, nil
}

// TalentValue returns the first component of a talent table.
func (c *Context) TalentValue(slot, table string) (float64, error) {
	v, err := c.Talent(slot, table)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// ScriptInstructions returns the Lua opcodes executed so far by this context.
func (c *Context) ScriptInstructions() int64 {
	if c.vm == nil {
		return 0
	}
	return c.vm.Used()
}

// Close releases the Lua state, if one was created.
func (c *Context) Close() {
	if c.vm != nil {
		c.vm.Close()
		c.vm = nil
		c.fns = nil
		c.luaTalent = nil
	}
}

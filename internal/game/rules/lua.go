package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/scripting"
)

// missingTalentMarker tags Lua errors raised for absent talent data so they
// can be mapped back to ErrMissingTalent.
const missingTalentMarker = "missing talent data"

const snippetPrologue = `return function(ctx, h)
local talent, attr, calc, params, cons, level, elem = ctx.talent, ctx.attr, ctx.calc, ctx.params, ctx.cons, ctx.level, ctx.elem
local weapon, affix, refine = ctx.weapon, ctx.affix, ctx.refine
local dmg, basic, shield, heal = h.dmg, h.basic, h.shield, h.heal
`

// compileSnippet compiles a formula. A snippet that is a single expression
// is returned as-is; anything else is used as a function body.
func compileSnippet(name, src string) (*lua.FunctionProto, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%s: empty formula: %w", name, ErrInvalidRuleModule)
	}
	if proto, err := scripting.Compile(name, snippetPrologue+"return ("+src+")\nend"); err == nil {
		return proto, nil
	}
	proto, err := scripting.Compile(name, snippetPrologue+src+"\nend")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRuleModule, err)
	}
	return proto, nil
}

// state returns the context's Lua state, creating it on first use.
func (c *Context) state() *lua.LState {
	if c.vm == nil {
		c.vm = scripting.NewState(c.ScriptLimit)
		c.fns = make(map[*lua.FunctionProto]*lua.LFunction)
	}
	return c.vm.L
}

func (c *Context) function(proto *lua.FunctionProto) (*lua.LFunction, error) {
	L := c.state()
	if fn, ok := c.fns[proto]; ok {
		return fn, nil
	}
	v, err := scripting.Instantiate(L, proto)
	if err != nil {
		return nil, err
	}
	fn, ok := v.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("snippet %s did not produce a function: %w", proto.SourceName, ErrInvalidRuleModule)
	}
	c.fns[proto] = fn
	return fn, nil
}

// callSnippet runs a compiled snippet against the current context state.
func (c *Context) callSnippet(proto *lua.FunctionProto, h Helpers) (lua.LValue, error) {
	fn, err := c.function(proto)
	if err != nil {
		return lua.LNil, classifyLuaError(err)
	}
	L := c.vm.L
	env := c.luaEnv(L)
	helpers := L.NewTable()
	if h != nil {
		bindHelpers(L, helpers, h)
	}
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, env, helpers); err != nil {
		return lua.LNil, classifyLuaError(err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

func classifyLuaError(err error) error {
	if errors.Is(err, ErrInvalidRuleModule) || errors.Is(err, ErrMissingTalent) {
		return err
	}
	if strings.Contains(err.Error(), missingTalentMarker) {
		return fmt.Errorf("%w: %v", ErrMissingTalent, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidRuleModule, err)
}

func (c *Context) luaEnv(L *lua.LState) *lua.LTable {
	env := L.NewTable()
	env.RawSetString("talent", c.talentTable(L))
	env.RawSetString("attr", attrTable(L, c.Attr))
	env.RawSetString("calc", L.NewFunction(luaCalc))
	env.RawSetString("params", paramsTable(L, c.Params))
	env.RawSetString("cons", lua.LNumber(c.Cons))
	env.RawSetString("level", lua.LNumber(c.Level))
	env.RawSetString("elem", lua.LString(c.Element))
	weapon := L.NewTable()
	weapon.RawSetString("name", lua.LString(c.Weapon.Name))
	weapon.RawSetString("affix", lua.LNumber(c.Weapon.Affix))
	env.RawSetString("weapon", weapon)
	env.RawSetString("affix", lua.LNumber(c.Weapon.Affix))
	affix := c.Weapon.Affix
	env.RawSetString("refine", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		idx := affix
		if idx < 1 {
			idx = 1
		}
		v := tbl.RawGetInt(idx)
		if v == lua.LNil {
			v = tbl.RawGetInt(tbl.Len())
		}
		L.Push(v)
		return 1
	}))
	return env
}

// talentTable is built once per context; talents do not change during an evaluation.
func (c *Context) talentTable(L *lua.LState) *lua.LTable {
	if c.luaTalent != nil {
		return c.luaTalent
	}
	root := L.NewTable()
	slots := make([]string, 0, len(c.Talents))
	for slot := range c.Talents {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	for _, slot := range slots {
		tv := c.Talents[slot]
		st := L.NewTable()
		for name, vals := range tv.Tables {
			if len(vals) == 1 {
				st.RawSetString(name, lua.LNumber(vals[0]))
				continue
			}
			arr := L.NewTable()
			for _, v := range vals {
				arr.Append(lua.LNumber(v))
			}
			st.RawSetString(name, arr)
		}
		slotName := slot
		L.SetMetatable(st, missingIndex(L, func(key string) string {
			return fmt.Sprintf("%s: table %s[%q]", missingTalentMarker, slotName, key)
		}))
		root.RawSetString(slot, st)
	}
	L.SetMetatable(root, missingIndex(L, func(key string) string {
		return fmt.Sprintf("%s: slot %q", missingTalentMarker, key)
	}))
	c.luaTalent = root
	return root
}

func missingIndex(L *lua.LState, msg func(key string) string) *lua.LTable {
	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s", msg(L.CheckAny(2).String()))
		return 0
	}))
	return mt
}

func statTable(L *lua.LState, s attr.Stat) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("base", lua.LNumber(s.Base))
	t.RawSetString("plus", lua.LNumber(s.Plus))
	t.RawSetString("pct", lua.LNumber(s.Pct))
	return t
}

func attrTable(L *lua.LState, set *attr.Set) *lua.LTable {
	t := L.NewTable()
	if set != nil {
		for k, s := range set.Stats {
			t.RawSetString(k, statTable(L, s))
		}
		for k, sk := range set.Skills {
			st := L.NewTable()
			st.RawSetString("pct", lua.LNumber(sk.Pct))
			st.RawSetString("multi", lua.LNumber(sk.Multi))
			st.RawSetString("plus", lua.LNumber(sk.Plus))
			st.RawSetString("dmg", lua.LNumber(sk.Dmg))
			st.RawSetString("cpct", lua.LNumber(sk.Cpct))
			st.RawSetString("cdmg", lua.LNumber(sk.Cdmg))
			st.RawSetString("def", lua.LNumber(sk.Def))
			st.RawSetString("ignore", lua.LNumber(sk.Ignore))
			t.RawSetString(k, st)
		}
		enemy := L.NewTable()
		enemy.RawSetString("kx", lua.LNumber(set.Enemy.Kx))
		enemy.RawSetString("phyKx", lua.LNumber(set.Enemy.PhyKx))
		enemy.RawSetString("def", lua.LNumber(set.Enemy.Def))
		enemy.RawSetString("ignore", lua.LNumber(set.Enemy.Ignore))
		t.RawSetString("enemy", enemy)
	}
	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		L.Push(statTable(L, attr.Stat{}))
		return 1
	}))
	L.SetMetatable(t, mt)
	return t
}

func paramsTable(L *lua.LState, p Params) *lua.LTable {
	t := L.NewTable()
	for k, v := range p {
		t.RawSetString(k, lua.LNumber(v))
	}
	mt := L.NewTable()
	mt.RawSetString("__index", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(0))
		return 1
	}))
	L.SetMetatable(t, mt)
	return t
}

// luaNumber reads a stat table ({base, plus, pct}) or a plain number.
func luaNumber(v lua.LValue) float64 {
	switch x := v.(type) {
	case lua.LNumber:
		return float64(x)
	case *lua.LTable:
		s := attr.Stat{
			Base: float64(lua.LVAsNumber(x.RawGetString("base"))),
			Plus: float64(lua.LVAsNumber(x.RawGetString("plus"))),
			Pct:  float64(lua.LVAsNumber(x.RawGetString("pct"))),
		}
		return s.Total()
	default:
		return 0
	}
}

func luaCalc(L *lua.LState) int {
	L.Push(lua.LNumber(luaNumber(L.Get(1))))
	return 1
}

// multiplier reads a talent value: a number, or a table of per-hit values
// which are summed. nil means the formula referenced absent talent data.
func multiplier(L *lua.LState, v lua.LValue) float64 {
	switch x := v.(type) {
	case lua.LNumber:
		return float64(x)
	case *lua.LTable:
		sum := 0.0
		x.ForEach(func(_, e lua.LValue) {
			sum += float64(lua.LVAsNumber(e))
		})
		return sum
	case *lua.LNilType:
		L.RaiseError("%s: nil multiplier", missingTalentMarker)
	default:
		L.ArgError(1, "multiplier must be a number or table")
	}
	return 0
}

func bindHelpers(L *lua.LState, t *lua.LTable, h Helpers) {
	t.RawSetString("dmg", L.NewFunction(func(L *lua.LState) int {
		pct := multiplier(L, L.Get(1))
		L.Push(outcomeTable(L, h.Dmg(pct, L.OptString(2, ""), L.OptString(3, ""))))
		return 1
	}))
	t.RawSetString("basic", L.NewFunction(func(L *lua.LState) int {
		base := luaNumber(L.CheckAny(1))
		L.Push(outcomeTable(L, h.Basic(base, L.OptString(2, ""), L.OptString(3, ""))))
		return 1
	}))
	t.RawSetString("shield", L.NewFunction(func(L *lua.LState) int {
		L.Push(outcomeTable(L, h.Shield(luaNumber(L.CheckAny(1)))))
		return 1
	}))
	t.RawSetString("heal", L.NewFunction(func(L *lua.LState) int {
		L.Push(outcomeTable(L, h.Heal(luaNumber(L.CheckAny(1)))))
		return 1
	}))
}

func outcomeTable(L *lua.LState, o Outcome) *lua.LTable {
	t := L.NewTable()
	switch o.Kind {
	case KindShield:
		t.RawSetString("shield", lua.LNumber(o.Value))
	case KindHeal:
		t.RawSetString("heal", lua.LNumber(o.Value))
	default:
		t.RawSetString("dmg", lua.LNumber(o.Crit))
		t.RawSetString("avg", lua.LNumber(o.Avg))
		t.RawSetString("noncrit", lua.LNumber(o.NonCrit))
	}
	return t
}

// toOutcome converts a damage snippet's return value.
func toOutcome(v lua.LValue) (Outcome, error) {
	switch x := v.(type) {
	case lua.LNumber:
		return ValueOutcome(float64(x)), nil
	case *lua.LTable:
		if s, ok := x.RawGetString("shield").(lua.LNumber); ok {
			return ShieldOutcome(float64(s)), nil
		}
		if hv, ok := x.RawGetString("heal").(lua.LNumber); ok {
			v := float64(hv)
			return Outcome{Kind: KindHeal, Value: v, Crit: v, NonCrit: v, Avg: v}, nil
		}
		crit, okCrit := x.RawGetString("dmg").(lua.LNumber)
		avg, okAvg := x.RawGetString("avg").(lua.LNumber)
		if !okCrit && !okAvg {
			return Outcome{}, fmt.Errorf("damage table needs dmg or avg: %w", ErrInvalidRuleModule)
		}
		if !okAvg {
			avg = crit
		}
		if !okCrit {
			crit = avg
		}
		non, ok := x.RawGetString("noncrit").(lua.LNumber)
		if !ok {
			non = avg
		}
		return Outcome{Kind: KindDamage, Crit: float64(crit), Avg: float64(avg), NonCrit: float64(non)}, nil
	default:
		return Outcome{}, fmt.Errorf("damage formula returned %s: %w", v.Type(), ErrInvalidRuleModule)
	}
}

// luaComputed wraps a compiled value snippet as a Computed rule.
func luaComputed(proto *lua.FunctionProto) Computed {
	return func(ctx *Context) (float64, error) {
		v, err := ctx.callSnippet(proto, nil)
		if err != nil {
			return 0, err
		}
		n, ok := v.(lua.LNumber)
		if !ok {
			return 0, fmt.Errorf("%s returned %s, want number: %w", proto.SourceName, v.Type(), ErrInvalidRuleModule)
		}
		return float64(n), nil
	}
}

// luaPredicate wraps a compiled check snippet.
func luaPredicate(proto *lua.FunctionProto) Predicate {
	return func(ctx *Context) (bool, error) {
		v, err := ctx.callSnippet(proto, nil)
		if err != nil {
			return false, err
		}
		return lua.LVAsBool(v), nil
	}
}

// luaDamage wraps a compiled damage snippet.
func luaDamage(proto *lua.FunctionProto) DamageFunc {
	return func(ctx *Context, h Helpers) (Outcome, error) {
		v, err := ctx.callSnippet(proto, h)
		if err != nil {
			return Outcome{}, err
		}
		return toOutcome(v)
	}
}

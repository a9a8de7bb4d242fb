package profile

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/growth"
	"github.com/cory-johannsen/dmgcalc/internal/game/weapon"
)

// Baseline values every character has before equipment.
const (
	baseCpct     = 5
	baseCdmg     = 50
	baseRecharge = 100
)

// AttrResolver computes the final attribute set of a build.
type AttrResolver struct {
	weapons  weapon.Lookup
	attrCalc bool
	logger   *zap.Logger
	group    singleflight.Group
}

// NewAttrResolver creates an AttrResolver. When attrCalc is false, builds
// carrying a declared panel use it instead of recomputing.
//
// Precondition: weapons and logger must not be nil.
func NewAttrResolver(weapons weapon.Lookup, attrCalc bool, logger *zap.Logger) *AttrResolver {
	return &AttrResolver{weapons: weapons, attrCalc: attrCalc, logger: logger}
}

// Resolve computes the attribute set of b without touching its cache.
//
// Postcondition: Returns a fresh Set owned by the caller. Repeated calls on
// the same build return equal sets.
func (r *AttrResolver) Resolve(b *Build) (*attr.Set, error) {
	if b == nil || b.Char == nil {
		return nil, fmt.Errorf("resolve: build has no character")
	}
	if !r.attrCalc && b.Declared != nil {
		return declaredSet(*b.Declared), nil
	}

	set := attr.New()
	desc := b.Char
	set.AddBase(attr.HP, desc.HP.At(b.Level, b.Promote))
	set.AddBase(attr.Atk, desc.Atk.At(b.Level, b.Promote))
	set.AddBase(attr.Def, desc.Def.At(b.Level, b.Promote))
	set.AddBase(attr.Cpct, baseCpct)
	set.AddBase(attr.Cdmg, baseCdmg)
	set.AddBase(attr.Recharge, baseRecharge)
	if asc := desc.Ascension; asc.Key != "" {
		r.apply(set, b, "ascension", []attr.Modifier{{Key: asc.Key, Value: asc.Value * growth.AscensionStatFraction(b.Promote)}})
	}

	if b.Weapon != nil {
		w, err := r.weapons.Get(b.Weapon.Name)
		if err != nil {
			r.logger.Warn("unknown weapon, skipping its stats",
				zap.String("character", desc.Name),
				zap.String("weapon", b.Weapon.Name),
				zap.Error(err),
			)
		} else {
			r.apply(set, b, "weapon", w.Stats(b.Weapon.Level, b.Weapon.Promote))
		}
	}

	if b.Artis != nil {
		r.apply(set, b, "artifact", b.Artis.Modifiers)
	}

	o := b.Overrides
	set.AddPlus(attr.Heal, o.Heal)
	set.AddPlus(attr.Cpct, o.Cpct)
	set.AddPlus(attr.Cdmg, o.Cdmg)
	set.AddPlus(attr.Dmg, o.Dmg)
	set.AddPlus(attr.Phy, o.Phy)
	return set, nil
}

func (r *AttrResolver) apply(set *attr.Set, b *Build, source string, mods []attr.Modifier) {
	if unknown := set.ApplyAll(mods); len(unknown) > 0 {
		r.logger.Warn("ignoring unknown modifier keys",
			zap.String("character", b.Char.Name),
			zap.String("source", source),
			zap.Strings("keys", unknown),
		)
	}
}

// ResolveOrFetch returns the cached attribute set of b, resolving it at most
// once. Concurrent first calls for the same build share one resolution; all
// callers observe the same cached set.
//
// Postcondition: The returned Set is shared and must be cloned before mutation.
func (r *AttrResolver) ResolveOrFetch(b *Build) (*attr.Set, error) {
	if s := b.attr.Load(); s != nil {
		return s, nil
	}
	v, err, _ := r.group.Do(b.Key.String(), func() (interface{}, error) {
		if s := b.attr.Load(); s != nil {
			return s, nil
		}
		s, err := r.Resolve(b)
		if err != nil {
			return nil, err
		}
		b.attr.CompareAndSwap(nil, s)
		return b.attr.Load(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*attr.Set), nil
}

// declaredSet rebuilds an attribute set from a displayed panel, splitting
// each scaled stat into its base and the remainder as plus.
func declaredSet(p Panel) *attr.Set {
	set := attr.New()
	set.AddBase(attr.HP, p.HPBase)
	set.AddPlus(attr.HP, p.HP-p.HPBase)
	set.AddBase(attr.Atk, p.AtkBase)
	set.AddPlus(attr.Atk, p.Atk-p.AtkBase)
	set.AddBase(attr.Def, p.DefBase)
	set.AddPlus(attr.Def, p.Def-p.DefBase)
	set.AddPlus(attr.Mastery, p.Mastery)
	set.AddPlus(attr.Recharge, p.Recharge)
	set.AddPlus(attr.Heal, p.Heal)
	set.AddPlus(attr.Cpct, p.Cpct)
	set.AddPlus(attr.Cdmg, p.Cdmg)
	set.AddPlus(attr.Dmg, p.Dmg)
	set.AddPlus(attr.Phy, p.Phy)
	return set
}

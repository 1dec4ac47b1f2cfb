package engine

import (
	"math"

	"github.com/ericogr/pokearena/internal/game"
	"github.com/ericogr/pokearena/internal/typechart"
)

// Level is the fixed level of every combatant in the damage formula.
const Level = 50

const (
	CriticalChance     = 0.10
	CriticalMultiplier = 1.5
	MinRandomFactor    = 0.85
	RandomFactorSpread = 0.15
	// Move power is 40 + floor(r*60), drawn per attack. The chosen move only
	// names the attack in the log.
	MinMovePower    = 40
	MovePowerSpread = 60
	MinDamage       = 1
)

const (
	NarrativeSuperEffective   = "It's super effective!"
	NarrativeNotVeryEffective = "It's not very effective..."
	NarrativeNoEffect         = "It doesn't affect the target!"
)

// Resolution is the outcome of a single attack calculation.
type Resolution struct {
	MovePower     int     `json:"move_power"`
	BaseDamage    int     `json:"base_damage"`
	Damage        int     `json:"damage"`
	Effectiveness float64 `json:"effectiveness"`
	Critical      bool    `json:"critical"`
	RandomFactor  float64 `json:"random_factor"`
	Narrative     string  `json:"narrative"`
}

// Resolver computes attack damage. It holds no battle state.
type Resolver struct {
	rng RandomSource
	// immunityBlocksDamage lets an effectiveness of 0 deal 0 damage instead
	// of the usual minimum of 1.
	immunityBlocksDamage bool
}

// NewResolver returns a Resolver drawing from rng.
func NewResolver(rng RandomSource, immunityBlocksDamage bool) *Resolver {
	if rng == nil {
		rng = NewRandomSource()
	}
	return &Resolver{rng: rng, immunityBlocksDamage: immunityBlocksDamage}
}

// BaseDamage is floor(((2*Level/5 + 2) * movePower) / Level).
func BaseDamage(movePower int) int {
	return ((2*Level/5 + 2) * movePower) / Level
}

// Narrative returns the effect line for an effectiveness multiplier; neutral
// hits have none.
func Narrative(effectiveness float64) string {
	switch {
	case effectiveness == 0:
		return NarrativeNoEffect
	case effectiveness > 1:
		return NarrativeSuperEffective
	case effectiveness < 1:
		return NarrativeNotVeryEffective
	default:
		return ""
	}
}

// Resolve computes the damage attacker deals to defender with a move of the
// given power. It draws the critical roll first, then the random factor.
func (r *Resolver) Resolve(attacker, defender *game.Combatant, movePower int) Resolution {
	eff := typechart.Multiplier(attacker.PrimaryType(), defender.Types)

	critical := r.rng.Float64() < CriticalChance
	critMul := 1.0
	if critical {
		critMul = CriticalMultiplier
	}
	factor := MinRandomFactor + r.rng.Float64()*RandomFactorSpread

	base := BaseDamage(movePower)
	dmg := int(math.Floor(float64(base) * eff * critMul * factor))
	if eff == 0 && r.immunityBlocksDamage {
		dmg = 0
	} else if dmg < MinDamage {
		dmg = MinDamage
	}

	return Resolution{
		MovePower:     movePower,
		BaseDamage:    base,
		Damage:        dmg,
		Effectiveness: eff,
		Critical:      critical,
		RandomFactor:  factor,
		Narrative:     Narrative(eff),
	}
}

// rollMovePower draws the power of the next attack.
func (r *Resolver) rollMovePower() int {
	return MinMovePower + int(math.Floor(r.rng.Float64()*MovePowerSpread))
}

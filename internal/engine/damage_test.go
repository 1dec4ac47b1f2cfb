package engine

import (
	"testing"

	"github.com/ericogr/pokearena/internal/game"
)

// scriptedSource replays vals in order, wrapping around.
type scriptedSource struct {
	vals []float64
	i    int
}

func (s *scriptedSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func script(vals ...float64) *scriptedSource { return &scriptedSource{vals: vals} }

func mon(name string, hp int, types ...string) game.Combatant {
	return game.Combatant{
		ID:        name,
		Name:      name,
		Types:     types,
		BaseStats: map[string]int{game.StatHP: hp},
		Actions:   []game.Action{{Name: "tackle", Type: "normal"}},
	}
}

func TestBaseDamage(t *testing.T) {
	cases := map[int]int{40: 17, 70: 30, 99: 43}
	for power, want := range cases {
		if got := BaseDamage(power); got != want {
			t.Fatalf("BaseDamage(%d): expected %d, got %d", power, want, got)
		}
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		atk, def []string
		rolls    []float64
		immune   bool
		damage   int
		critical bool
		eff      float64
		story    string
	}{
		{"super effective", []string{"fire"}, []string{"grass"}, []float64{0.5, 0.5}, false, 55, false, 2, NarrativeSuperEffective},
		{"critical", []string{"fire"}, []string{"grass"}, []float64{0.05, 0.5}, false, 83, true, 2, NarrativeSuperEffective},
		{"neutral", []string{"normal"}, []string{"normal"}, []float64{0.5, 0.5}, false, 27, false, 1, ""},
		{"resisted", []string{"water"}, []string{"water"}, []float64{0.5, 0.5}, false, 13, false, 0.5, NarrativeNotVeryEffective},
		{"immune keeps floor", []string{"electric"}, []string{"ground"}, []float64{0.5, 0.5}, false, 1, false, 0, NarrativeNoEffect},
		{"immune blocks", []string{"electric"}, []string{"ground"}, []float64{0.5, 0.5}, true, 0, false, 0, NarrativeNoEffect},
		{"secondary attacker type ignored", []string{"normal", "fire"}, []string{"grass"}, []float64{0.5, 0.5}, false, 27, false, 1, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := mon("a", 50, tc.atk...)
			d := mon("d", 50, tc.def...)
			r := NewResolver(script(tc.rolls...), tc.immune)
			res := r.Resolve(&a, &d, 70)
			if res.Damage != tc.damage {
				t.Fatalf("damage: expected %d, got %d", tc.damage, res.Damage)
			}
			if res.Critical != tc.critical {
				t.Fatalf("critical: expected %v, got %v", tc.critical, res.Critical)
			}
			if res.Effectiveness != tc.eff {
				t.Fatalf("effectiveness: expected %v, got %v", tc.eff, res.Effectiveness)
			}
			if res.Narrative != tc.story {
				t.Fatalf("narrative: expected %q, got %q", tc.story, res.Narrative)
			}
			if res.BaseDamage != 30 || res.MovePower != 70 {
				t.Fatalf("unexpected base figures: %+v", res)
			}
		})
	}
}

func TestResolve_MinimumDamage(t *testing.T) {
	a := mon("a", 50, "water")
	d := mon("d", 50, "water", "dragon")
	r := NewResolver(script(0.9, 0), false)
	// A power of 0 has no base damage; the floor still applies.
	if got := r.Resolve(&a, &d, 0).Damage; got != MinDamage {
		t.Fatalf("expected minimum damage %d, got %d", MinDamage, got)
	}
}

func TestRollMovePower(t *testing.T) {
	r := NewResolver(script(0, 0.5, 0.999), false)
	for _, want := range []int{40, 70, 99} {
		if got := r.rollMovePower(); got != want {
			t.Fatalf("expected move power %d, got %d", want, got)
		}
	}
}

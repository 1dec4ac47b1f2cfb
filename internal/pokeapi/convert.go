package pokeapi

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ericogr/pokearena/internal/game"
)

type namedResource struct {
	Name string `json:"name"`
}

type pokemonPayload struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Slot int           `json:"slot"`
		Type namedResource `json:"type"`
	} `json:"types"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     namedResource `json:"stat"`
	} `json:"stats"`
	Moves []struct {
		Move namedResource `json:"move"`
	} `json:"moves"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

type movePayload struct {
	Name string        `json:"name"`
	Type namedResource `json:"type"`
}

// moveNames returns the first game.MaxActions move names in payload order.
func (p *pokemonPayload) moveNames() []string {
	n := len(p.Moves)
	if n > game.MaxActions {
		n = game.MaxActions
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = p.Moves[i].Move.Name
	}
	return names
}

// displayName turns "thunder-shock" into "Thunder Shock".
func displayName(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "-", " "))
}

// toCombatant converts a pokemon payload. moveTypes is parallel to
// p.moveNames(); empty entries default to the primary type.
func toCombatant(p pokemonPayload, moveTypes []string) (*game.Combatant, error) {
	slots := append(p.Types[:0:0], p.Types...)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Slot < slots[j].Slot })

	cb := &game.Combatant{
		ID:          strconv.Itoa(p.ID),
		Name:        p.Name,
		DisplayName: displayName(p.Name),
		BaseStats:   make(map[string]int, len(p.Stats)),
		ImageURL:    p.Sprites.Other.OfficialArtwork.FrontDefault,
	}
	if cb.ImageURL == "" {
		cb.ImageURL = p.Sprites.FrontDefault
	}
	for _, t := range slots {
		cb.Types = append(cb.Types, t.Type.Name)
	}
	for _, s := range p.Stats {
		cb.BaseStats[s.Stat.Name] = s.BaseStat
	}
	for i, name := range p.moveNames() {
		a := game.Action{Name: displayName(name)}
		if i < len(moveTypes) {
			a.Type = moveTypes[i]
		}
		cb.Actions = append(cb.Actions, a)
	}
	if !cb.Normalize() {
		return nil, fmt.Errorf("%w: %s has no types", ErrFetchFailed, p.Name)
	}
	return cb, nil
}

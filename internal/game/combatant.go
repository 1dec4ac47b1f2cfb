package game

import "strings"

const (
	// StatHP is the base stat that sizes a combatant's health pool.
	StatHP = "hp"
	// DefaultHP is used when a creature reports no usable hp stat.
	DefaultHP = 50
	// MaxActions is the number of moves a combatant brings into battle.
	MaxActions = 4
	// FallbackActionName is given to creatures that know no moves.
	FallbackActionName = "struggle"
)

// Action is a move a combatant can use. Type only matters for display: damage
// is driven by the attacker's primary type.
type Action struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Combatant is the normalized view of a creature taking part in a battle.
type Combatant struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	Types       []string       `json:"types"`
	BaseStats   map[string]int `json:"base_stats"`
	Actions     []Action       `json:"actions"`
	ImageURL    string         `json:"image_url,omitempty"`
}

// PrimaryType is Types[0], used for attacker-side effectiveness lookups.
func (c *Combatant) PrimaryType() string {
	if len(c.Types) == 0 {
		return ""
	}
	return c.Types[0]
}

// BaseHP returns the hp base stat, falling back to DefaultHP when the stat is
// missing or not positive.
func (c *Combatant) BaseHP() int {
	if hp := c.BaseStats[StatHP]; hp > 0 {
		return hp
	}
	return DefaultHP
}

// MaxHealth is twice the hp base stat. The doubling stretches battles over
// several rounds; it is not the main-series formula.
func (c *Combatant) MaxHealth() int {
	return c.BaseHP() * 2
}

// Label is the name shown in battle logs.
func (c *Combatant) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// Normalize enforces the combatant invariants in place: lower-case, de-duplicated
// types (at most two), non-negative stats, at most MaxActions actions with a
// type each, and a fallback action when none are known. It returns false when
// the combatant has no type at all and cannot battle.
func (c *Combatant) Normalize() bool {
	types := make([]string, 0, 2)
	for _, t := range c.Types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || contains(types, t) {
			continue
		}
		types = append(types, t)
		if len(types) == 2 {
			break
		}
	}
	if len(types) == 0 {
		return false
	}
	c.Types = types

	stats := make(map[string]int, len(c.BaseStats))
	for k, v := range c.BaseStats {
		if v < 0 {
			v = 0
		}
		stats[strings.ToLower(strings.TrimSpace(k))] = v
	}
	c.BaseStats = stats

	if len(c.Actions) > MaxActions {
		c.Actions = c.Actions[:MaxActions]
	}
	for i := range c.Actions {
		c.Actions[i].Type = strings.ToLower(strings.TrimSpace(c.Actions[i].Type))
		if c.Actions[i].Type == "" {
			c.Actions[i].Type = c.PrimaryType()
		}
	}
	if len(c.Actions) == 0 {
		c.Actions = []Action{{Name: FallbackActionName, Type: c.PrimaryType()}}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

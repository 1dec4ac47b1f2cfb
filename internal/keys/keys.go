package keys

import (
	"strings"
	"unicode/utf8"
)

// MaxTrainerNameLength bounds trainer names stored on the leaderboard.
const MaxTrainerNameLength = 30

// CombatantKey produces the cache key for a combatant identifier.
// Numeric IDs and names share a namespace: "pokemon:25", "pokemon:pikachu".
func CombatantKey(id string) string {
	return "pokemon:" + strings.ToLower(strings.TrimSpace(id))
}

// MoveKey produces the cache key for a move name.
func MoveKey(name string) string {
	return "move:" + strings.ToLower(strings.TrimSpace(name))
}

// TrainerName trims a trainer name and collapses inner whitespace runs to a
// single space. The result is what gets displayed.
func TrainerName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// TrainerKey is the case-insensitive identity of a trainer name, used as the
// unique column for profiles and leaderboard rows.
func TrainerKey(name string) string {
	return strings.ToLower(TrainerName(name))
}

// ValidTrainerName reports whether a normalized name has 1..30 characters.
func ValidTrainerName(name string) bool {
	n := utf8.RuneCountInString(TrainerName(name))
	return n >= 1 && n <= MaxTrainerNameLength
}

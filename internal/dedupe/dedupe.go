package dedupe

// Package dedupe provides shared singleflight groups used to collapse
// concurrent requests for the same remote resource. While one PokeAPI
// request for a key is in flight, other callers asking for the same key
// wait for its result instead of issuing their own.

import "golang.org/x/sync/singleflight"

// CombatantGroup deduplicates combatant fetches keyed by keys.CombatantKey.
var CombatantGroup singleflight.Group

// MoveGroup deduplicates move detail fetches keyed by keys.MoveKey.
var MoveGroup singleflight.Group

package game

import (
	"time"

	"gorm.io/gorm"
)

// Result is a battle result from the trainer's point of view.
type Result string

const (
	ResultWin  Result = "win"
	ResultDraw Result = "draw"
	ResultLose Result = "lose"
)

// TrainerProfile stores aggregate stats for a trainer name.
type TrainerProfile struct {
	gorm.Model
	// TrainerKey is the case-insensitive identity (see keys.TrainerKey).
	TrainerKey string `json:"-" gorm:"uniqueIndex"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	Battles    int    `json:"battles"`
	Wins       int    `json:"wins"`
	Draws      int    `json:"draws"`
	Losses     int    `json:"losses"`
}

func (TrainerProfile) TableName() string { return "trainer_profiles" }

// LeaderboardEntry keeps the best score reached by a trainer name.
type LeaderboardEntry struct {
	gorm.Model
	TrainerKey string `json:"-" gorm:"uniqueIndex"`
	Username   string `json:"username" gorm:"size:30"`
	Score      int    `json:"score" gorm:"index"`
}

func (LeaderboardEntry) TableName() string { return "leaderboard" }

// MaxLeaderboardScore bounds scores submitted to the leaderboard.
const MaxLeaderboardScore = 999999

// MatchRecord is the history row written when a battle reaches a terminal state.
type MatchRecord struct {
	gorm.Model
	BattleID        string `json:"battle_id" gorm:"uniqueIndex"`
	TrainerKey      string `json:"-" gorm:"index"`
	TrainerName     string `json:"trainer_name"`
	PlayerCombatant string `json:"player_combatant"`
	EnemyCombatant  string `json:"enemy_combatant"`
	Result          Result `json:"result"`
	Turns           int    `json:"turns"`
	ScoreDelta      int    `json:"score_delta"`
}

func (MatchRecord) TableName() string { return "match_history" }

// CachedCombatant stores the raw JSON returned by the creature data service
// so repeated lookups do not hit the network. Keyed by keys.CombatantKey or
// keys.MoveKey.
type CachedCombatant struct {
	gorm.Model
	CacheKey  string    `gorm:"uniqueIndex"`
	Payload   []byte    `gorm:"type:blob"`
	FetchedAt time.Time `gorm:"index"`
}

func (CachedCombatant) TableName() string { return "pokeapi_cache" }

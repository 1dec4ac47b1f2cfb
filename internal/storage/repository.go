package storage

import (
	"errors"
	"time"

	"github.com/ericogr/pokearena/internal/game"
)

var (
	ErrInvalidUsername = errors.New("username must have 1 to 30 characters")
	ErrInvalidScore    = errors.New("score must be between 0 and 999999")
)

type Repository interface {
	// RecordOutcome applies rec.ScoreDelta to the trainer profile, raises the
	// leaderboard entry to the new profile score and stores rec, all in one
	// transaction. The updated profile is returned.
	RecordOutcome(rec *game.MatchRecord) (*game.TrainerProfile, error)
	// GetProfile returns the stats for a trainer name. Unknown trainers get
	// an empty profile, not an error.
	GetProfile(name string) (*game.TrainerProfile, error)
	GetRecentMatches(name string, limit int) ([]game.MatchRecord, error)

	// Leaderboard
	SubmitScore(username string, score int) (*game.LeaderboardEntry, error)
	GetTopScores(limit int) ([]game.LeaderboardEntry, error)

	// Combatant source cache. GetCached returns nil, nil on a miss.
	GetCached(key string) (*game.CachedCombatant, error)
	SaveCached(key string, payload []byte) error
	DeleteCachedBefore(cutoff time.Time) (int64, error)
}

package service

import (
	"context"
	"fmt"

	"github.com/ericogr/pokearena/internal/game"
)

// OutcomeRecorder is the part of storage.Repository the reporter needs.
type OutcomeRecorder interface {
	RecordOutcome(rec *game.MatchRecord) (*game.TrainerProfile, error)
}

// StorageReporter records outcomes in the trainer profile, leaderboard and
// match history tables.
type StorageReporter struct {
	repo OutcomeRecorder
}

func NewStorageReporter(repo OutcomeRecorder) *StorageReporter {
	return &StorageReporter{repo: repo}
}

func (r *StorageReporter) ReportOutcome(ctx context.Context, rep OutcomeReport) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrOutcomeReport, err)
	}
	_, err := r.repo.RecordOutcome(&game.MatchRecord{
		BattleID:        rep.BattleID,
		TrainerName:     rep.ParticipantIdentity,
		PlayerCombatant: rep.PlayerCombatant,
		EnemyCombatant:  rep.EnemyCombatant,
		Result:          rep.Result,
		Turns:           rep.Turns,
		ScoreDelta:      rep.ScoreDelta,
	})
	if err != nil {
		return fmt.Errorf("%w: battle %s: %v", ErrOutcomeReport, rep.BattleID, err)
	}
	return nil
}

package storage

import (
	"errors"
	"time"

	"github.com/ericogr/pokearena/internal/game"
	"github.com/ericogr/pokearena/internal/keys"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTopScores = 100

type sqliteRepository struct {
	db *gorm.DB
}

func NewSQLiteRepository(db *gorm.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) RecordOutcome(rec *game.MatchRecord) (*game.TrainerProfile, error) {
	name := keys.TrainerName(rec.TrainerName)
	if !keys.ValidTrainerName(name) {
		return nil, ErrInvalidUsername
	}
	key := keys.TrainerKey(name)

	var out game.TrainerProfile
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var p game.TrainerProfile
		if err := tx.Where("trainer_key = ?", key).First(&p).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			p = game.TrainerProfile{TrainerKey: key}
		}
		p.Name = name
		p.Score += rec.ScoreDelta
		if p.Score < 0 {
			p.Score = 0
		}
		p.Battles++
		switch rec.Result {
		case game.ResultWin:
			p.Wins++
		case game.ResultDraw:
			p.Draws++
		case game.ResultLose:
			p.Losses++
		}
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		score := p.Score
		if score > game.MaxLeaderboardScore {
			score = game.MaxLeaderboardScore
		}
		if err := upsertBest(tx, key, name, score); err != nil {
			return err
		}

		rec.TrainerKey = key
		rec.TrainerName = name
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// upsertBest inserts or updates the leaderboard row for key, keeping the
// higher of the stored and submitted scores. Name and timestamp only change
// when the submission raises the score.
func upsertBest(tx *gorm.DB, key, username string, score int) error {
	e := game.LeaderboardEntry{TrainerKey: key, Username: username, Score: score}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trainer_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"username":   gorm.Expr("CASE WHEN excluded.score > leaderboard.score THEN excluded.username ELSE leaderboard.username END"),
			"score":      gorm.Expr("MAX(leaderboard.score, excluded.score)"),
			"updated_at": gorm.Expr("CASE WHEN excluded.score > leaderboard.score THEN excluded.updated_at ELSE leaderboard.updated_at END"),
		}),
	}).Create(&e).Error
}

func (r *sqliteRepository) GetProfile(name string) (*game.TrainerProfile, error) {
	var p game.TrainerProfile
	if err := r.db.Where("trainer_key = ?", keys.TrainerKey(name)).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &game.TrainerProfile{Name: keys.TrainerName(name)}, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetRecentMatches returns the newest match records of a trainer first.
func (r *sqliteRepository) GetRecentMatches(name string, limit int) ([]game.MatchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var recs []game.MatchRecord
	if err := r.db.Where("trainer_key = ?", keys.TrainerKey(name)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *sqliteRepository) SubmitScore(username string, score int) (*game.LeaderboardEntry, error) {
	name := keys.TrainerName(username)
	if !keys.ValidTrainerName(name) {
		return nil, ErrInvalidUsername
	}
	if score < 0 || score > game.MaxLeaderboardScore {
		return nil, ErrInvalidScore
	}
	key := keys.TrainerKey(name)
	if err := upsertBest(r.db, key, name, score); err != nil {
		return nil, err
	}
	var e game.LeaderboardEntry
	if err := r.db.Where("trainer_key = ?", key).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// GetTopScores returns the best scores, highest first. Ties go to the most
// recently updated entry.
func (r *sqliteRepository) GetTopScores(limit int) ([]game.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultTopScores
	}
	var entries []game.LeaderboardEntry
	if err := r.db.Model(&game.LeaderboardEntry{}).
		Order("score DESC").
		Order("updated_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *sqliteRepository) GetCached(key string) (*game.CachedCombatant, error) {
	var c game.CachedCombatant
	if err := r.db.Where("cache_key = ?", key).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *sqliteRepository) SaveCached(key string, payload []byte) error {
	c := game.CachedCombatant{CacheKey: key, Payload: payload, FetchedAt: time.Now().UTC()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "updated_at"}),
	}).Create(&c).Error
}

// DeleteCachedBefore hard-deletes cache rows fetched before cutoff.
func (r *sqliteRepository) DeleteCachedBefore(cutoff time.Time) (int64, error) {
	res := r.db.Unscoped().Where("fetched_at < ?", cutoff.UTC()).Delete(&game.CachedCombatant{})
	return res.RowsAffected, res.Error
}

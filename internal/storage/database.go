package storage

import (
	"fmt"

	"github.com/ericogr/pokearena/internal/game"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenAndMigrate opens the SQLite database at dataSourceName and brings the
// schema up to date.
func OpenAndMigrate(dataSourceName string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dataSourceName), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases shared across calls.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&game.TrainerProfile{}, &game.LeaderboardEntry{}, &game.MatchRecord{}, &game.CachedCombatant{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

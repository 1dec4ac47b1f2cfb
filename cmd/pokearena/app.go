package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ericogr/pokearena/internal/config"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/storage"
)

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func loadConfigOrExit(path string) *config.LoadedConfig {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		logging.Fatal("Invalid pokearena configuration", err, logging.Fields{"config_path": path})
	}
	return cfg
}

func createRepositoryOrExit(dbPath string) storage.Repository {
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			logging.Fatal("Failed to create database directory", err, logging.Fields{"db_path": dbPath})
		}
	}
	db, err := storage.OpenAndMigrate(dbPath)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"db_path": dbPath})
	}
	return storage.NewSQLiteRepository(db)
}

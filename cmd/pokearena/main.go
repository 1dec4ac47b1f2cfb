package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ericogr/pokearena/internal/api"
	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/pokeapi"
	"github.com/ericogr/pokearena/internal/service"
	"github.com/ericogr/pokearena/internal/telemetry"
	"github.com/ericogr/pokearena/internal/version"
)

func main() {
	os.Exit(run())
}

// run wires and serves the application, returning the process exit code.
func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("failed to load .env file", err, nil)
	}

	// Config path may be provided via POKEARENA_CONFIG; a missing file
	// means built-in defaults.
	configPath := envOr(constants.EnvConfigPath, constants.DefaultConfigPath)
	cfg := loadConfigOrExit(configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var flush func(context.Context) error
	if os.Getenv(constants.EnvTelemetry) == "1" {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			logging.Error("Failed to initialize telemetry", err, nil)
			return 1
		}
		flush = shutdown
	}

	dbPath := envOr(constants.EnvDBPath, constants.DefaultDBPath)
	repo := createRepositoryOrExit(dbPath)

	source := pokeapi.New(pokeapi.Options{
		BaseURL:          cfg.PokeAPIBaseURL,
		Timeout:          cfg.PokeAPITimeout,
		RandomMaxID:      cfg.RandomMaxID,
		CacheTTL:         cfg.CacheTTL,
		ResolveMoveTypes: cfg.ResolveMoveTypes,
		Cache:            repo,
	})
	battles := service.NewBattleService(source, service.NewStorageReporter(repo), service.Options{
		Scoring:              cfg.Scoring,
		ImmunityBlocksDamage: cfg.ImmunityBlocksDamage,
	})
	startSweeper(ctx, battles, repo, cfg)

	router := api.NewRouter(api.NewHandler(battles, source, repo, cfg.PopularIDs))

	logging.Info("Server started", logging.Fields{
		constants.LogFieldAddr: cfg.ServerAddress,
		"version":              version.String(),
	})
	// In-flight outcome reports land before telemetry is flushed.
	return serve(ctx, cfg.ServerAddress, router, battles.Wait, flush)
}

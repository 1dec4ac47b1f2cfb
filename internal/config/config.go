package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ericogr/pokearena/internal/constants"
)

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	PokeAPI *struct {
		BaseURL          string `json:"base_url"`
		TimeoutSeconds   int    `json:"timeout_seconds"`
		RandomMaxID      int    `json:"random_max_id"`
		CacheTTLSeconds  *int   `json:"cache_ttl_seconds"`
		ResolveMoveTypes bool   `json:"resolve_move_types"`
	} `json:"pokeapi"`
	// Combatant IDs offered on the selection screen.
	PopularIDs []int `json:"popular_ids"`
	Scoring    *struct {
		Win  *int `json:"win"`
		Draw *int `json:"draw"`
		Lose *int `json:"lose"`
	} `json:"scoring"`
	Battle *struct {
		// When true an attack with effectiveness 0 deals no damage instead
		// of the minimum of 1.
		ImmunityBlocksDamage bool `json:"immunity_blocks_damage"`
		IdleTimeoutSeconds   int  `json:"idle_timeout_seconds"`
	} `json:"battle"`
}

// Scoring holds the score delta applied to a trainer for each result.
type Scoring struct {
	Win  int
	Draw int
	Lose int
}

// LoadedConfig is the validated runtime configuration.
type LoadedConfig struct {
	ServerAddress string

	PokeAPIBaseURL   string
	PokeAPITimeout   time.Duration
	RandomMaxID      int
	CacheTTL         time.Duration
	ResolveMoveTypes bool

	PopularIDs []int
	Scoring    Scoring

	ImmunityBlocksDamage bool
	IdleTimeout          time.Duration
}

// Defaults returns the configuration used when no file is present.
func Defaults() *LoadedConfig {
	return &LoadedConfig{
		ServerAddress:    ":8080",
		PokeAPIBaseURL:   constants.PokeAPIBaseURL,
		PokeAPITimeout:   10 * time.Second,
		RandomMaxID:      151,
		CacheTTL:         time.Hour,
		ResolveMoveTypes: false,
		PopularIDs:       []int{1, 4, 7, 25, 150, 6, 9, 3, 94, 143, 130, 149},
		Scoring:          Scoring{Win: 100, Draw: 50, Lose: -50},
		IdleTimeout:      30 * time.Minute,
	}
}

// LoadConfig reads the JSON configuration at path. A missing file is not an
// error: the defaults are returned. Keys absent from the file keep their
// default values.
func LoadConfig(path string) (*LoadedConfig, error) {
	cfg := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if rc.Server != nil && rc.Server.Address != "" {
		cfg.ServerAddress = rc.Server.Address
	}
	if p := rc.PokeAPI; p != nil {
		if s := strings.TrimRight(strings.TrimSpace(p.BaseURL), "/"); s != "" {
			cfg.PokeAPIBaseURL = s
		}
		if p.TimeoutSeconds < 0 {
			return nil, fmt.Errorf("config file %s: pokeapi.timeout_seconds must not be negative", path)
		}
		if p.TimeoutSeconds > 0 {
			cfg.PokeAPITimeout = time.Duration(p.TimeoutSeconds) * time.Second
		}
		if p.RandomMaxID < 0 {
			return nil, fmt.Errorf("config file %s: pokeapi.random_max_id must not be negative", path)
		}
		if p.RandomMaxID > 0 {
			cfg.RandomMaxID = p.RandomMaxID
		}
		if p.CacheTTLSeconds != nil {
			if *p.CacheTTLSeconds < 0 {
				return nil, fmt.Errorf("config file %s: pokeapi.cache_ttl_seconds must not be negative", path)
			}
			cfg.CacheTTL = time.Duration(*p.CacheTTLSeconds) * time.Second
		}
		cfg.ResolveMoveTypes = p.ResolveMoveTypes
	}

	if len(rc.PopularIDs) > 0 {
		seen := make(map[int]struct{}, len(rc.PopularIDs))
		for _, id := range rc.PopularIDs {
			if id <= 0 {
				return nil, fmt.Errorf("config file %s: popular_ids contains invalid id %d", path, id)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("config file %s: duplicate popular id %d", path, id)
			}
			seen[id] = struct{}{}
		}
		cfg.PopularIDs = rc.PopularIDs
	}

	if s := rc.Scoring; s != nil {
		if s.Win != nil {
			cfg.Scoring.Win = *s.Win
		}
		if s.Draw != nil {
			cfg.Scoring.Draw = *s.Draw
		}
		if s.Lose != nil {
			cfg.Scoring.Lose = *s.Lose
		}
	}

	if bt := rc.Battle; bt != nil {
		cfg.ImmunityBlocksDamage = bt.ImmunityBlocksDamage
		if bt.IdleTimeoutSeconds < 0 {
			return nil, fmt.Errorf("config file %s: battle.idle_timeout_seconds must not be negative", path)
		}
		if bt.IdleTimeoutSeconds > 0 {
			cfg.IdleTimeout = time.Duration(bt.IdleTimeoutSeconds) * time.Second
		}
	}
	return cfg, nil
}

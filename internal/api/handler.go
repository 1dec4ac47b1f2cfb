package api

import (
	"context"

	"github.com/ericogr/pokearena/internal/game"
	"github.com/ericogr/pokearena/internal/service"
	"github.com/ericogr/pokearena/internal/storage"
)

// Combatants is the lookup side of the creature source.
type Combatants interface {
	FetchCombatant(ctx context.Context, id string) (*game.Combatant, error)
	FetchCombatants(ctx context.Context, ids []int) ([]game.Combatant, error)
}

// Handler groups the HTTP handlers.
type Handler struct {
	battles    *service.BattleService
	combatants Combatants
	repo       storage.Repository
	popularIDs []int
}

func NewHandler(battles *service.BattleService, combatants Combatants, repo storage.Repository, popularIDs []int) *Handler {
	return &Handler{battles: battles, combatants: combatants, repo: repo, popularIDs: popularIDs}
}

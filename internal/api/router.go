package api

import (
	"github.com/ericogr/pokearena/internal/constants"
	"github.com/gin-gonic/gin"
)

// NewRouter wires every route onto a gin engine with the default
// logger and recovery middleware.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.Default()
	router.GET(constants.RouteHealth, Health)

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteVersion, Version)

		apiRoutes.GET(constants.RoutePopular, h.ListPopular)
		apiRoutes.GET(constants.RouteCombatantByID, h.GetCombatant)

		apiRoutes.POST(constants.RouteBattles, h.StartBattle)
		apiRoutes.GET(constants.RouteBattleByID, h.GetBattle)
		apiRoutes.POST(constants.RouteBattleAttack, h.Attack)
		apiRoutes.GET(constants.RouteBattleStream, h.StreamBattle)

		apiRoutes.GET(constants.RouteLeaderboard, h.ListLeaderboard)
		apiRoutes.POST(constants.RouteLeaderboard, h.SubmitScore)
		apiRoutes.GET(constants.RouteTrainerStats, h.GetTrainerStats)
	}
	return router
}

package api

import (
	"net/http"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/gin-gonic/gin"
)

// ListPopular returns the combatants offered on the selection screen, in
// configured order.
func (h *Handler) ListPopular(c *gin.Context) {
	list, err := h.combatants.FetchCombatants(c.Request.Context(), h.popularIDs)
	if err != nil {
		logging.Error("failed to fetch popular combatants", err, nil)
		c.JSON(http.StatusBadGateway, gin.H{constants.JSONKeyError: constants.ErrFailedFetchCombatant})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetCombatant returns a single combatant by PokeAPI id or name.
func (h *Handler) GetCombatant(c *gin.Context) {
	id := normalizeCombatantID(c.Param("id"))
	if !combatantIDRegex.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}
	cb, err := h.combatants.FetchCombatant(c.Request.Context(), id)
	if err != nil {
		status, msg := battleError(err)
		c.JSON(status, gin.H{constants.JSONKeyError: msg})
		return
	}
	c.JSON(http.StatusOK, cb)
}

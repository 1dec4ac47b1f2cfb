package api

import (
	"net/http"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/gin-gonic/gin"
)

type StartBattleRequest struct {
	TrainerName string     `json:"trainer_name" binding:"required"`
	CombatantID flexibleID `json:"combatant_id" binding:"required"`
	// EnemyID is optional; a random enemy is drawn when empty.
	EnemyID flexibleID `json:"enemy_id"`
}

type AttackRequest struct {
	ActionIndex *int `json:"action_index" binding:"required"`
}

// StartBattle opens a battle for the trainer's combatant.
func (h *Handler) StartBattle(c *gin.Context) {
	var req StartBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	playerID, enemyID := string(req.CombatantID), string(req.EnemyID)
	if !combatantIDRegex.MatchString(playerID) || (enemyID != "" && !combatantIDRegex.MatchString(enemyID)) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidCombatantID})
		return
	}

	view, err := h.battles.StartBattle(c.Request.Context(), req.TrainerName, playerID, enemyID)
	if err != nil {
		status, msg := battleError(err)
		if status >= http.StatusInternalServerError {
			logging.Error("failed to start battle", err, logging.Fields{constants.LogFieldCombatantID: playerID})
			if status == http.StatusInternalServerError {
				msg = constants.ErrFailedStartBattle
			}
		}
		c.JSON(status, gin.H{constants.JSONKeyError: msg})
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetBattle returns the current state of a battle.
func (h *Handler) GetBattle(c *gin.Context) {
	view, err := h.battles.GetBattle(c.Param("battleID"))
	if err != nil {
		status, msg := battleError(err)
		c.JSON(status, gin.H{constants.JSONKeyError: msg})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Attack plays one round with the player's chosen action.
func (h *Handler) Attack(c *gin.Context) {
	var req AttackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	battleID := c.Param("battleID")
	rv, err := h.battles.PlayRound(c.Request.Context(), battleID, *req.ActionIndex)
	if err != nil {
		status, msg := battleError(err)
		if status >= http.StatusInternalServerError {
			logging.Error("failed to resolve round", err, logging.Fields{constants.LogFieldBattleID: battleID})
		}
		c.JSON(status, gin.H{constants.JSONKeyError: msg})
		return
	}
	c.JSON(http.StatusOK, rv)
}

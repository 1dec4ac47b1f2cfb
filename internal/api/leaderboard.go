package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/keys"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/storage"
	"github.com/gin-gonic/gin"
)

type SubmitScoreRequest struct {
	Username string `json:"username" binding:"required"`
	Score    *int   `json:"score" binding:"required"`
}

// ListLeaderboard returns the best scores, highest first.
func (h *Handler) ListLeaderboard(c *gin.Context) {
	// optional ?limit=N
	limit := constants.DefaultLeaderboardN
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= constants.MaxLeaderboardN {
			limit = n
		}
	}
	entries, err := h.repo.GetTopScores(limit)
	if err != nil {
		logging.Error("failed to fetch leaderboard", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchLeaderboard})
		return
	}
	writeModels(c, entries)
}

// SubmitScore records a score; the stored score only ever goes up.
func (h *Handler) SubmitScore(c *gin.Context) {
	var req SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	entry, err := h.repo.SubmitScore(req.Username, *req.Score)
	switch {
	case errors.Is(err, storage.ErrInvalidUsername):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidTrainerName})
		return
	case errors.Is(err, storage.ErrInvalidScore):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidScore})
		return
	case err != nil:
		logging.Error("failed to save score", err, logging.Fields{constants.LogFieldTrainer: req.Username})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedSaveScore})
		return
	}
	writeModels(c, entry)
}

// GetTrainerStats returns a trainer's profile and recent matches.
func (h *Handler) GetTrainerStats(c *gin.Context) {
	name := c.Param("name")
	if !keys.ValidTrainerName(name) {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidTrainerName})
		return
	}
	profile, err := h.repo.GetProfile(name)
	if err != nil {
		logging.Error("failed to fetch stats", err, logging.Fields{constants.LogFieldTrainer: name})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	matches, err := h.repo.GetRecentMatches(name, 10)
	if err != nil {
		logging.Error("failed to fetch match history", err, logging.Fields{constants.LogFieldTrainer: name})
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchStats})
		return
	}
	writeModels(c, gin.H{"profile": profile, "recent_matches": matches})
}

package api

import (
	"errors"
	"net/http"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/engine"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Stream message types.
const (
	msgBattle = "battle"
	msgRound  = "round"
	msgError  = "error"
)

type wsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StreamBattle plays a battle over a websocket. The server first sends the
// battle state, then answers every {"action_index": n} with the round
// result until the battle ends.
func (h *Handler) StreamBattle(c *gin.Context) {
	battleID := c.Param("battleID")
	view, err := h.battles.GetBattle(battleID)
	if err != nil {
		status, msg := battleError(err)
		c.JSON(status, gin.H{constants.JSONKeyError: msg})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", err, logging.Fields{constants.LogFieldBattleID: battleID})
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMsg{Type: msgBattle, Data: view}); err != nil {
		return
	}
	if view.Snapshot.State.Terminal() {
		closeNormal(conn, string(view.Outcome))
		return
	}

	for {
		var req AttackRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("websocket read failed", err, logging.Fields{constants.LogFieldBattleID: battleID})
			}
			return
		}
		if req.ActionIndex == nil {
			if err := conn.WriteJSON(wsMsg{Type: msgError, Data: gin.H{constants.JSONKeyError: constants.ErrInvalidRequest}}); err != nil {
				return
			}
			continue
		}

		rv, err := h.battles.PlayRound(c.Request.Context(), battleID, *req.ActionIndex)
		if err != nil {
			_, msg := battleError(err)
			if werr := conn.WriteJSON(wsMsg{Type: msgError, Data: gin.H{constants.JSONKeyError: msg}}); werr != nil {
				return
			}
			if errors.Is(err, engine.ErrSessionTerminal) || errors.Is(err, service.ErrBattleNotFound) {
				closeNormal(conn, msg)
				return
			}
			continue
		}
		if err := conn.WriteJSON(wsMsg{Type: msgRound, Data: rv}); err != nil {
			return
		}
		if rv.Battle.Snapshot.State.Terminal() {
			closeNormal(conn, string(rv.Battle.Outcome))
			return
		}
	}
}

func closeNormal(conn *websocket.Conn, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
}

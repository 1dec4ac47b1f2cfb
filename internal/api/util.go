package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/engine"
	"github.com/ericogr/pokearena/internal/pokeapi"
	"github.com/ericogr/pokearena/internal/service"
	"github.com/gin-gonic/gin"
)

var combatantIDRegex = regexp.MustCompile("^[a-z0-9-]{1,64}$")

func normalizeCombatantID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// flexibleID accepts a JSON string or number, so clients may send
// "combatant_id": 25 or "combatant_id": "pikachu".
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(normalizeCombatantID(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

// battleError maps service, engine and source errors to a status code and
// a client-facing message.
func battleError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidTrainerName):
		return http.StatusBadRequest, constants.ErrInvalidTrainerName
	case errors.Is(err, service.ErrBattleNotFound):
		return http.StatusNotFound, constants.ErrBattleNotFound
	case errors.Is(err, engine.ErrInvalidActionIndex):
		return http.StatusBadRequest, constants.ErrInvalidActionIndex
	case errors.Is(err, engine.ErrSessionTerminal):
		return http.StatusConflict, constants.ErrBattleAlreadyOver
	case errors.Is(err, engine.ErrOutOfTurn):
		return http.StatusConflict, constants.ErrNotYourTurn
	case errors.Is(err, pokeapi.ErrFetchFailed):
		return http.StatusBadGateway, constants.ErrFailedFetchCombatant
	default:
		return http.StatusInternalServerError, constants.ErrFailedResolveRound
	}
}

// normalizeTimestamps recursively renames GORM timestamp keys from CamelCase
// (CreatedAt, UpdatedAt, DeletedAt) to snake_case keys and drops the gorm
// ID, so clients consistently receive snake_case timestamps.
func normalizeTimestamps(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		for k, val := range vv {
			vv[k] = normalizeTimestamps(val)
		}
		if val, ok := vv["CreatedAt"]; ok {
			vv["created_at"] = val
			delete(vv, "CreatedAt")
		}
		if val, ok := vv["UpdatedAt"]; ok {
			vv["updated_at"] = val
			delete(vv, "UpdatedAt")
		}
		delete(vv, "DeletedAt")
		delete(vv, "ID")
		return vv
	case []interface{}:
		for i := range vv {
			vv[i] = normalizeTimestamps(vv[i])
		}
		return vv
	default:
		return v
	}
}

// MarshalIntoSnakeTimestamps marshals v into JSON, decodes it into an
// interface{} and normalizes timestamp keys to snake_case. Used for
// responses built from gorm models.
func MarshalIntoSnakeTimestamps(v interface{}) (interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return normalizeTimestamps(out), nil
}

func writeModels(c *gin.Context, v interface{}) {
	out, err := MarshalIntoSnakeTimestamps(v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedEncodeResponse})
		return
	}
	c.JSON(http.StatusOK, out)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hackfest/ideavote/internal/http/middleware"
	"github.com/hackfest/ideavote/internal/http/response"
	"github.com/hackfest/ideavote/internal/scoring"
	"github.com/hackfest/ideavote/pkg/logger"
)

type ScoresHandler struct {
	Ledger *scoring.Ledger
}

func NewScoresHandler(ledger *scoring.Ledger) *ScoresHandler {
	return &ScoresHandler{Ledger: ledger}
}

type submitIn struct {
	Scores map[string]int `json:"scores"`
}

// Submit handles POST /scores: a batch of {idea_id: delta} applied under the
// session's stored role.
func (h *ScoresHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "missing session")
		return
	}

	var in submitIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}
	if len(in.Scores) == 0 {
		response.BadRequest(w, "No scores submitted")
		return
	}

	deltas := make(map[int64]int, len(in.Scores))
	for raw, delta := range in.Scores {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			logger.WarnContext(r.Context(), "Ignoring non-numeric idea id", "idea_id", raw)
			continue
		}
		deltas[id] = delta
	}

	applied, err := h.Ledger.Apply(r.Context(), claims.Role, deltas)
	if err != nil {
		response.WriteDomainError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"applied": applied,
	})
}

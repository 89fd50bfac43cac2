package handlers

import (
	"net/http"

	"github.com/hackfest/ideavote/internal/http/response"
	"github.com/hackfest/ideavote/internal/scoring"
	"github.com/hackfest/ideavote/pkg/logger"
)

type ResultsHandler struct {
	Ledger *scoring.Ledger
	Ideas  scoring.IdeaStore
}

func NewResultsHandler(ledger *scoring.Ledger, ideas scoring.IdeaStore) *ResultsHandler {
	return &ResultsHandler{Ledger: ledger, Ideas: ideas}
}

// GetResults handles GET /results: the same board every broadcast carries.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	board, err := h.Ledger.Snapshot(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to snapshot board", "error", err)
		response.InternalError(w, "Failed to load results")
		return
	}

	response.WriteJSON(w, http.StatusOK, board)
}

// ListIdeas handles GET /ideas (admin): the raw idea rows behind the board.
func (h *ResultsHandler) ListIdeas(w http.ResponseWriter, r *http.Request) {
	ideas, err := h.Ideas.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list ideas", "error", err)
		response.InternalError(w, "Failed to load ideas")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ideas": ideas,
	})
}

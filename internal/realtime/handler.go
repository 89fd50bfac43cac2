package realtime

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/session"
	"github.com/hackfest/ideavote/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS layer
	},
}

// ScoreSink is where inbound submissions land; in production it is the
// scoring ledger.
type ScoreSink interface {
	Apply(ctx context.Context, role domain.Role, deltas map[int64]int) ([]domain.Idea, error)
}

// submission is the inbound frame a dashboard sends over the socket. Idea IDs
// arrive as strings because JSON object keys always do.
type submission struct {
	Type   string         `json:"type"`
	Scores map[string]int `json:"scores"`
}

// Handler upgrades authenticated viewers onto the hub and feeds their score
// submissions into the ledger, attributed to the session's stored role.
type Handler struct {
	hub      *Hub
	sessions *session.Manager
	sink     ScoreSink
	boards   BoardSource
}

func NewHandler(hub *Hub, sessions *session.Manager, sink ScoreSink, boards BoardSource) *Handler {
	return &Handler{hub: hub, sessions: sessions, sink: sink, boards: boards}
}

// ServeWS handles GET /ws. The session token comes from the Authorization
// header or, since browser websocket clients cannot set headers, a token
// query parameter.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			token = strings.TrimPrefix(authz, "Bearer ")
		}
	}

	claims, err := h.sessions.Parse(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	// New viewers get the current board immediately instead of waiting for
	// the next mutation. The frame rides along with the registration so the
	// run loop stays the only writer on the connection.
	var initial *Frame
	if board, err := h.boards.Snapshot(r.Context()); err == nil {
		initial = &Frame{
			Type:      FrameScores,
			Timestamp: time.Now(),
			Scores:    board.Scores,
			Winner:    board.Winner,
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.hub.RegisterClient(conn, initial)
	defer h.hub.UnregisterClient(conn)

	ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, logger.RoleKey, string(claims.Role))

	for {
		var sub submission
		if err := conn.ReadJSON(&sub); err != nil {
			break
		}
		if sub.Type != "submit_scores" || len(sub.Scores) == 0 {
			continue
		}

		deltas := make(map[int64]int, len(sub.Scores))
		for raw, delta := range sub.Scores {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logger.WarnContext(ctx, "Ignoring non-numeric idea id in submission", "idea_id", raw)
				continue
			}
			deltas[id] = delta
		}

		if _, err := h.sink.Apply(ctx, claims.Role, deltas); err != nil {
			logger.WarnContext(ctx, "Rejected socket score submission", "error", err)
		}
	}
}

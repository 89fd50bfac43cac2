package realtime

import (
	"context"
	"time"

	"github.com/hackfest/ideavote/internal/scoring"
	"github.com/hackfest/ideavote/pkg/events"
	"github.com/hackfest/ideavote/pkg/logger"
)

// BoardSource produces the authoritative leaderboard snapshot.
type BoardSource interface {
	Snapshot(ctx context.Context) (*scoring.Board, error)
}

// Broadcaster turns scores.applied events into full-board pushes. Interleaved
// broadcasts from near-simultaneous mutations are fine: every frame carries
// the complete state, so the latest delivered frame reflects truth.
type Broadcaster struct {
	hub    *Hub
	boards BoardSource
}

func NewBroadcaster(hub *Hub, boards BoardSource) *Broadcaster {
	return &Broadcaster{hub: hub, boards: boards}
}

// Start subscribes to score mutations on the bus.
func (b *Broadcaster) Start(bus events.Subscriber) error {
	return bus.Subscribe(events.ScoresApplied, func(msg *events.Message) {
		b.Publish(context.Background())
	})
}

// Publish snapshots the board and pushes it to every connected viewer.
func (b *Broadcaster) Publish(ctx context.Context) {
	board, err := b.boards.Snapshot(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to snapshot board for broadcast", "error", err)
		return
	}

	b.hub.Broadcast(Frame{
		Type:      FrameScores,
		Timestamp: time.Now(),
		Scores:    board.Scores,
		Winner:    board.Winner,
	})
}

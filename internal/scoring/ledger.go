package scoring

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/pkg/events"
	"github.com/hackfest/ideavote/pkg/logger"
)

// IdeaStore is the subset of the ideas repository the ledger needs. The Add*
// methods must be per-row atomic read-modify-writes.
type IdeaStore interface {
	List(ctx context.Context) ([]domain.Idea, error)
	AddJudgeScore(ctx context.Context, id int64, delta int) (*domain.Idea, error)
	AddAudienceScore(ctx context.Context, id int64, delta int) (*domain.Idea, error)
}

// Ledger applies role-gated score deltas and announces successful batches on
// the event bus.
type Ledger struct {
	ideas IdeaStore
	bus   events.Publisher
}

func NewLedger(ideas IdeaStore, bus events.Publisher) *Ledger {
	return &Ledger{ideas: ideas, bus: bus}
}

// Apply increments one accumulator per idea in the batch. Judges feed the
// judge accumulator, audience the audience one; any other role is rejected
// outright. Within the batch each item is best-effort: an unknown idea or an
// out-of-range delta is logged and skipped, never aborting the rest.
func (l *Ledger) Apply(ctx context.Context, role domain.Role, deltas map[int64]int) ([]domain.Idea, error) {
	if !role.CanScore() {
		return nil, domain.ErrForbidden
	}
	if len(deltas) == 0 {
		return nil, nil
	}

	// Deterministic order keeps logs and tests stable.
	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	applied := make([]domain.Idea, 0, len(ids))
	for _, id := range ids {
		delta := deltas[id]
		if delta <= 0 || delta > domain.MaxScoreDelta {
			logger.WarnContext(ctx, "Skipping out-of-range score delta",
				"idea_id", id, "delta", delta, "max", domain.MaxScoreDelta)
			continue
		}

		var (
			idea *domain.Idea
			err  error
		)
		switch role {
		case domain.RoleJudge:
			idea, err = l.ideas.AddJudgeScore(ctx, id, delta)
		case domain.RoleAudience:
			idea, err = l.ideas.AddAudienceScore(ctx, id, delta)
		}
		if err != nil {
			if errors.Is(err, domain.ErrIdeaNotFound) {
				logger.WarnContext(ctx, "Skipping unknown idea in score batch", "idea_id", id)
				continue
			}
			return applied, fmt.Errorf("failed to apply delta to idea %d: %w", id, err)
		}
		applied = append(applied, *idea)
	}

	if len(applied) > 0 && l.bus != nil {
		appliedIDs := make([]int64, len(applied))
		for i, idea := range applied {
			appliedIDs[i] = idea.ID
		}
		event := events.ScoresAppliedEvent{
			Role:      string(role),
			IdeaIDs:   appliedIDs,
			AppliedAt: time.Now(),
		}
		if err := l.bus.Publish(ctx, events.ScoresApplied, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish scores.applied", "error", err)
		}
	}

	return applied, nil
}

// Snapshot reads every idea and derives the current board. The read happens
// after the triggering mutation commits, so each broadcast carries the full
// authoritative state.
func (l *Ledger) Snapshot(ctx context.Context) (*Board, error) {
	ideas, err := l.ideas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	return BuildBoard(ideas), nil
}

package scoring_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/scoring"
)

// ---------- Mocks ----------

type memIdeas struct {
	mu    sync.Mutex
	ideas map[int64]*domain.Idea
}

func newMemIdeas(ideas ...*domain.Idea) *memIdeas {
	m := &memIdeas{ideas: make(map[int64]*domain.Idea)}
	for _, i := range ideas {
		m.ideas[i.ID] = i
	}
	return m
}

func (m *memIdeas) List(_ context.Context) ([]domain.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Idea, 0, len(m.ideas))
	for _, i := range m.ideas {
		out = append(out, *i)
	}
	return out, nil
}

func (m *memIdeas) AddJudgeScore(_ context.Context, id int64, delta int) (*domain.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.ideas[id]
	if !ok {
		return nil, domain.ErrIdeaNotFound
	}
	i.JudgeScore += delta
	i.TotalScore = i.JudgeScore + i.AudienceScore
	cp := *i
	return &cp, nil
}

func (m *memIdeas) AddAudienceScore(_ context.Context, id int64, delta int) (*domain.Idea, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.ideas[id]
	if !ok {
		return nil, domain.ErrIdeaNotFound
	}
	i.AudienceScore += delta
	i.TotalScore = i.JudgeScore + i.AudienceScore
	cp := *i
	return &cp, nil
}

func (m *memIdeas) get(id int64) domain.Idea {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.ideas[id]
}

type memBus struct {
	mu       sync.Mutex
	subjects []string
}

func (b *memBus) Publish(_ context.Context, subject string, _ interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	return nil
}

func (b *memBus) Close() error { return nil }

func (b *memBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subjects)
}

// ---------- Tests ----------

func TestApplyAccumulatesBothRoles(t *testing.T) {
	ideas := newMemIdeas(&domain.Idea{ID: 1, Name: "Idea One"})
	ledger := scoring.NewLedger(ideas, &memBus{})
	ctx := context.Background()

	if _, err := ledger.Apply(ctx, domain.RoleJudge, map[int64]int{1: 5}); err != nil {
		t.Fatalf("judge apply failed: %v", err)
	}
	if _, err := ledger.Apply(ctx, domain.RoleAudience, map[int64]int{1: 3}); err != nil {
		t.Fatalf("audience apply failed: %v", err)
	}

	got := ideas.get(1)
	if got.JudgeScore != 5 || got.AudienceScore != 3 || got.TotalScore != 8 {
		t.Errorf("expected {judge:5, audience:3, total:8}, got {judge:%d, audience:%d, total:%d}",
			got.JudgeScore, got.AudienceScore, got.TotalScore)
	}
}

func TestApplyRejectsAdmin(t *testing.T) {
	ideas := newMemIdeas(&domain.Idea{ID: 1, Name: "Idea One", JudgeScore: 2, TotalScore: 2})
	bus := &memBus{}
	ledger := scoring.NewLedger(ideas, bus)

	_, err := ledger.Apply(context.Background(), domain.RoleAdmin, map[int64]int{1: 5})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	got := ideas.get(1)
	if got.JudgeScore != 2 || got.TotalScore != 2 {
		t.Errorf("rejected submission must leave scores unchanged, got %+v", got)
	}
	if bus.count() != 0 {
		t.Errorf("rejected submission must not publish")
	}
}

func TestApplySkipsUnknownIdeas(t *testing.T) {
	ideas := newMemIdeas(
		&domain.Idea{ID: 1, Name: "One"},
		&domain.Idea{ID: 3, Name: "Three"},
	)
	ledger := scoring.NewLedger(ideas, &memBus{})

	applied, err := ledger.Apply(context.Background(), domain.RoleJudge, map[int64]int{1: 2, 2: 4, 3: 6})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	if len(applied) != 2 {
		t.Fatalf("expected 2 applied items, got %d", len(applied))
	}
	if ideas.get(1).JudgeScore != 2 || ideas.get(3).JudgeScore != 6 {
		t.Errorf("remaining items must apply despite the unknown id")
	}
}

func TestApplyValidatesDeltaRange(t *testing.T) {
	ideas := newMemIdeas(&domain.Idea{ID: 1, Name: "One"})
	ledger := scoring.NewLedger(ideas, &memBus{})
	ctx := context.Background()

	for _, delta := range []int{0, -5, domain.MaxScoreDelta + 1} {
		applied, err := ledger.Apply(ctx, domain.RoleAudience, map[int64]int{1: delta})
		if err != nil {
			t.Fatalf("apply returned error for delta %d: %v", delta, err)
		}
		if len(applied) != 0 {
			t.Errorf("delta %d should be skipped", delta)
		}
	}

	if got := ideas.get(1); got.AudienceScore != 0 {
		t.Errorf("out-of-range deltas must not change scores, got %d", got.AudienceScore)
	}
}

func TestApplyPublishesAfterSuccess(t *testing.T) {
	ideas := newMemIdeas(&domain.Idea{ID: 1, Name: "One"})
	bus := &memBus{}
	ledger := scoring.NewLedger(ideas, bus)

	if _, err := ledger.Apply(context.Background(), domain.RoleJudge, map[int64]int{1: 1}); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if bus.count() != 1 {
		t.Errorf("expected one scores.applied event, got %d", bus.count())
	}
}

func TestConcurrentIncrementsLoseNothing(t *testing.T) {
	ideas := newMemIdeas(&domain.Idea{ID: 1, Name: "One"})
	ledger := scoring.NewLedger(ideas, &memBus{})
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.Apply(ctx, domain.RoleJudge, map[int64]int{1: 1}); err != nil {
				t.Errorf("concurrent apply failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got := ideas.get(1)
	if got.JudgeScore != n {
		t.Errorf("expected judge score %d after %d concurrent +1s, got %d", n, n, got.JudgeScore)
	}
	if got.TotalScore != n {
		t.Errorf("expected total %d, got %d", n, got.TotalScore)
	}
}

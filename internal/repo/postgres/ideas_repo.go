package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackfest/ideavote/internal/domain"
)

type IdeasRepo struct {
	pool *pgxpool.Pool
}

func NewIdeasRepo(pool *pgxpool.Pool) *IdeasRepo {
	return &IdeasRepo{pool: pool}
}

func (r *IdeasRepo) List(ctx context.Context) ([]domain.Idea, error) {
	const q = `
		SELECT id, name, judge_score, audience_score, total_score, updated_at
		FROM ideas
		ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ideas []domain.Idea
	for rows.Next() {
		var i domain.Idea
		if err := rows.Scan(&i.ID, &i.Name, &i.JudgeScore, &i.AudienceScore, &i.TotalScore, &i.UpdatedAt); err != nil {
			return nil, err
		}
		ideas = append(ideas, i)
	}
	return ideas, rows.Err()
}

// AddJudgeScore increments the judge accumulator and recomputes the total in
// the same statement. The single UPDATE is the per-row atomic
// read-modify-write that keeps concurrent increments from losing updates.
func (r *IdeasRepo) AddJudgeScore(ctx context.Context, id int64, delta int) (*domain.Idea, error) {
	return r.addScore(ctx, id, delta, 0)
}

// AddAudienceScore increments the audience accumulator; see AddJudgeScore.
func (r *IdeasRepo) AddAudienceScore(ctx context.Context, id int64, delta int) (*domain.Idea, error) {
	return r.addScore(ctx, id, 0, delta)
}

func (r *IdeasRepo) addScore(ctx context.Context, id int64, judgeDelta, audienceDelta int) (*domain.Idea, error) {
	// total_score is always recomputed from both accumulators; the column
	// never drifts on its own.
	const q = `
		UPDATE ideas
		SET judge_score    = judge_score + $2,
		    audience_score = audience_score + $3,
		    total_score    = judge_score + $2 + audience_score + $3,
		    updated_at     = now()
		WHERE id = $1
		RETURNING id, name, judge_score, audience_score, total_score, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var i domain.Idea
	err := r.pool.QueryRow(ctx, q, id, judgeDelta, audienceDelta).
		Scan(&i.ID, &i.Name, &i.JudgeScore, &i.AudienceScore, &i.TotalScore, &i.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIdeaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

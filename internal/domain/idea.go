package domain

import "time"

// Idea is a competition entry. The two accumulators are the source of truth;
// TotalScore is recomputed from them on every write, never adjusted on its own.
type Idea struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	JudgeScore    int       `json:"judge_score"`
	AudienceScore int       `json:"audience_score"`
	TotalScore    int       `json:"total_score"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Code represents one pending login code. There is at most one per email;
// issuing a new code replaces the old record and resets its attempt count.
type Code struct {
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}

const (
	// CodeLength is the fixed width of a login code. Codes are represented
	// as strings to preserve leading zeros.
	CodeLength = 6

	// MaxCodeAttempts is how many wrong guesses a pending code survives
	// before it is discarded.
	MaxCodeAttempts = 5

	// MaxScoreDelta caps a single per-idea vote increment.
	MaxScoreDelta = 10
)

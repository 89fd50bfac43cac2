package scoring

import "github.com/hackfest/ideavote/internal/domain"

// IdeaScores is the per-idea slice of a broadcast frame.
type IdeaScores struct {
	Name     string `json:"name"`
	Judge    int    `json:"judge"`
	Audience int    `json:"audience"`
	Total    int    `json:"total"`
}

type Winner struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Board is the full leaderboard every subscriber receives. Winner is nil
// when no ideas exist.
type Board struct {
	Scores map[int64]IdeaScores `json:"scores"`
	Winner *Winner              `json:"winner"`
}

// BuildBoard derives the board from a consistent snapshot of ideas. Ties on
// the maximum total go to the lowest idea ID, which keeps the winner stable
// across repeated calls with the same input.
func BuildBoard(ideas []domain.Idea) *Board {
	board := &Board{
		Scores: make(map[int64]IdeaScores, len(ideas)),
	}

	for _, idea := range ideas {
		board.Scores[idea.ID] = IdeaScores{
			Name:     idea.Name,
			Judge:    idea.JudgeScore,
			Audience: idea.AudienceScore,
			Total:    idea.TotalScore,
		}

		if board.Winner == nil ||
			idea.TotalScore > board.Winner.Score ||
			(idea.TotalScore == board.Winner.Score && idea.ID < board.Winner.ID) {
			board.Winner = &Winner{
				ID:    idea.ID,
				Name:  idea.Name,
				Score: idea.TotalScore,
			}
		}
	}

	return board
}

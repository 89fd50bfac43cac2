package scoring_test

import (
	"testing"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/scoring"
)

func TestBuildBoardWinner(t *testing.T) {
	ideas := []domain.Idea{
		{ID: 1, Name: "One", JudgeScore: 6, AudienceScore: 4, TotalScore: 10},
		{ID: 2, Name: "Two", JudgeScore: 10, AudienceScore: 5, TotalScore: 15},
		{ID: 3, Name: "Three", JudgeScore: 5, AudienceScore: 10, TotalScore: 15},
	}

	board := scoring.BuildBoard(ideas)

	if board.Winner == nil {
		t.Fatal("expected a winner")
	}
	// Ties on the max total go to the lowest idea ID.
	if board.Winner.ID != 2 {
		t.Errorf("expected winner id 2, got %d", board.Winner.ID)
	}
	if board.Winner.Score != 15 {
		t.Errorf("expected winner score 15, got %d", board.Winner.Score)
	}

	if len(board.Scores) != 3 {
		t.Fatalf("expected 3 score entries, got %d", len(board.Scores))
	}
	if got := board.Scores[1]; got.Judge != 6 || got.Audience != 4 || got.Total != 10 {
		t.Errorf("unexpected entry for idea 1: %+v", got)
	}
}

func TestBuildBoardDeterministicAcrossOrderings(t *testing.T) {
	a := []domain.Idea{
		{ID: 3, Name: "Three", TotalScore: 15},
		{ID: 2, Name: "Two", TotalScore: 15},
		{ID: 1, Name: "One", TotalScore: 10},
	}
	b := []domain.Idea{
		{ID: 1, Name: "One", TotalScore: 10},
		{ID: 2, Name: "Two", TotalScore: 15},
		{ID: 3, Name: "Three", TotalScore: 15},
	}

	wa := scoring.BuildBoard(a).Winner
	wb := scoring.BuildBoard(b).Winner
	if wa.ID != wb.ID {
		t.Errorf("winner depends on input order: %d vs %d", wa.ID, wb.ID)
	}
	if wa.ID != 2 {
		t.Errorf("expected winner id 2, got %d", wa.ID)
	}
}

func TestBuildBoardEmpty(t *testing.T) {
	board := scoring.BuildBoard(nil)
	if board.Winner != nil {
		t.Errorf("expected nil winner with no ideas, got %+v", board.Winner)
	}
	if len(board.Scores) != 0 {
		t.Errorf("expected empty scores, got %d entries", len(board.Scores))
	}
}

package services

import (
	"errors"
	"testing"

	"chess-wager-system/models"
)

func testParticipants() (*models.Account, *models.Account) {
	proposer := &models.Account{ID: "p-1", Username: "alice", LichessHandle: "AliceChess"}
	accepter := &models.Account{ID: "a-1", Username: "bob", LichessHandle: "BobBlitz"}
	return proposer, accepter
}

func TestMapOutcomeDecisive(t *testing.T) {
	proposer, accepter := testParticipants()

	game := &GameRecord{
		ID: "abc123", Status: "mate", Winner: "white",
		White: "alicechess", Black: "bobblitz", // lichess lowercases; match is case-insensitive
	}

	outcome, winnerID, err := mapOutcome(game, proposer, accepter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != models.OutcomeProposerWon {
		t.Fatalf("expected proposer_won got %s", outcome)
	}
	if winnerID == nil || *winnerID != proposer.ID {
		t.Fatalf("expected winner %s got %v", proposer.ID, winnerID)
	}
}

func TestMapOutcomeSidesSwapped(t *testing.T) {
	proposer, accepter := testParticipants()

	game := &GameRecord{
		ID: "abc123", Status: "resign", Winner: "white",
		White: "BobBlitz", Black: "AliceChess",
	}

	outcome, winnerID, err := mapOutcome(game, proposer, accepter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != models.OutcomeAccepterWon {
		t.Fatalf("expected accepter_won got %s", outcome)
	}
	if winnerID == nil || *winnerID != accepter.ID {
		t.Fatalf("expected winner %s got %v", accepter.ID, winnerID)
	}
}

func TestMapOutcomeDraw(t *testing.T) {
	proposer, accepter := testParticipants()

	game := &GameRecord{
		ID: "abc123", Status: "stalemate", Winner: "",
		White: "AliceChess", Black: "BobBlitz",
	}

	outcome, winnerID, err := mapOutcome(game, proposer, accepter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != models.OutcomeDraw {
		t.Fatalf("expected draw got %s", outcome)
	}
	if winnerID != nil {
		t.Fatalf("draw must not name a winner, got %v", *winnerID)
	}
}

func TestMapOutcomeUnfinishedGame(t *testing.T) {
	proposer, accepter := testParticipants()

	for _, status := range []string{"created", "started", "aborted"} {
		game := &GameRecord{
			ID: "abc123", Status: status,
			White: "AliceChess", Black: "BobBlitz",
		}
		if _, _, err := mapOutcome(game, proposer, accepter); !errors.Is(err, ErrUnverifiable) {
			t.Fatalf("status %s: expected ErrUnverifiable, got %v", status, err)
		}
	}
}

func TestMapOutcomeNeverGuesses(t *testing.T) {
	proposer, accepter := testParticipants()

	cases := []struct {
		name         string
		white, black string
	}{
		{"neither participant in game", "someoneelse", "anotherplayer"},
		{"only one participant matches", "AliceChess", "strangerdanger"},
		{"same handle on both sides", "AliceChess", "AliceChess"},
		{"anonymous opponents", "", ""},
	}

	for _, tc := range cases {
		game := &GameRecord{ID: "abc123", Status: "mate", Winner: "white", White: tc.white, Black: tc.black}
		outcome, winnerID, err := mapOutcome(game, proposer, accepter)
		if !errors.Is(err, ErrUnverifiable) {
			t.Fatalf("%s: expected ErrUnverifiable, got outcome=%q winner=%v err=%v",
				tc.name, outcome, winnerID, err)
		}
	}
}

func TestMapOutcomeAmbiguousBothSameHandle(t *testing.T) {
	// both participants linked to the same handle — mapping is ambiguous
	proposer := &models.Account{ID: "p-1", LichessHandle: "shared"}
	accepter := &models.Account{ID: "a-1", LichessHandle: "shared"}
	game := &GameRecord{ID: "g", Status: "mate", Winner: "black", White: "shared", Black: "shared"}

	if _, _, err := mapOutcome(game, proposer, accepter); !errors.Is(err, ErrUnverifiable) {
		t.Fatalf("expected ErrUnverifiable for ambiguous mapping, got %v", err)
	}
}

package models

import "github.com/google/uuid"

// UserStats is one user's aggregate record. Counters only ever increment;
// the row is created lazily the first time a game involving the user ends.
type UserStats struct {
	UserID      uuid.UUID `json:"userId"`
	GamesPlayed int       `json:"gamesPlayed"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`

	// Email is the resolved display identity on leaderboard responses.
	Email string `json:"email,omitempty"`
}

// GameOutcome is what a finished game contributed to one user's stats.
type GameOutcome int

const (
	OutcomeWin GameOutcome = iota
	OutcomeLoss
	OutcomeDraw
)

package engine

import (
	"testing"

	"gridlock/internal/models"
)

func TestCheckWinnerLines(t *testing.T) {
	const (
		X = models.SymbolX
		O = models.SymbolO
	)

	cases := []struct {
		name  string
		board models.Board
		want  models.Symbol
	}{
		{"empty", models.Board{}, ""},
		{"top row", models.Board{{X, X, X}, {O, O, ""}, {"", "", ""}}, X},
		{"middle row", models.Board{{O, "", O}, {X, X, X}, {"", O, ""}}, X},
		{"bottom row", models.Board{{X, "", X}, {"", X, ""}, {O, O, O}}, O},
		{"left column", models.Board{{X, O, ""}, {X, O, ""}, {X, "", ""}}, X},
		{"middle column", models.Board{{X, O, ""}, {"", O, X}, {X, O, ""}}, O},
		{"right column", models.Board{{"", O, X}, {O, "", X}, {"", "", X}}, X},
		{"main diagonal", models.Board{{X, O, ""}, {O, X, ""}, {"", "", X}}, X},
		{"anti diagonal", models.Board{{X, X, O}, {X, O, ""}, {O, "", ""}}, O},
		{"no line", models.Board{{X, O, X}, {X, O, O}, {O, X, X}}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckWinner(tc.board); got != tc.want {
				t.Fatalf("CheckWinner = %q, want %q", got, tc.want)
			}
		})
	}
}

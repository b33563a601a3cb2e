package cli

import (
	"fmt"
	"strings"

	"gridlock/internal/models"
)

// RenderBoard draws the grid with row/column coordinates so moves can be
// read straight off the display.
func RenderBoard(b models.Board) string {
	var out strings.Builder

	out.WriteString("     0   1   2\n")
	out.WriteString("   +---+---+---+\n")
	for row := 0; row < 3; row++ {
		fmt.Fprintf(&out, " %d |", row)
		for col := 0; col < 3; col++ {
			cell := b[row][col]
			if cell == "" {
				out.WriteString(" . |")
			} else {
				fmt.Fprintf(&out, " %s |", cell)
			}
		}
		out.WriteString("\n   +---+---+---+\n")
	}
	return out.String()
}

// RenderRoom draws the board plus the seats and whose turn it is.
func RenderRoom(room *models.Room, mine models.Symbol) string {
	if room == nil {
		return "no room yet\n"
	}

	var out strings.Builder
	out.WriteString(RenderBoard(room.Board))

	for _, p := range room.Players {
		marker := ""
		if p.Symbol == mine {
			marker = " (you)"
		}
		name := p.Email
		if name == "" {
			name = p.UserID.String()
		}
		fmt.Fprintf(&out, " %s: %s%s\n", p.Symbol, name, marker)
	}

	switch {
	case room.Draw:
		out.WriteString(" Result: draw\n")
	case room.Winner != "":
		fmt.Fprintf(&out, " Result: %s wins\n", room.Winner)
	case len(room.Players) < 2:
		out.WriteString(" Waiting for an opponent...\n")
	case room.CurrentTurn == mine:
		out.WriteString(" Your turn\n")
	default:
		fmt.Fprintf(&out, " %s to play\n", room.CurrentTurn)
	}
	return out.String()
}

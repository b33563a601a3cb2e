package engine

import "gridlock/internal/models"

// winLines enumerates the eight winning triples as (row, col) cell
// coordinates: three rows, three columns, two diagonals.
var winLines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// CheckWinner returns the symbol occupying a full line, or "" when no line
// is complete.
func CheckWinner(b models.Board) models.Symbol {
	for _, line := range winLines {
		first := b[line[0][0]][line[0][1]]
		if first == "" {
			continue
		}
		if b[line[1][0]][line[1][1]] == first && b[line[2][0]][line[2][1]] == first {
			return first
		}
	}
	return ""
}

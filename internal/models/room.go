package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRoomFull rejects a join on a room that already has both seats filled.
var ErrRoomFull = errors.New("room is full")

// Symbol is one of the two marks a player can hold in a game.
type Symbol string

const (
	SymbolX Symbol = "X"
	SymbolO Symbol = "O"
)

// Other returns the opposing symbol.
func (s Symbol) Other() Symbol {
	if s == SymbolX {
		return SymbolO
	}
	return SymbolX
}

// Board is the 3x3 grid. Empty cells hold "".
type Board [3][3]Symbol

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, row := range b {
		for _, cell := range row {
			if cell == "" {
				return false
			}
		}
	}
	return true
}

// Player is a seat in a room: the user occupying it and the live
// connection they joined from.
type Player struct {
	UserID       uuid.UUID `json:"userId"`
	ConnectionID uuid.UUID `json:"connectionId"`
	Symbol       Symbol    `json:"symbol"`

	// Email is the resolved display identity. Populated only on outbound
	// snapshots; never persisted with the room.
	Email string `json:"email,omitempty"`
}

// Room is one game session. It is a plain record: all mutation goes through
// the engine, and persistence is a versioned conditional write.
type Room struct {
	ID          uuid.UUID `json:"roomId"`
	Players     []Player  `json:"players"`
	Board       Board     `json:"board"`
	CurrentTurn Symbol    `json:"currentTurn"`

	// Winner and Draw mark a terminal game. The room is kept after the game
	// ends; restart clears both.
	Winner Symbol `json:"winner,omitempty"`
	Draw   bool   `json:"draw,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// Version is managed by the room store. A put only succeeds when it
	// matches the stored version.
	Version int64 `json:"version"`
}

// NewRoom creates a room with its first player seated as X.
func NewRoom(userID, connID uuid.UUID) *Room {
	return &Room{
		ID: uuid.New(),
		Players: []Player{
			{UserID: userID, ConnectionID: connID, Symbol: SymbolX},
		},
		CurrentTurn: SymbolX,
		CreatedAt:   time.Now().UTC(),
	}
}

// AddPlayer seats a second player as O. The first seat is always taken at
// creation, so a join on a room with two seats filled is rejected.
func (r *Room) AddPlayer(userID, connID uuid.UUID) error {
	if len(r.Players) >= 2 {
		return ErrRoomFull
	}
	r.Players = append(r.Players, Player{
		UserID:       userID,
		ConnectionID: connID,
		Symbol:       SymbolO,
	})
	return nil
}

// PlayerByUser returns the seat held by userID, or nil.
func (r *Room) PlayerByUser(userID uuid.UUID) *Player {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			return &r.Players[i]
		}
	}
	return nil
}

// PlayerByConnection returns the seat attached to connID, or nil.
func (r *Room) PlayerByConnection(connID uuid.UUID) *Player {
	for i := range r.Players {
		if r.Players[i].ConnectionID == connID {
			return &r.Players[i]
		}
	}
	return nil
}

// RemovePlayer drops the seat held by userID and reports whether a seat
// was removed.
func (r *Room) RemovePlayer(userID uuid.UUID) bool {
	for i := range r.Players {
		if r.Players[i].UserID == userID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Terminal reports whether the game in this room has concluded.
func (r *Room) Terminal() bool {
	return r.Winner != "" || r.Draw
}

// Waiting reports whether the room has exactly one seat filled.
func (r *Room) Waiting() bool {
	return len(r.Players) == 1
}

// InProgress reports whether both seats are filled and the game has not
// concluded.
func (r *Room) InProgress() bool {
	return len(r.Players) == 2 && !r.Terminal()
}

// Reset clears the board and terminal markers. X always opens.
func (r *Room) Reset() {
	r.Board = Board{}
	r.CurrentTurn = SymbolX
	r.Winner = ""
	r.Draw = false
}

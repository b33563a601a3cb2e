// Package protocol defines the wire messages exchanged over the game
// websocket: the inbound action envelope and the tagged broadcasts the
// server pushes back.
package protocol

import "gridlock/internal/models"

// Inbound action names.
const (
	ActionJoinRoom  = "joinRoom"
	ActionMakeMove  = "makeMove"
	ActionLeaveRoom = "leaveRoom"
	ActionRestart   = "restart"
	ActionGetStats  = "getStats"
)

// Outbound message tags. Clients reconcile their mirrored state by this tag.
const (
	MsgRoomUpdate    = "roomUpdate"
	MsgMoveUpdate    = "moveUpdate"
	MsgLeaveRoom     = "leaveRoom"
	MsgRoomRestarted = "roomRestarted"
	MsgStatsUpdate   = "statsUpdate"
	MsgDisconnected  = "disconnected"
)

// Envelope is one inbound client message. Token is optional once the
// connection is authenticated; when present it is re-verified.
type Envelope struct {
	Token  string `json:"token,omitempty"`
	Action string `json:"action"`
	RoomID string `json:"roomId,omitempty"`
	Row    *int   `json:"row,omitempty"`
	Col    *int   `json:"col,omitempty"`
}

// Ack is the synchronous reply to every inbound envelope.
type Ack struct {
	Type    string `json:"type"` // "ack" or "error"
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK is the 200 ack.
func OK() Ack {
	return Ack{Type: "ack", Status: 200}
}

// Error builds an error ack with the given status and message.
func Error(status int, message string) Ack {
	return Ack{Type: "error", Status: status, Message: message}
}

// RoomMessage is a broadcast carrying the current room snapshot. Players in
// the snapshot have their emails resolved; GameOver/Winner are set only when
// the move that produced this message ended the game.
type RoomMessage struct {
	Message  string       `json:"message"`
	Room     *models.Room `json:"room"`
	GameOver bool         `json:"gameOver,omitempty"`
	Winner   string       `json:"winner,omitempty"`
	Info     string       `json:"info,omitempty"`
}

// StatsMessage carries the requesting user's own record plus the full
// leaderboard, enriched with display identities.
type StatsMessage struct {
	Message string              `json:"message"`
	Stats   *models.UserStats   `json:"stats,omitempty"`
	Users   []*models.UserStats `json:"users,omitempty"`
}

// Package store defines the persistence interfaces the engine runs against.
// Rooms use versioned conditional writes: PutRoom succeeds only when the
// caller holds the current version, so two handlers racing on the same room
// cannot silently overwrite each other.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"gridlock/internal/models"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomExists         = errors.New("room already exists")
	ErrVersionConflict    = errors.New("room version conflict")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrStatsNotFound      = errors.New("stats not found")
)

// RoomStore is the durable table of Room records.
type RoomStore interface {
	// CreateRoom persists a new room. The room's version is set to 1.
	CreateRoom(ctx context.Context, room *models.Room) error

	// GetRoom returns the room with its current version.
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)

	// PutRoom overwrites the room only if the stored version matches
	// room.Version, then bumps room.Version. ErrVersionConflict means
	// another writer got there first; callers re-read and retry.
	PutRoom(ctx context.Context, room *models.Room) error

	DeleteRoom(ctx context.Context, id uuid.UUID) error

	// FindWaitingRoom returns the oldest room with exactly one player, or
	// ErrRoomNotFound when nobody is waiting.
	FindWaitingRoom(ctx context.Context) (*models.Room, error)

	// FindRoomByUser returns the room the user is seated in, if any.
	FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.Room, error)

	// FindRoomByConnection returns the room containing a player joined
	// from the given connection, if any.
	FindRoomByConnection(ctx context.Context, connID uuid.UUID) (*models.Room, error)
}

// ConnectionStore maps live connection ids to user identities. Entries are
// created on connect and removed on disconnect; never authoritative for
// game state.
type ConnectionStore interface {
	RegisterConnection(ctx context.Context, connID, userID uuid.UUID) error
	LookupConnection(ctx context.Context, connID uuid.UUID) (uuid.UUID, error)
	RemoveConnection(ctx context.Context, connID uuid.UUID) error
}

// StatsStore holds per-user aggregate statistics.
type StatsStore interface {
	// GetStats returns the user's record, or ErrStatsNotFound when the
	// user has not finished a game yet.
	GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error)

	// AllStats returns every user's record, for the leaderboard.
	AllStats(ctx context.Context) ([]*models.UserStats, error)

	// RecordResult applies one finished game: for every participant,
	// gamesPlayed increments by one and exactly one of wins/losses/draws
	// increments per the outcome. Applied atomically per game.
	RecordResult(ctx context.Context, outcomes map[uuid.UUID]models.GameOutcome) error
}

// UserDirectory resolves user ids to display identities for outbound
// snapshots.
type UserDirectory interface {
	Email(ctx context.Context, userID uuid.UUID) (string, error)
}

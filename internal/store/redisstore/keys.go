package redisstore

import (
	"fmt"

	"github.com/google/uuid"
)

// Key prefix for all game data.
const keyPrefix = "gridlock"

// roomKey returns the Redis key for a Room record.
func roomKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// roomIndexKey returns the Redis key for the SET of all room ids. The
// matchmaking and disconnect scans walk this index.
func roomIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// connectionKey returns the Redis key for a connection -> user entry.
func connectionKey(connID uuid.UUID) string {
	return fmt.Sprintf("%s:conn:%s", keyPrefix, connID)
}

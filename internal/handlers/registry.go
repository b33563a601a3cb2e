package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"gridlock/internal/engine"
)

// Registry holds the live websocket connections for this process and
// implements the engine's Notifier. The durable connection-to-user mapping
// lives in the connection store; this map only knows how to reach a socket.
type Registry struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*websocket.Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[uuid.UUID]*websocket.Conn)}
}

var _ engine.Notifier = (*Registry)(nil)

// Add attaches a socket under a fresh connection id.
func (r *Registry) Add(connID uuid.UUID, c *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = c
}

// Remove detaches a socket. Safe to call for ids that are already gone.
func (r *Registry) Remove(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}

// Notify marshals the message and writes it to one connection with a write
// timeout. A stale or missing connection is an error for the caller to log;
// it never cancels other recipients.
func (r *Registry) Notify(ctx context.Context, connID uuid.UUID, message interface{}) error {
	r.mu.Lock()
	c, ok := r.conns[connID]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("connection %s is not registered", connID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("failed to write to connection %s: %w", connID, err)
	}
	return nil
}

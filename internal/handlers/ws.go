// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gridlock/internal/auth"
	"gridlock/internal/engine"
	"gridlock/internal/protocol"
)

// Custom WebSocket close codes for failures detected before or during the
// session, more specific than the standard set.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Provided auth token was invalid or expired.
)

// GameServer owns the engine and the live-connection registry behind the
// single websocket endpoint.
type GameServer struct {
	Engine   *engine.Engine
	Registry *Registry
	Logger   *logrus.Logger
}

func NewGameServer(eng *engine.Engine, registry *Registry, logger *logrus.Logger) *GameServer {
	return &GameServer{Engine: eng, Registry: registry, Logger: logger}
}

// WSHandler upgrades the connection, verifies the credential carried in the
// query string or cookie, registers the connection, and runs the read loop
// until the client goes away. Socket closure is the $disconnect event: it
// triggers the engine's disconnect handling.
func (gs *GameServer) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"tictactoe"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			gs.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "tictactoe" {
			c.Close(BadSubprotocolError, "client must speak the tictactoe subprotocol")
			return
		}

		token := r.URL.Query().Get("token")
		if token == "" {
			token = extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		}
		userID, err := auth.VerifyToken(token)
		if err != nil {
			gs.Logger.WithError(err).Warn("Connection rejected, credential verification failed")
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}

		connID := uuid.New()
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		if err := gs.Engine.Connect(ctx, connID, userID); err != nil {
			gs.Logger.WithError(err).Warn("Failed to register connection")
			c.Close(websocket.StatusInternalError, "failed to register connection")
			return
		}
		gs.Registry.Add(connID, c)

		gs.Logger.WithFields(logrus.Fields{
			"user":   userID,
			"conn":   connID,
			"remote": r.RemoteAddr,
		}).Info("WebSocket connected")

		gs.readMessages(ctx, c, userID, connID)

		// Cleanup after the read loop exits for any reason.
		gs.Registry.Remove(connID)
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := gs.Engine.Disconnect(disconnectCtx, connID); err != nil {
			gs.Logger.WithError(err).WithField("conn", connID).Warn("Disconnect handling failed")
		}
		disconnectCancel()
		gs.Logger.WithFields(logrus.Fields{"user": userID, "conn": connID}).Info("WebSocket disconnected")
	}
}

// readMessages reads envelopes off the socket, dispatches them, and answers
// each one with a synchronous ack.
func (gs *GameServer) readMessages(ctx context.Context, c *websocket.Conn, userID, connID uuid.UUID) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				gs.Logger.WithField("conn", connID).Info("WebSocket closed normally")
			} else if strings.Contains(err.Error(), "context canceled") {
				gs.Logger.WithField("conn", connID).Info("WebSocket context canceled")
			} else {
				gs.Logger.WithError(err).WithField("conn", connID).Warn("WebSocket read error")
			}
			return
		}

		if msgType != websocket.MessageText {
			gs.Logger.WithField("conn", connID).Warn("Ignoring non-text websocket message")
			continue
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			gs.Logger.WithError(err).WithField("conn", connID).Warn("Invalid JSON envelope")
			gs.sendAck(ctx, c, protocol.Error(400, "invalid JSON format"))
			continue
		}

		ack := gs.HandleEnvelope(ctx, userID, connID, env)
		gs.sendAck(ctx, c, ack)
	}
}

// sendAck writes the synchronous reply for one envelope.
func (gs *GameServer) sendAck(ctx context.Context, c *websocket.Conn, ack protocol.Ack) {
	data, err := json.Marshal(ack)
	if err != nil {
		gs.Logger.WithError(err).Error("Failed to marshal ack")
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		gs.Logger.WithError(err).Warn("Failed to write ack")
	}
}

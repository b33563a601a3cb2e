package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gridlock/internal/auth"
	"gridlock/internal/engine"
	"gridlock/internal/protocol"
)

// HandleEnvelope routes one inbound envelope to the engine and maps the
// result to the synchronous ack. The connection is already authenticated;
// a token carried in the envelope is re-verified and may not change the
// identity mid-session.
func (gs *GameServer) HandleEnvelope(ctx context.Context, userID, connID uuid.UUID, env protocol.Envelope) protocol.Ack {
	if env.Token != "" {
		tokenUser, err := auth.VerifyToken(env.Token)
		if err != nil {
			return protocol.Error(401, "unauthorized")
		}
		if tokenUser != userID {
			return protocol.Error(401, "token does not match this connection")
		}
	}

	switch env.Action {
	case protocol.ActionJoinRoom:
		if _, err := gs.Engine.JoinRoom(ctx, userID, connID); err != nil {
			return gs.errorAck(err)
		}
		return protocol.OK()

	case protocol.ActionMakeMove:
		roomID, err := uuid.Parse(env.RoomID)
		if err != nil {
			return protocol.Error(400, "invalid roomId")
		}
		if env.Row == nil || env.Col == nil {
			return protocol.Error(400, "makeMove requires row and col")
		}
		if _, err := gs.Engine.MakeMove(ctx, userID, roomID, *env.Row, *env.Col); err != nil {
			return gs.errorAck(err)
		}
		return protocol.OK()

	case protocol.ActionLeaveRoom:
		roomID, err := uuid.Parse(env.RoomID)
		if err != nil {
			return protocol.Error(400, "invalid roomId")
		}
		if err := gs.Engine.LeaveRoom(ctx, userID, roomID); err != nil {
			return gs.errorAck(err)
		}
		return protocol.OK()

	case protocol.ActionRestart:
		roomID, err := uuid.Parse(env.RoomID)
		if err != nil {
			return protocol.Error(400, "invalid roomId")
		}
		if _, err := gs.Engine.RestartGame(ctx, userID, roomID); err != nil {
			return gs.errorAck(err)
		}
		return protocol.OK()

	case protocol.ActionGetStats:
		if err := gs.Engine.SendStats(ctx, userID, connID); err != nil {
			return gs.errorAck(err)
		}
		return protocol.OK()

	default:
		return protocol.Error(400, fmt.Sprintf("unknown action: %s", env.Action))
	}
}

// errorAck maps an engine error to its status, logging the 500s.
func (gs *GameServer) errorAck(err error) protocol.Ack {
	status := engine.StatusFor(err)
	if status == 500 {
		gs.Logger.WithError(err).Error("Store failure handling action")
		return protocol.Error(500, "internal error")
	}
	return protocol.Error(status, err.Error())
}

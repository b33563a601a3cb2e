// Package engine implements the room/session state machine: matchmaking,
// move validation, turn alternation, win/draw detection, forfeit handling,
// and restart, all expressed as transitions over a Room record.
//
// Every operation is a stateless handling of one inbound message. Durable
// state lives behind the store interfaces, and each read-modify-write cycle
// runs under a bounded retry loop around the store's conditional put, so
// two players racing on the same room never overwrite each other silently.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"gridlock/internal/models"
	"gridlock/internal/protocol"
	"gridlock/internal/store"
)

// maxPutRetries bounds how often an operation re-reads and re-applies after
// a version conflict before giving up.
const maxPutRetries = 5

// Notifier pushes a JSON message to one connection. Delivery is
// best-effort: failures are logged by the caller and never abort a
// multi-recipient broadcast.
type Notifier interface {
	Notify(ctx context.Context, connID uuid.UUID, message interface{}) error
}

// Engine wires the stores and the notifier together.
type Engine struct {
	rooms    store.RoomStore
	conns    store.ConnectionStore
	stats    store.StatsStore
	users    store.UserDirectory
	notifier Notifier
	logger   *logrus.Logger
}

func New(rooms store.RoomStore, conns store.ConnectionStore, stats store.StatsStore, users store.UserDirectory, notifier Notifier, logger *logrus.Logger) *Engine {
	return &Engine{
		rooms:    rooms,
		conns:    conns,
		stats:    stats,
		users:    users,
		notifier: notifier,
		logger:   logger,
	}
}

// Connect registers a live connection for a verified user.
func (e *Engine) Connect(ctx context.Context, connID, userID uuid.UUID) error {
	if err := e.conns.RegisterConnection(ctx, connID, userID); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}
	return nil
}

// JoinRoom seats the user in the oldest waiting room as O, or creates a
// fresh room with the user as X. A user already seated somewhere is
// rejected rather than seated twice.
func (e *Engine) JoinRoom(ctx context.Context, userID, connID uuid.UUID) (*models.Room, error) {
	if _, err := e.rooms.FindRoomByUser(ctx, userID); err == nil {
		return nil, ErrAlreadyInRoom
	} else if !errors.Is(err, store.ErrRoomNotFound) {
		return nil, fmt.Errorf("failed to check existing membership: %w", err)
	}

	for attempt := 0; attempt < maxPutRetries; attempt++ {
		waiting, err := e.rooms.FindWaitingRoom(ctx)
		if errors.Is(err, store.ErrRoomNotFound) {
			room := models.NewRoom(userID, connID)
			if err := e.rooms.CreateRoom(ctx, room); err != nil {
				return nil, fmt.Errorf("failed to create room: %w", err)
			}
			e.logger.WithFields(logrus.Fields{"room": room.ID, "user": userID}).Info("Room created")
			e.broadcastRoom(ctx, room, protocol.RoomMessage{Message: protocol.MsgRoomUpdate})
			return room, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan for waiting rooms: %w", err)
		}

		if err := waiting.AddPlayer(userID, connID); err != nil {
			// Filled up between scan and join; look again.
			continue
		}
		if err := e.rooms.PutRoom(ctx, waiting); err != nil {
			if errors.Is(err, store.ErrVersionConflict) || errors.Is(err, store.ErrRoomNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to persist join: %w", err)
		}

		e.logger.WithFields(logrus.Fields{"room": waiting.ID, "user": userID}).Info("Player joined room")
		e.broadcastRoom(ctx, waiting, protocol.RoomMessage{Message: protocol.MsgRoomUpdate})
		return waiting, nil
	}
	return nil, fmt.Errorf("join did not settle after %d attempts", maxPutRetries)
}

// MakeMove validates and applies one move. Validation order: room exists,
// caller is a player, it is their turn, target cell empty, game not over.
// A winning line or a full board ends the game: both players' stats are
// updated and the room is kept, marked terminal, until an explicit restart.
func (e *Engine) MakeMove(ctx context.Context, userID, roomID uuid.UUID, row, col int) (*models.Room, error) {
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return nil, fmt.Errorf("%w: cell (%d,%d) out of range", ErrBadRequest, row, col)
	}

	for attempt := 0; attempt < maxPutRetries; attempt++ {
		room, err := e.rooms.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, store.ErrRoomNotFound) {
				return nil, store.ErrRoomNotFound
			}
			return nil, fmt.Errorf("failed to load room: %w", err)
		}

		player := room.PlayerByUser(userID)
		switch {
		case player == nil:
			return nil, fmt.Errorf("%w: not a player in this room", ErrInvalidMove)
		case room.Terminal():
			return nil, fmt.Errorf("%w: game is over", ErrInvalidMove)
		case room.CurrentTurn != player.Symbol:
			return nil, fmt.Errorf("%w: not your turn", ErrInvalidMove)
		case room.Board[row][col] != "":
			return nil, fmt.Errorf("%w: cell (%d,%d) is occupied", ErrInvalidMove, row, col)
		}

		room.Board[row][col] = player.Symbol

		winner := CheckWinner(room.Board)
		full := room.Board.Full()
		gameOver := winner != "" || full
		if gameOver {
			room.Winner = winner
			room.Draw = winner == ""
		} else {
			room.CurrentTurn = room.CurrentTurn.Other()
		}

		if err := e.rooms.PutRoom(ctx, room); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, fmt.Errorf("failed to persist move: %w", err)
		}

		msg := protocol.RoomMessage{Message: protocol.MsgMoveUpdate}
		if gameOver {
			msg.GameOver = true
			if winner != "" {
				msg.Winner = string(winner)
			} else {
				msg.Winner = "draw"
			}
			if err := e.recordGameEnd(ctx, room, winner); err != nil {
				// The room write is authoritative; a stats failure after it
				// is surfaced but leaves the board state committed.
				e.broadcastRoom(ctx, room, msg)
				return room, err
			}
			e.logger.WithFields(logrus.Fields{
				"room":   room.ID,
				"winner": msg.Winner,
			}).Info("Game ended")
		}

		e.broadcastRoom(ctx, room, msg)
		return room, nil
	}
	return nil, fmt.Errorf("move did not settle after %d attempts", maxPutRetries)
}

// recordGameEnd applies one finished game to both players' stats. An empty
// winner symbol means a draw.
func (e *Engine) recordGameEnd(ctx context.Context, room *models.Room, winner models.Symbol) error {
	outcomes := make(map[uuid.UUID]models.GameOutcome, len(room.Players))
	for _, p := range room.Players {
		switch {
		case winner == "":
			outcomes[p.UserID] = models.OutcomeDraw
		case p.Symbol == winner:
			outcomes[p.UserID] = models.OutcomeWin
		default:
			outcomes[p.UserID] = models.OutcomeLoss
		}
	}
	if err := e.stats.RecordResult(ctx, outcomes); err != nil {
		return fmt.Errorf("failed to record game results: %w", err)
	}
	return nil
}

// LeaveRoom removes the caller from the room. A sole remaining player wins
// by forfeit when a game was actually in progress: their stats are credited,
// they keep the room with a fresh board and the X seat, and they are
// notified. An emptied room is deleted outright.
func (e *Engine) LeaveRoom(ctx context.Context, userID, roomID uuid.UUID) error {
	for attempt := 0; attempt < maxPutRetries; attempt++ {
		room, err := e.rooms.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, store.ErrRoomNotFound) {
				return store.ErrRoomNotFound
			}
			return fmt.Errorf("failed to load room: %w", err)
		}

		leaving := room.PlayerByUser(userID)
		if leaving == nil {
			return ErrNotInRoom
		}
		leaver := *leaving

		done, err := e.removePlayer(ctx, room, leaver, protocol.MsgLeaveRoom)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		// Version conflict under us; re-read and try again.
	}
	return fmt.Errorf("leave did not settle after %d attempts", maxPutRetries)
}

// Disconnect deregisters the connection and applies the same forfeit
// handling as an explicit leave. Nobody is notified when the room empties.
func (e *Engine) Disconnect(ctx context.Context, connID uuid.UUID) error {
	if err := e.conns.RemoveConnection(ctx, connID); err != nil {
		e.logger.WithError(err).WithField("conn", connID).Warn("Failed to remove connection record")
	}

	for attempt := 0; attempt < maxPutRetries; attempt++ {
		room, err := e.rooms.FindRoomByConnection(ctx, connID)
		if errors.Is(err, store.ErrRoomNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to scan rooms for connection: %w", err)
		}

		player := room.PlayerByConnection(connID)
		if player == nil {
			return nil
		}
		leaver := *player

		done, err := e.removePlayer(ctx, room, leaver, protocol.MsgDisconnected)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return fmt.Errorf("disconnect did not settle after %d attempts", maxPutRetries)
}

// removePlayer drops one seat and settles the room: delete when empty,
// forfeit-reset when one player remains. It returns done=false when the
// conditional write lost a race and the caller should re-read.
func (e *Engine) removePlayer(ctx context.Context, room *models.Room, leaver models.Player, tag string) (bool, error) {
	wasInProgress := room.InProgress()
	room.RemovePlayer(leaver.UserID)

	switch len(room.Players) {
	case 0:
		if err := e.rooms.DeleteRoom(ctx, room.ID); err != nil {
			return false, fmt.Errorf("failed to delete empty room: %w", err)
		}
		e.logger.WithField("room", room.ID).Info("Room deleted, no players remain")
		return true, nil

	case 1:
		remaining := room.Players[0]
		// The survivor keeps the room and opens the next game as X.
		room.Players[0].Symbol = models.SymbolX
		room.Reset()
		if err := e.rooms.PutRoom(ctx, room); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				return false, nil
			}
			return false, fmt.Errorf("failed to persist forfeit: %w", err)
		}
		// Stats only after the room write settles, so a retried conflict
		// cannot credit the forfeit twice.
		if wasInProgress {
			outcomes := map[uuid.UUID]models.GameOutcome{
				remaining.UserID: models.OutcomeWin,
				leaver.UserID:    models.OutcomeLoss,
			}
			if err := e.stats.RecordResult(ctx, outcomes); err != nil {
				return false, fmt.Errorf("failed to record forfeit results: %w", err)
			}
		}
		e.logger.WithFields(logrus.Fields{
			"room":   room.ID,
			"winner": remaining.UserID,
			"leaver": leaver.UserID,
		}).Info("Player left, remaining player wins by forfeit")
		e.broadcastRoom(ctx, room, protocol.RoomMessage{
			Message: tag,
			Info:    fmt.Sprintf("Player %s left. %s wins and remains.", leaver.UserID, remaining.UserID),
		})
		return true, nil

	default:
		e.logger.WithFields(logrus.Fields{
			"room":    room.ID,
			"players": len(room.Players),
		}).Warn("Unexpected number of players in room after removal")
		return true, nil
	}
}

// RestartGame unconditionally resets the board and hands the opening move
// to X, whether or not the game had ended.
func (e *Engine) RestartGame(ctx context.Context, userID, roomID uuid.UUID) (*models.Room, error) {
	for attempt := 0; attempt < maxPutRetries; attempt++ {
		room, err := e.rooms.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, store.ErrRoomNotFound) {
				return nil, store.ErrRoomNotFound
			}
			return nil, fmt.Errorf("failed to load room: %w", err)
		}

		if room.PlayerByUser(userID) == nil {
			return nil, ErrForbidden
		}

		room.Reset()
		if err := e.rooms.PutRoom(ctx, room); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, fmt.Errorf("failed to persist restart: %w", err)
		}

		e.logger.WithFields(logrus.Fields{"room": room.ID, "user": userID}).Info("Room restarted")
		e.broadcastRoom(ctx, room, protocol.RoomMessage{Message: protocol.MsgRoomRestarted})
		return room, nil
	}
	return nil, fmt.Errorf("restart did not settle after %d attempts", maxPutRetries)
}

// SendStats pushes the caller's own record (all-zero when absent) plus the
// full leaderboard to the requesting connection only.
func (e *Engine) SendStats(ctx context.Context, userID, connID uuid.UUID) error {
	own, err := e.stats.GetStats(ctx, userID)
	if errors.Is(err, store.ErrStatsNotFound) {
		own = &models.UserStats{UserID: userID}
	} else if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	all, err := e.stats.AllStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	for _, st := range all {
		if st.Email != "" {
			continue
		}
		email, err := e.users.Email(ctx, st.UserID)
		if err != nil {
			e.logger.WithError(err).WithField("user", st.UserID).Warn("Failed to resolve display identity")
			continue
		}
		st.Email = email
	}

	msg := protocol.StatsMessage{Message: protocol.MsgStatsUpdate, Stats: own, Users: all}
	if err := e.notifier.Notify(ctx, connID, msg); err != nil {
		e.logger.WithError(err).WithField("conn", connID).Warn("Failed to send stats")
	}
	return nil
}

// broadcastRoom resolves display identities into a snapshot and pushes the
// message to every seated connection. One failed delivery never stops the
// rest of the batch.
func (e *Engine) broadcastRoom(ctx context.Context, room *models.Room, msg protocol.RoomMessage) {
	snapshot := *room
	snapshot.Players = append([]models.Player(nil), room.Players...)
	for i := range snapshot.Players {
		email, err := e.users.Email(ctx, snapshot.Players[i].UserID)
		if err != nil {
			e.logger.WithError(err).WithField("user", snapshot.Players[i].UserID).Warn("Failed to resolve display identity")
			continue
		}
		snapshot.Players[i].Email = email
	}
	msg.Room = &snapshot

	for _, p := range room.Players {
		if err := e.notifier.Notify(ctx, p.ConnectionID, msg); err != nil {
			e.logger.WithError(err).WithFields(logrus.Fields{
				"room": room.ID,
				"conn": p.ConnectionID,
			}).Warn("Notify failed")
		}
	}
}

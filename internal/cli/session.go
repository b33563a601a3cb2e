package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gridlock/internal/models"
	"gridlock/internal/protocol"
)

// Session is a live game connection. It keeps a local mirror of the room,
// reconciled from the tagged messages the server pushes, so commands can be
// validated locally before they go on the wire.
type Session struct {
	conn   *websocket.Conn
	userID uuid.UUID

	mu   sync.Mutex
	room *models.Room

	// Events receives human-readable lines describing pushes and acks as
	// they arrive. Closed when the read loop exits.
	Events chan string
}

// serverMessage is the union of everything the server can send: the
// synchronous ack for a command, or a tagged broadcast.
type serverMessage struct {
	Type    string `json:"type,omitempty"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`

	Room     *models.Room        `json:"room,omitempty"`
	GameOver bool                `json:"gameOver,omitempty"`
	Winner   string              `json:"winner,omitempty"`
	Info     string              `json:"info,omitempty"`
	Stats    *models.UserStats   `json:"stats,omitempty"`
	Users    []*models.UserStats `json:"users,omitempty"`
}

// Dial connects and authenticates the game websocket. The server address is
// the same base URL the HTTP client uses; the scheme is rewritten for the
// socket.
func Dial(ctx context.Context, serverURL, token string) (*Session, error) {
	userID, err := userIDFromToken(token)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		Subprotocols: []string{"tictactoe"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial game server: %w", err)
	}

	s := &Session{
		conn:   conn,
		userID: userID,
		Events: make(chan string, 16),
	}
	go s.readLoop(ctx)
	return s, nil
}

// userIDFromToken reads the subject out of the credential without verifying
// it. The server is the authority; the client only needs to recognize its
// own seat in room snapshots.
func userIDFromToken(token string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return uuid.Nil, fmt.Errorf("malformed token, log in again: %w", err)
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("token has no usable subject: %w", err)
	}
	return userID, nil
}

// Close tears down the socket.
func (s *Session) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Room returns a copy of the mirrored room, or nil before the first update.
func (s *Session) Room() *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return nil
	}
	snapshot := *s.room
	snapshot.Players = append([]models.Player(nil), s.room.Players...)
	return &snapshot
}

// MySymbol returns the mark this user holds in the mirrored room, or "".
func (s *Session) MySymbol() models.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ""
	}
	if p := s.room.PlayerByUser(s.userID); p != nil {
		return p.Symbol
	}
	return ""
}

// Join asks for a seat; the server picks or creates the room.
func (s *Session) Join(ctx context.Context) error {
	return s.send(ctx, protocol.Envelope{Action: protocol.ActionJoinRoom})
}

// Move plays at (row, col) after checking the same rules the server will
// enforce, so obvious mistakes never leave the client.
func (s *Session) Move(ctx context.Context, row, col int) error {
	if row < 0 || row > 2 || col < 0 || col > 2 {
		return fmt.Errorf("row and col must be between 0 and 2")
	}

	s.mu.Lock()
	room := s.room
	var mine models.Symbol
	if room != nil {
		if p := room.PlayerByUser(s.userID); p != nil {
			mine = p.Symbol
		}
	}
	s.mu.Unlock()

	switch {
	case room == nil || mine == "":
		return fmt.Errorf("not in a room; join first")
	case room.Terminal():
		return fmt.Errorf("game is over; restart to play again")
	case len(room.Players) < 2:
		return fmt.Errorf("waiting for an opponent")
	case room.CurrentTurn != mine:
		return fmt.Errorf("not your turn")
	case room.Board[row][col] != "":
		return fmt.Errorf("cell (%d,%d) is already taken", row, col)
	}

	return s.send(ctx, protocol.Envelope{
		Action: protocol.ActionMakeMove,
		RoomID: room.ID.String(),
		Row:    &row,
		Col:    &col,
	})
}

// Leave gives up the seat; an in-progress game counts as a forfeit.
func (s *Session) Leave(ctx context.Context) error {
	roomID, err := s.currentRoomID()
	if err != nil {
		return err
	}
	return s.send(ctx, protocol.Envelope{Action: protocol.ActionLeaveRoom, RoomID: roomID})
}

// Restart asks for a fresh board in the current room.
func (s *Session) Restart(ctx context.Context) error {
	roomID, err := s.currentRoomID()
	if err != nil {
		return err
	}
	return s.send(ctx, protocol.Envelope{Action: protocol.ActionRestart, RoomID: roomID})
}

// RequestStats asks the server for this user's record and the leaderboard.
// The reply arrives as a statsUpdate event.
func (s *Session) RequestStats(ctx context.Context) error {
	return s.send(ctx, protocol.Envelope{Action: protocol.ActionGetStats})
}

func (s *Session) currentRoomID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return "", fmt.Errorf("not in a room")
	}
	return s.room.ID.String(), nil
}

func (s *Session) send(ctx context.Context, env protocol.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.conn.Write(writeCtx, websocket.MessageText, data)
}

// readLoop reconciles the mirror from every tagged push and turns both
// pushes and acks into printable events.
func (s *Session) readLoop(ctx context.Context) {
	defer close(s.Events)
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.Events <- fmt.Sprintf("connection lost: %v", err)
			}
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Events <- fmt.Sprintf("unreadable server message: %v", err)
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg serverMessage) {
	// Acks carry a type; broadcasts carry a tag in the message field.
	if msg.Type != "" {
		if msg.Type == "error" {
			s.Events <- fmt.Sprintf("rejected (%d): %s", msg.Status, msg.Message)
		}
		return
	}

	if msg.Room != nil {
		s.mu.Lock()
		s.room = msg.Room
		s.mu.Unlock()
	}

	switch msg.Message {
	case protocol.MsgRoomUpdate:
		s.Events <- s.describeRoom("room update")
	case protocol.MsgMoveUpdate:
		if msg.GameOver {
			if msg.Winner == "draw" {
				s.Events <- "game over: draw"
			} else {
				s.Events <- fmt.Sprintf("game over: %s wins", msg.Winner)
			}
		} else {
			s.Events <- s.describeRoom("move played")
		}
	case protocol.MsgRoomRestarted:
		s.Events <- "board reset, X to play"
	case protocol.MsgLeaveRoom, protocol.MsgDisconnected:
		if msg.Info != "" {
			s.Events <- msg.Info
		} else {
			s.Events <- "opponent left the room"
		}
	case protocol.MsgStatsUpdate:
		s.Events <- formatStats(msg.Stats, msg.Users)
	default:
		s.Events <- fmt.Sprintf("unknown server message: %s", msg.Message)
	}
}

func (s *Session) describeRoom(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return prefix
	}
	if len(s.room.Players) < 2 {
		return fmt.Sprintf("%s: waiting for an opponent", prefix)
	}
	return fmt.Sprintf("%s: %s to play", prefix, s.room.CurrentTurn)
}

func formatStats(stats *models.UserStats, users []*models.UserStats) string {
	var b strings.Builder
	if stats != nil {
		fmt.Fprintf(&b, "You: %d played, %d won, %d lost, %d drawn\n",
			stats.GamesPlayed, stats.Wins, stats.Losses, stats.Draws)
	}
	if len(users) > 0 {
		b.WriteString("Leaderboard:\n")
		for i, u := range users {
			name := u.Email
			if name == "" {
				name = u.UserID.String()
			}
			fmt.Fprintf(&b, "  %d. %s - %d wins (%d played)\n", i+1, name, u.Wins, u.GamesPlayed)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

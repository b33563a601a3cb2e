// Package memory is the in-memory implementation of the store interfaces.
// It backs unit tests and single-process dev mode.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"gridlock/internal/models"
	"gridlock/internal/store"
)

type Store struct {
	mu sync.RWMutex

	rooms       map[uuid.UUID]*models.Room
	connections map[uuid.UUID]uuid.UUID
	stats       map[uuid.UUID]*models.UserStats
	emails      map[uuid.UUID]string
}

func New() *Store {
	return &Store{
		rooms:       make(map[uuid.UUID]*models.Room),
		connections: make(map[uuid.UUID]uuid.UUID),
		stats:       make(map[uuid.UUID]*models.UserStats),
		emails:      make(map[uuid.UUID]string),
	}
}

var (
	_ store.RoomStore       = (*Store)(nil)
	_ store.ConnectionStore = (*Store)(nil)
	_ store.StatsStore      = (*Store)(nil)
	_ store.UserDirectory   = (*Store)(nil)
)

// cloneRoom copies a room so callers never alias the stored record.
func cloneRoom(r *models.Room) *models.Room {
	cp := *r
	cp.Players = append([]models.Player(nil), r.Players...)
	return &cp
}

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return store.ErrRoomExists
	}
	room.Version = 1
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, store.ErrRoomNotFound
	}
	return cloneRoom(r), nil
}

func (s *Store) PutRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.rooms[room.ID]
	if !ok {
		return store.ErrRoomNotFound
	}
	if cur.Version != room.Version {
		return store.ErrVersionConflict
	}
	room.Version++
	s.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Store) FindWaitingRoom(ctx context.Context) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var oldest *models.Room
	for _, r := range s.rooms {
		if !r.Waiting() {
			continue
		}
		if oldest == nil || r.CreatedAt.Before(oldest.CreatedAt) {
			oldest = r
		}
	}
	if oldest == nil {
		return nil, store.ErrRoomNotFound
	}
	return cloneRoom(oldest), nil
}

func (s *Store) FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.PlayerByUser(userID) != nil {
			return cloneRoom(r), nil
		}
	}
	return nil, store.ErrRoomNotFound
}

func (s *Store) FindRoomByConnection(ctx context.Context, connID uuid.UUID) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.PlayerByConnection(connID) != nil {
			return cloneRoom(r), nil
		}
	}
	return nil, store.ErrRoomNotFound
}

// Connection operations

func (s *Store) RegisterConnection(ctx context.Context, connID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[connID] = userID
	return nil
}

func (s *Store) LookupConnection(ctx context.Context, connID uuid.UUID) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.connections[connID]
	if !ok {
		return uuid.Nil, store.ErrConnectionNotFound
	}
	return userID, nil
}

func (s *Store) RemoveConnection(ctx context.Context, connID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connections, connID)
	return nil
}

// Stats operations

func (s *Store) GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[userID]
	if !ok {
		return nil, store.ErrStatsNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *Store) AllStats(ctx context.Context) ([]*models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserStats, 0, len(s.stats))
	for _, st := range s.stats {
		cp := *st
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) RecordResult(ctx context.Context, outcomes map[uuid.UUID]models.GameOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, outcome := range outcomes {
		st, ok := s.stats[userID]
		if !ok {
			st = &models.UserStats{UserID: userID}
			s.stats[userID] = st
		}
		st.GamesPlayed++
		switch outcome {
		case models.OutcomeWin:
			st.Wins++
		case models.OutcomeLoss:
			st.Losses++
		case models.OutcomeDraw:
			st.Draws++
		}
	}
	return nil
}

// Directory operations

// SetEmail seeds a display identity, used by tests and dev mode.
func (s *Store) SetEmail(userID uuid.UUID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emails[userID] = email
}

func (s *Store) Email(ctx context.Context, userID uuid.UUID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email, ok := s.emails[userID]
	if !ok {
		return "unknown", nil
	}
	return email, nil
}

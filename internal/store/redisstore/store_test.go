package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"gridlock/internal/models"
	"gridlock/internal/store"
)

type StoreSuite struct {
	suite.Suite
	mini  *miniredis.Miniredis
	store *Store
	ctx   context.Context
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.ConnectionTTL = time.Hour

	s.store = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Room tests

func (s *StoreSuite) TestCreateAndGetRoom() {
	room := models.NewRoom(uuid.New(), uuid.New())

	err := s.store.CreateRoom(s.ctx, room)
	s.Require().NoError(err)
	s.Equal(int64(1), room.Version)

	got, err := s.store.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)
	s.Len(got.Players, 1)
	s.Equal(models.SymbolX, got.Players[0].Symbol)
}

func (s *StoreSuite) TestCreateDuplicateRoom() {
	room := models.NewRoom(uuid.New(), uuid.New())
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	err := s.store.CreateRoom(s.ctx, room)
	s.ErrorIs(err, store.ErrRoomExists)
}

func (s *StoreSuite) TestGetRoomNotFound() {
	_, err := s.store.GetRoom(s.ctx, uuid.New())
	s.ErrorIs(err, store.ErrRoomNotFound)
}

func (s *StoreSuite) TestPutRoomBumpsVersion() {
	room := models.NewRoom(uuid.New(), uuid.New())
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	room.Board[1][1] = models.SymbolX
	err := s.store.PutRoom(s.ctx, room)
	s.Require().NoError(err)
	s.Equal(int64(2), room.Version)

	got, err := s.store.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(models.SymbolX, got.Board[1][1])
	s.Equal(int64(2), got.Version)
}

func (s *StoreSuite) TestPutRoomVersionConflict() {
	room := models.NewRoom(uuid.New(), uuid.New())
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	first, err := s.store.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	second, err := s.store.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)

	first.Board[0][0] = models.SymbolX
	s.Require().NoError(s.store.PutRoom(s.ctx, first))

	second.Board[0][0] = models.SymbolO
	err = s.store.PutRoom(s.ctx, second)
	s.ErrorIs(err, store.ErrVersionConflict)

	// The stale writer's version is untouched so it can re-read and retry.
	s.Equal(int64(1), second.Version)

	got, err := s.store.GetRoom(s.ctx, room.ID)
	s.Require().NoError(err)
	s.Equal(models.SymbolX, got.Board[0][0])
}

func (s *StoreSuite) TestPutRoomDeletedUnderneath() {
	room := models.NewRoom(uuid.New(), uuid.New())
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))
	s.Require().NoError(s.store.DeleteRoom(s.ctx, room.ID))

	err := s.store.PutRoom(s.ctx, room)
	s.ErrorIs(err, store.ErrRoomNotFound)
}

func (s *StoreSuite) TestDeleteRoomPrunesIndex() {
	room := models.NewRoom(uuid.New(), uuid.New())
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))
	s.Require().NoError(s.store.DeleteRoom(s.ctx, room.ID))

	_, err := s.store.GetRoom(s.ctx, room.ID)
	s.ErrorIs(err, store.ErrRoomNotFound)

	_, err = s.store.FindWaitingRoom(s.ctx)
	s.ErrorIs(err, store.ErrRoomNotFound)
}

func (s *StoreSuite) TestFindWaitingRoomPicksOldest() {
	older := models.NewRoom(uuid.New(), uuid.New())
	older.CreatedAt = time.Now().Add(-time.Minute).UTC()
	newer := models.NewRoom(uuid.New(), uuid.New())

	full := models.NewRoom(uuid.New(), uuid.New())
	s.Require().NoError(full.AddPlayer(uuid.New(), uuid.New()))

	s.Require().NoError(s.store.CreateRoom(s.ctx, newer))
	s.Require().NoError(s.store.CreateRoom(s.ctx, full))
	s.Require().NoError(s.store.CreateRoom(s.ctx, older))

	got, err := s.store.FindWaitingRoom(s.ctx)
	s.Require().NoError(err)
	s.Equal(older.ID, got.ID)
}

func (s *StoreSuite) TestFindRoomByUser() {
	userID := uuid.New()
	room := models.NewRoom(userID, uuid.New())
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	got, err := s.store.FindRoomByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)

	_, err = s.store.FindRoomByUser(s.ctx, uuid.New())
	s.ErrorIs(err, store.ErrRoomNotFound)
}

func (s *StoreSuite) TestFindRoomByConnection() {
	connID := uuid.New()
	room := models.NewRoom(uuid.New(), connID)
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	got, err := s.store.FindRoomByConnection(s.ctx, connID)
	s.Require().NoError(err)
	s.Equal(room.ID, got.ID)
}

// Connection tests

func (s *StoreSuite) TestConnectionRoundTrip() {
	connID, userID := uuid.New(), uuid.New()

	s.Require().NoError(s.store.RegisterConnection(s.ctx, connID, userID))

	got, err := s.store.LookupConnection(s.ctx, connID)
	s.Require().NoError(err)
	s.Equal(userID, got)

	s.Require().NoError(s.store.RemoveConnection(s.ctx, connID))
	_, err = s.store.LookupConnection(s.ctx, connID)
	s.ErrorIs(err, store.ErrConnectionNotFound)
}

func (s *StoreSuite) TestConnectionExpires() {
	connID, userID := uuid.New(), uuid.New()
	s.Require().NoError(s.store.RegisterConnection(s.ctx, connID, userID))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.store.LookupConnection(s.ctx, connID)
	s.ErrorIs(err, store.ErrConnectionNotFound)
}

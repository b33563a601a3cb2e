package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"gridlock/internal/models"
	"gridlock/internal/store"
)

func TestCreateAndGetRoom(t *testing.T) {
	s := New()
	ctx := context.Background()

	room := models.NewRoom(uuid.New(), uuid.New())
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if room.Version != 1 {
		t.Fatalf("create should set version 1, got %d", room.Version)
	}
	if err := s.CreateRoom(ctx, room); !errors.Is(err, store.ErrRoomExists) {
		t.Fatalf("duplicate create: expected ErrRoomExists, got %v", err)
	}

	got, err := s.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != room.ID || len(got.Players) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	// Returned rooms are copies, not aliases into the store.
	got.Players[0].Symbol = models.SymbolO
	again, _ := s.GetRoom(ctx, room.ID)
	if again.Players[0].Symbol != models.SymbolX {
		t.Fatalf("store record was mutated through a returned copy")
	}
}

func TestPutRoomVersionConflict(t *testing.T) {
	s := New()
	ctx := context.Background()

	room := models.NewRoom(uuid.New(), uuid.New())
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Two readers load the same version; only the first write lands.
	first, _ := s.GetRoom(ctx, room.ID)
	second, _ := s.GetRoom(ctx, room.ID)

	first.Board[0][0] = models.SymbolX
	if err := s.PutRoom(ctx, first); err != nil {
		t.Fatalf("first put failed: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("put should bump the version, got %d", first.Version)
	}

	second.Board[0][0] = models.SymbolO
	if err := s.PutRoom(ctx, second); !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("stale put: expected ErrVersionConflict, got %v", err)
	}

	got, _ := s.GetRoom(ctx, room.ID)
	if got.Board[0][0] != models.SymbolX {
		t.Fatalf("losing write must not land, cell holds %q", got.Board[0][0])
	}
}

func TestFindWaitingRoomPicksOldest(t *testing.T) {
	s := New()
	ctx := context.Background()

	older := models.NewRoom(uuid.New(), uuid.New())
	older.CreatedAt = time.Now().Add(-time.Minute)
	newer := models.NewRoom(uuid.New(), uuid.New())

	full := models.NewRoom(uuid.New(), uuid.New())
	if err := full.AddPlayer(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	for _, r := range []*models.Room{newer, full, older} {
		if err := s.CreateRoom(ctx, r); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	got, err := s.FindWaitingRoom(ctx)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if got.ID != older.ID {
		t.Fatalf("should pick the oldest waiting room")
	}
}

func TestFindWaitingRoomEmpty(t *testing.T) {
	s := New()
	if _, err := s.FindWaitingRoom(context.Background()); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestFindRoomByUserAndConnection(t *testing.T) {
	s := New()
	ctx := context.Background()

	userID, connID := uuid.New(), uuid.New()
	room := models.NewRoom(userID, connID)
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	byUser, err := s.FindRoomByUser(ctx, userID)
	if err != nil || byUser.ID != room.ID {
		t.Fatalf("find by user failed: %v", err)
	}
	byConn, err := s.FindRoomByConnection(ctx, connID)
	if err != nil || byConn.ID != room.ID {
		t.Fatalf("find by connection failed: %v", err)
	}
	if _, err := s.FindRoomByUser(ctx, uuid.New()); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("unknown user: expected ErrRoomNotFound, got %v", err)
	}
}

func TestConnections(t *testing.T) {
	s := New()
	ctx := context.Background()

	connID, userID := uuid.New(), uuid.New()
	if err := s.RegisterConnection(ctx, connID, userID); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	got, err := s.LookupConnection(ctx, connID)
	if err != nil || got != userID {
		t.Fatalf("lookup mismatch: %v %v", got, err)
	}
	if err := s.RemoveConnection(ctx, connID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := s.LookupConnection(ctx, connID); !errors.Is(err, store.ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestRecordResultAccumulates(t *testing.T) {
	s := New()
	ctx := context.Background()

	winner, loser := uuid.New(), uuid.New()
	outcomes := map[uuid.UUID]models.GameOutcome{
		winner: models.OutcomeWin,
		loser:  models.OutcomeLoss,
	}
	if err := s.RecordResult(ctx, outcomes); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := s.RecordResult(ctx, map[uuid.UUID]models.GameOutcome{
		winner: models.OutcomeDraw,
		loser:  models.OutcomeDraw,
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	st, err := s.GetStats(ctx, winner)
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if st.GamesPlayed != 2 || st.Wins != 1 || st.Draws != 1 {
		t.Fatalf("stats wrong: %+v", st)
	}

	all, err := s.AllStats(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("all stats wrong: %d err=%v", len(all), err)
	}
}

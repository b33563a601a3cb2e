// Package redisstore is the Redis-backed implementation of the room store
// and connection registry. Rooms are JSON records; the conditional write is
// a WATCH/MULTI transaction keyed on the room's version field.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gridlock/internal/models"
	"gridlock/internal/store"
)

type Store struct {
	client *redis.Client
	cfg    Config
}

// New connects a Redis client and verifies the connection.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Store{client: client, cfg: cfg}, nil
}

// NewWithClient wraps an existing client (for testing).
func NewWithClient(client *redis.Client, cfg Config) *Store {
	return &Store{client: client, cfg: cfg}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

var (
	_ store.RoomStore       = (*Store)(nil)
	_ store.ConnectionStore = (*Store)(nil)
)

// Room operations

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	room.Version = 1
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, roomKey(room.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrRoomExists
	}
	return s.client.SAdd(ctx, roomIndexKey(), room.ID.String()).Err()
}

func (s *Store) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrRoomNotFound
		}
		return nil, err
	}

	var room models.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Store) PutRoom(ctx context.Context, room *models.Room) error {
	key := roomKey(room.ID)

	next := *room
	next.Version++
	payload, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrRoomNotFound
		}
		if err != nil {
			return err
		}

		var current models.Room
		if err := json.Unmarshal(data, &current); err != nil {
			return err
		}
		if current.Version != room.Version {
			return store.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// The key changed between our read and the MULTI commit.
		return store.ErrVersionConflict
	}
	if err != nil {
		return err
	}

	room.Version = next.Version
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id uuid.UUID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, roomIndexKey(), id.String())
	_, err := pipe.Exec(ctx)
	return err
}

// scanRooms loads every indexed room, pruning index entries whose record
// is gone.
func (s *Store) scanRooms(ctx context.Context) ([]*models.Room, error) {
	ids, err := s.client.SMembers(ctx, roomIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		keys = append(keys, roomKey(parsed))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*models.Room, 0, len(values))
	for i, val := range values {
		if val == nil {
			s.client.SRem(ctx, roomIndexKey(), ids[i])
			continue
		}
		var room models.Room
		if err := json.Unmarshal([]byte(val.(string)), &room); err != nil {
			continue
		}
		rooms = append(rooms, &room)
	}
	return rooms, nil
}

func (s *Store) FindWaitingRoom(ctx context.Context) (*models.Room, error) {
	rooms, err := s.scanRooms(ctx)
	if err != nil {
		return nil, err
	}

	var oldest *models.Room
	for _, r := range rooms {
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
	return oldest, nil
}

func (s *Store) FindRoomByUser(ctx context.Context, userID uuid.UUID) (*models.Room, error) {
	rooms, err := s.scanRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if r.PlayerByUser(userID) != nil {
			return r, nil
		}
	}
	return nil, store.ErrRoomNotFound
}

func (s *Store) FindRoomByConnection(ctx context.Context, connID uuid.UUID) (*models.Room, error) {
	rooms, err := s.scanRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if r.PlayerByConnection(connID) != nil {
			return r, nil
		}
	}
	return nil, store.ErrRoomNotFound
}

// Connection operations

func (s *Store) RegisterConnection(ctx context.Context, connID, userID uuid.UUID) error {
	return s.client.Set(ctx, connectionKey(connID), userID.String(), s.cfg.ConnectionTTL).Err()
}

func (s *Store) LookupConnection(ctx context.Context, connID uuid.UUID) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, connectionKey(connID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, store.ErrConnectionNotFound
		}
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (s *Store) RemoveConnection(ctx context.Context, connID uuid.UUID) error {
	return s.client.Del(ctx, connectionKey(connID)).Err()
}

package registry

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/store"
)

// CreateRoom creates a room owned by the given user, allocating a unique
// human-readable slug. The owner must still exist.
func (m *Module) CreateRoom(ctx context.Context, owner string) (*rooms.Room, error) {
	if _, err := m.GetUser(ctx, owner); err != nil {
		return nil, err
	}

	room := &rooms.Room{
		ID:      m.ids.Entity(),
		Owner:   owner,
		Created: time.Now().UTC().Truncate(time.Second),
	}

	slug, err := m.allocateSlug(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.Slug = slug

	key := store.RoomKey(room.ID)
	pipe := m.store.Client().TxPipeline()
	pipe.HSet(ctx, key, "slug", room.Slug, "owner", room.Owner, "created", room.Created.Unix())
	pipe.Expire(ctx, key, m.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to create room")
	}

	return room, nil
}

// allocateSlug claims a slug via set-if-absent, retrying a bounded number of
// times. Exhausting the bound means the slug space is under real pressure
// and is reported as an internal error.
func (m *Module) allocateSlug(ctx context.Context, roomID string) (string, error) {
	for i := 0; i < m.cfg.SlugAttempts; i++ {
		candidate := newSlug()
		ok, err := m.store.Client().HSetNX(ctx, store.SlugsKey, candidate, roomID).Result()
		if err != nil {
			return "", rooms.Wrap(rooms.KindInternal, err, "failed to claim slug")
		}
		if ok {
			return candidate, nil
		}
	}
	return "", rooms.Errf(rooms.KindInternal, "slug space exhausted after %d attempts", m.cfg.SlugAttempts)
}

// GetRoom fetches a room by id.
func (m *Module) GetRoom(ctx context.Context, id string) (*rooms.Room, error) {
	fields, err := m.store.Client().HGetAll(ctx, store.RoomKey(id)).Result()
	if err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to fetch room")
	}
	if len(fields) == 0 {
		return nil, rooms.Errf(rooms.KindNotFound, "room %s not found", id)
	}
	return parseRoom(id, fields), nil
}

// GetRoomBySlug resolves a slug to its room. A slug entry whose room has
// expired is dropped from the map and reported NotFound.
func (m *Module) GetRoomBySlug(ctx context.Context, slug string) (*rooms.Room, error) {
	id, err := m.store.Client().HGet(ctx, store.SlugsKey, slug).Result()
	if errors.Is(err, redis.Nil) {
		return nil, rooms.Errf(rooms.KindNotFound, "room %q not found", slug)
	}
	if err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to resolve slug")
	}

	room, err := m.GetRoom(ctx, id)
	if rooms.IsNotFound(err) {
		m.store.Client().HDel(ctx, store.SlugsKey, slug)
	}
	return room, err
}

// TouchRoom refreshes a room's retention window.
func (m *Module) TouchRoom(ctx context.Context, id string) error {
	return m.store.Client().Expire(ctx, store.RoomKey(id), m.cfg.RoomTTL).Err()
}

// RoomTTL exposes the room retention window to collaborating modules.
func (m *Module) RoomTTL() time.Duration { return m.cfg.RoomTTL }

func parseRoom(id string, fields map[string]string) *rooms.Room {
	created, _ := strconv.ParseInt(fields["created"], 10, 64)
	return &rooms.Room{
		ID:      id,
		Slug:    fields["slug"],
		Owner:   fields["owner"],
		Created: time.Unix(created, 0).UTC(),
	}
}

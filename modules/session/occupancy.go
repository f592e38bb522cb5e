package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/store"
)

// Create admits an actor into a room and returns their session. The
// occupancy read, the capacity checks, and both writes commit as a single
// optimistic transaction against the occupancy map; without that, two
// guests racing the same empty slot could both be admitted.
func (m *Module) Create(ctx context.Context, roomID, actor string) (*rooms.Session, error) {
	room, err := m.registry.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	role := rooms.RoleOf(room, actor)
	occKey := store.RoomConnectionsKey(roomID)

	var sess *rooms.Session
	for attempt := 0; attempt < m.cfg.CreateRetries; attempt++ {
		err = m.store.Client().Watch(ctx, func(tx *redis.Tx) error {
			occupancy, err := tx.HGetAll(ctx, occKey).Result()
			if err != nil {
				return rooms.Wrap(rooms.KindInternal, err, "failed to read occupancy")
			}

			if _, present := occupancy[actor]; present {
				return rooms.Errf(rooms.KindConflict, "user %s is already in room %s", actor, roomID)
			}
			if role == rooms.RoleGuest {
				for occupant := range occupancy {
					if occupant != room.Owner {
						return rooms.Errf(rooms.KindConflict, "room %s already has a guest", roomID)
					}
				}
			}

			id := m.ids.Connection()
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				connKey := store.ConnectionKey(id)
				pipe.HSet(ctx, connKey, "room", roomID, "owner", actor)
				pipe.Expire(ctx, connKey, m.cfg.ConnectionTTL)
				pipe.HSet(ctx, occKey, actor, id)
				pipe.Expire(ctx, occKey, m.registry.RoomTTL())
				return nil
			})
			if err == nil {
				sess = &rooms.Session{ID: id, Room: roomID, Owner: actor}
			}
			return err
		}, occKey)

		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		// Lost the optimistic race; re-read occupancy and try again.
	}

	if errors.Is(err, redis.TxFailedErr) {
		return nil, rooms.Errf(rooms.KindConflict, "room %s occupancy is contended", roomID)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Get resolves a connection id to its session. A record that the occupancy
// map no longer links to is a dangling reference and resolves NotFound even
// though the backing hash may not have expired yet.
func (m *Module) Get(ctx context.Context, id string) (*rooms.Session, error) {
	fields, err := m.store.Client().HGetAll(ctx, store.ConnectionKey(id)).Result()
	if err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to fetch connection")
	}
	if len(fields) == 0 {
		return nil, rooms.Errf(rooms.KindNotFound, "connection %s not found", id)
	}
	sess := &rooms.Session{ID: id, Room: fields["room"], Owner: fields["owner"]}

	current, err := m.store.Client().HGet(ctx, store.RoomConnectionsKey(sess.Room), sess.Owner).Result()
	if errors.Is(err, redis.Nil) || (err == nil && current != id) {
		return nil, rooms.Errf(rooms.KindNotFound, "connection %s is no longer current", id)
	}
	if err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to verify occupancy")
	}
	return sess, nil
}

// Delete retires a session. The occupancy entry is removed only while it
// still points at this id; a superseded entry is left alone, which is
// normal under reconnect races, not an error. The connection record and its
// signal stream are deleted unconditionally.
func (m *Module) Delete(ctx context.Context, id string) error {
	connKey := store.ConnectionKey(id)
	fields, err := m.store.Client().HGetAll(ctx, connKey).Result()
	if err != nil {
		return rooms.Wrap(rooms.KindInternal, err, "failed to fetch connection")
	}
	if len(fields) == 0 {
		return rooms.Errf(rooms.KindNotFound, "connection %s not found", id)
	}
	owner := fields["owner"]
	occKey := store.RoomConnectionsKey(fields["room"])

	for attempt := 0; attempt < m.cfg.CreateRetries; attempt++ {
		err = m.store.Client().Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.HGet(ctx, occKey, owner).Result()
			if errors.Is(err, redis.Nil) || (err == nil && current != id) {
				return nil // superseded; leave the new occupant's link in place
			}
			if err != nil {
				return rooms.Wrap(rooms.KindInternal, err, "failed to read occupancy")
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HDel(ctx, occKey, owner)
				return nil
			})
			return err
		}, occKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return err
	}

	if err := m.store.Client().Del(ctx, connKey, store.ConnectionSignalKey(id)).Err(); err != nil {
		return rooms.Wrap(rooms.KindInternal, err, "failed to delete connection")
	}
	return nil
}

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

// CreateUser registers a user under a fresh id.
func (m *Module) CreateUser(ctx context.Context, name string) (*rooms.User, error) {
	if err := rooms.ValidateName(name); err != nil {
		return nil, err
	}

	user := &rooms.User{
		ID:      m.ids.Entity(),
		Name:    name,
		Created: time.Now().UTC().Truncate(time.Second),
	}

	key := store.UserKey(user.ID)
	events := store.UserEventsKey(user.ID)

	pipe := m.store.Client().TxPipeline()
	pipe.HSet(ctx, key, "name", user.Name, "created", user.Created.Unix())
	pipe.Expire(ctx, key, m.cfg.UserTTL)
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: events,
		Values: map[string]any{"kind": "registered", "time": user.Created.UnixMilli()},
	})
	pipe.Expire(ctx, events, m.cfg.UserTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to create user")
	}

	return user, nil
}

// GetUser fetches a user by id. An expired or never-registered id is NotFound.
func (m *Module) GetUser(ctx context.Context, id string) (*rooms.User, error) {
	fields, err := m.store.Client().HGetAll(ctx, store.UserKey(id)).Result()
	if err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "failed to fetch user")
	}
	if len(fields) == 0 {
		return nil, rooms.Errf(rooms.KindNotFound, "user %s not found", id)
	}
	return parseUser(id, fields), nil
}

// UpdateUser renames a user. The existence check and the write commit as one
// optimistic transaction: a user that vanishes between the two surfaces as
// Conflict, a user already absent as NotFound.
func (m *Module) UpdateUser(ctx context.Context, id, name string) error {
	if err := rooms.ValidateName(name); err != nil {
		return err
	}

	key := store.UserKey(id)
	err := m.store.Client().Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return rooms.Wrap(rooms.KindInternal, err, "failed to check user")
		}
		if exists == 0 {
			return rooms.Errf(rooms.KindNotFound, "user %s not found", id)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "name", name)
			pipe.Expire(ctx, key, m.cfg.UserTTL)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return rooms.Errf(rooms.KindConflict, "user %s changed during update", id)
	}
	return err
}

func parseUser(id string, fields map[string]string) *rooms.User {
	created, _ := strconv.ParseInt(fields["created"], 10, 64)
	return &rooms.User{
		ID:      id,
		Name:    fields["name"],
		Created: time.Unix(created, 0).UTC(),
	}
}

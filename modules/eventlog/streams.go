package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/store"
)

// StartCursor reads a stream from its beginning.
const StartCursor = "0"

// AppendMessage appends a join/leave/chat entry to the room's message
// stream and refreshes the room's and the stream's retention.
func (m *Module) AppendMessage(ctx context.Context, roomID string, msg rooms.Message) (string, error) {
	values := map[string]any{
		"kind":    string(msg.Kind),
		"time":    msg.Time.UnixMilli(),
		"user":    msg.User,
		"session": msg.Session,
	}
	if msg.Kind == rooms.MessageChat {
		values["body"] = msg.Body
	}

	streamKey := store.RoomMessagesKey(roomID)
	pipe := m.store.Client().TxPipeline()
	add := pipe.XAdd(ctx, &redis.XAddArgs{Stream: streamKey, Values: values})
	pipe.Expire(ctx, streamKey, m.cfg.RoomTTL)
	pipe.Expire(ctx, store.RoomKey(roomID), m.cfg.RoomTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", rooms.Wrap(rooms.KindInternal, err, "failed to append message")
	}
	return add.Val(), nil
}

// AppendSignal appends an opaque negotiation payload to the connection's
// signal stream and refreshes the connection's retention.
func (m *Module) AppendSignal(ctx context.Context, connectionID string, sig rooms.Signal) (string, error) {
	streamKey := store.ConnectionSignalKey(connectionID)
	pipe := m.store.Client().TxPipeline()
	add := pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]any{"kind": string(sig.Kind), "payload": string(sig.Payload)},
	})
	pipe.Expire(ctx, streamKey, m.cfg.ConnectionTTL)
	pipe.Expire(ctx, store.ConnectionKey(connectionID), m.cfg.ConnectionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", rooms.Wrap(rooms.KindInternal, err, "failed to append signal")
	}
	return add.Val(), nil
}

// Tail blocks on the given streams until an entry past the matching cursor
// arrives or block elapses. An idle tick returns an empty batch, not an
// error; it exists so the caller can re-check whether it should keep
// running. conn is the caller's dedicated connection.
func Tail(ctx context.Context, conn redis.Cmdable, streams, cursors []string, block time.Duration) ([]redis.XStream, error) {
	args := &redis.XReadArgs{
		Streams: append(append([]string{}, streams...), cursors...),
		Block:   block,
	}
	result, err := conn.XRead(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, rooms.Wrap(rooms.KindInternal, err, "stream read failed")
	}
	return result, nil
}

// ParseMessage decodes a room stream entry.
func ParseMessage(values map[string]any) rooms.Message {
	ms, _ := strconv.ParseInt(field(values, "time"), 10, 64)
	return rooms.Message{
		Kind:    rooms.MessageKind(field(values, "kind")),
		Time:    time.UnixMilli(ms).UTC(),
		User:    field(values, "user"),
		Session: field(values, "session"),
		Body:    field(values, "body"),
	}
}

// ParseSignal decodes a signal stream entry. The payload stays raw.
func ParseSignal(values map[string]any) rooms.Signal {
	return rooms.Signal{
		Kind:    rooms.SignalKind(field(values, "kind")),
		Payload: json.RawMessage(field(values, "payload")),
	}
}

func field(values map[string]any, key string) string {
	s, _ := values[key].(string)
	return s
}

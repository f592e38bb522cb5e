package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/eventlog"
	"github.com/silverlyra/portico/modules/registry"
	"github.com/silverlyra/portico/modules/store"
)

// forwarder is the per-connection relay state machine:
//
//	verifying -> relaying(peer unknown) <-> relaying(peer known) -> closed
//
// All state here is private to one session's lifetime, including the
// memoized user cache.
type forwarder struct {
	store    *store.Module
	registry *registry.Module
	block    time.Duration

	room       *rooms.Room
	actor      string
	connection string
	dest       Destination

	users map[string]rooms.UserRef

	roomCursor string
	peer       string // peer's connection id, "" while unknown
	peerCursor string
}

func (f *forwarder) run(ctx context.Context) error {
	conn := f.store.Dedicated()
	defer conn.Close()
	defer f.dest.Close()

	occKey := store.RoomConnectionsKey(f.room.ID)

	// Verify this connection is still the actor's current one. A stale or
	// superseded connection gets closed without relaying anything.
	current, err := conn.HGet(ctx, occKey, f.actor).Result()
	if errors.Is(err, redis.Nil) || (err == nil && current != f.connection) {
		slog.Debug("Forwarder refused stale connection",
			"room", f.room.ID, "connection", f.connection)
		return nil
	}
	if err != nil {
		return rooms.Wrap(rooms.KindInternal, err, "failed to verify occupancy")
	}

	// Bootstrap the peer from the occupancy map. Their signal cursor starts
	// at the beginning of the stream: the peer usually produced its offer
	// and early ICE candidates before we arrived, and WebRTC tolerates the
	// occasional replayed candidate.
	occupancy, err := conn.HGetAll(ctx, occKey).Result()
	if err != nil {
		return rooms.Wrap(rooms.KindInternal, err, "failed to scan occupancy")
	}
	for occupant, connectionID := range occupancy {
		if occupant != f.actor {
			f.adoptPeer(connectionID)
		}
	}

	roomStream := store.RoomMessagesKey(f.room.ID)
	f.roomCursor = eventlog.StartCursor

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams := []string{roomStream}
		cursors := []string{f.roomCursor}
		peerAtRead := f.peer
		if peerAtRead != "" {
			streams = append(streams, store.ConnectionSignalKey(peerAtRead))
			cursors = append(cursors, f.peerCursor)
		}

		batch, err := eventlog.Tail(ctx, conn, streams, cursors, f.block)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Losing the store mid-read is fatal for this forwarder; the
			// caller deletes the session to reconcile occupancy.
			return err
		}

		for _, stream := range batch {
			if stream.Stream == roomStream {
				for _, entry := range stream.Messages {
					msg := eventlog.ParseMessage(entry.Values)
					delivered, err := f.deliver(ctx, msg)
					if err != nil {
						return err
					}
					if !delivered {
						return nil
					}
					f.roomCursor = entry.ID
				}
				continue
			}
			// The peer may have changed while room entries in this batch
			// were handled; signals from a dropped peer are skipped.
			if f.peer != peerAtRead {
				continue
			}
			for _, entry := range stream.Messages {
				sig := eventlog.ParseSignal(entry.Values)
				if err := f.dest.Send(sig.Payload); err != nil {
					return nil
				}
				f.peerCursor = entry.ID
			}
		}
	}
}

// deliver enriches a room entry and forwards it, updating peer state.
// The bool result is false once the destination is gone.
func (f *forwarder) deliver(ctx context.Context, msg rooms.Message) (bool, error) {
	user, err := f.resolveUser(ctx, msg.User)
	if err != nil {
		return false, err
	}

	var event any
	switch msg.Kind {
	case rooms.MessageJoin:
		if msg.User != f.actor {
			f.adoptPeer(msg.Session)
		}
		event = rooms.JoinEvent{
			Type:    rooms.EventJoin,
			Time:    msg.Time,
			User:    user,
			Session: msg.Session,
			Role:    rooms.RoleOf(f.room, msg.User),
		}
	case rooms.MessageLeave:
		if msg.Session == f.peer {
			f.dropPeer()
		}
		event = rooms.LeaveEvent{
			Type:    rooms.EventLeave,
			Time:    msg.Time,
			User:    user,
			Session: msg.Session,
		}
	case rooms.MessageChat:
		event = rooms.ChatEvent{
			Type:    rooms.EventChat,
			Time:    msg.Time,
			User:    user,
			Session: msg.Session,
			Message: msg.Body,
		}
	default:
		return true, nil
	}

	if err := f.dest.Send(event); err != nil {
		return false, nil
	}
	return true, nil
}

// resolveUser memoizes user lookups for this forwarder's lifetime. An
// expired user keeps their id but loses their name.
func (f *forwarder) resolveUser(ctx context.Context, id string) (rooms.UserRef, error) {
	if ref, ok := f.users[id]; ok {
		return ref, nil
	}
	user, err := f.registry.GetUser(ctx, id)
	if rooms.IsNotFound(err) {
		ref := rooms.UserRef{ID: id}
		f.users[id] = ref
		return ref, nil
	}
	if err != nil {
		return rooms.UserRef{}, err
	}
	ref := user.Ref()
	f.users[id] = ref
	return ref, nil
}

func (f *forwarder) adoptPeer(connectionID string) {
	f.peer = connectionID
	f.peerCursor = eventlog.StartCursor
}

func (f *forwarder) dropPeer() {
	f.peer = ""
	f.peerCursor = ""
}

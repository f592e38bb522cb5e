package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/silverlyra/portico/domain/rooms"
)

// handleSocket runs one participant's duplex session: create the session,
// announce the join, then pump the socket reader and the forwarder until
// either side finishes. Teardown always announces the leave and retires the
// session, even when the forwarder failed.
func (m *Module) handleSocket(c *websocket.Conn) {
	actor, _ := c.Locals(actorKey).(string)
	slug := c.Params("slug")
	dest := newSocketDestination(c)
	ctx := context.Background()

	room, err := m.registry.GetRoomBySlug(ctx, slug)
	if err != nil {
		dest.reject(err)
		return
	}
	sess, err := m.sessions.Create(ctx, room.ID, actor)
	if err != nil {
		dest.reject(err)
		return
	}

	if _, err := m.eventlog.AppendMessage(ctx, room.ID, rooms.Message{
		Kind:    rooms.MessageJoin,
		Time:    time.Now().UTC(),
		User:    actor,
		Session: sess.ID,
	}); err != nil {
		slog.Error("Failed to announce join", "room", room.ID, "error", err)
		dest.reject(err)
		m.teardown(room.ID, sess, actor, false)
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		defer cancel()
		return m.relay.Forward(runCtx, room, actor, sess.ID, dest)
	})
	g.Go(func() error {
		defer cancel()
		return m.readLoop(runCtx, c, sess)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Session ended with error",
			"room", room.ID, "session", sess.ID, "error", err)
	}
	m.teardown(room.ID, sess, actor, true)
}

// teardown announces the leave (so the peer's forwarder drops us) and
// retires the session. A NotFound on delete means we were already
// superseded or expired, which is fine.
func (m *Module) teardown(roomID string, sess *rooms.Session, actor string, announce bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if announce {
		if _, err := m.eventlog.AppendMessage(ctx, roomID, rooms.Message{
			Kind:    rooms.MessageLeave,
			Time:    time.Now().UTC(),
			User:    actor,
			Session: sess.ID,
		}); err != nil {
			slog.Warn("Failed to announce leave", "room", roomID, "error", err)
		}
	}

	if err := m.sessions.Delete(ctx, sess.ID); err != nil && !rooms.IsNotFound(err) {
		slog.Warn("Failed to delete session", "session", sess.ID, "error", err)
	}
}

// readLoop consumes client events until the socket closes, the client sends
// leave, or the context is cancelled (the forwarder closes the socket on
// cancel, which unblocks the read).
func (m *Module) readLoop(ctx context.Context, c *websocket.Conn, sess *rooms.Session) error {
	for {
		_, payload, err := c.ReadMessage()
		if err != nil {
			return nil
		}

		var event rooms.ClientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			slog.Debug("Dropping malformed client event", "session", sess.ID)
			continue
		}
		event.Raw = payload

		switch event.Type {
		case "chat":
			var req rooms.ChatRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				continue
			}
			if err := rooms.ValidateChat(req.Message); err != nil {
				continue
			}
			if _, err := m.eventlog.AppendMessage(ctx, sess.Room, rooms.Message{
				Kind:    rooms.MessageChat,
				Time:    time.Now().UTC(),
				User:    sess.Owner,
				Session: sess.ID,
				Body:    req.Message,
			}); err != nil {
				return err
			}
		case "leave":
			return nil
		case "ice":
			if _, err := m.eventlog.AppendSignal(ctx, sess.ID, rooms.Signal{
				Kind:    rooms.SignalICE,
				Payload: event.Raw,
			}); err != nil {
				return err
			}
		case "sdp":
			if _, err := m.eventlog.AppendSignal(ctx, sess.ID, rooms.Signal{
				Kind:    rooms.SignalSDP,
				Payload: event.Raw,
			}); err != nil {
				return err
			}
		default:
			slog.Debug("Ignoring unknown client event",
				"session", sess.ID, "type", event.Type)
		}
	}
}

// socketDestination adapts a websocket connection to relay.Destination.
// The forwarder is the only steady-state writer; the mutex covers the
// pre-session error frame.
type socketDestination struct {
	conn *websocket.Conn
	mu   sync.Mutex
	once sync.Once
}

func newSocketDestination(c *websocket.Conn) *socketDestination {
	return &socketDestination{conn: c}
}

func (d *socketDestination) Send(event any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conn.WriteJSON(event)
}

func (d *socketDestination) Close() error {
	var err error
	d.once.Do(func() { err = d.conn.Close() })
	return err
}

// reject sends one classified error frame and closes the socket; used when
// the session could not be established.
func (d *socketDestination) reject(err error) {
	kind := rooms.KindOf(err)
	frame := struct {
		Type    string `json:"type"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}{Type: "error", Error: kind.String(), Message: err.Error()}
	if kind == rooms.KindInternal {
		frame.Message = "internal error"
	}
	_ = d.Send(frame)
	_ = d.Close()
}

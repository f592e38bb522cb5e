package eventlog

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/silverlyra/portico/domain/rooms"
	"github.com/silverlyra/portico/modules/store"
)

func newTestLog(t *testing.T) (*Module, *store.Module) {
	t.Helper()

	cfg := store.DefaultConfig()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	st := store.NewModule(cfg)
	if err := st.Init(nil); err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Addr, err)
	}
	t.Cleanup(func() { st.Stop(context.Background()) })

	logCfg := DefaultConfig()
	logCfg.RoomTTL = time.Minute
	logCfg.ConnectionTTL = time.Minute
	return NewModule(logCfg, st), st
}

func TestAppendMessageOrdering(t *testing.T) {
	log, st := newTestLog(t)
	ctx := context.Background()
	roomID := "log-test-room"
	t.Cleanup(func() {
		st.Client().Del(context.Background(), store.RoomMessagesKey(roomID))
	})

	var prev string
	for i, body := range []string{"first", "second", "third"} {
		id, err := log.AppendMessage(ctx, roomID, rooms.Message{
			Kind:    rooms.MessageChat,
			Time:    time.Now(),
			User:    "u1",
			Session: "s1",
			Body:    body,
		})
		if err != nil {
			t.Fatalf("AppendMessage() #%d error: %v", i, err)
		}
		if id <= prev {
			t.Fatalf("AppendMessage() id %q not after %q", id, prev)
		}
		prev = id
	}
}

func TestTailFromCursor(t *testing.T) {
	log, st := newTestLog(t)
	ctx := context.Background()
	roomID := "log-test-cursor"
	streamKey := store.RoomMessagesKey(roomID)
	t.Cleanup(func() {
		st.Client().Del(context.Background(), streamKey)
	})

	msg := func(body string) rooms.Message {
		return rooms.Message{Kind: rooms.MessageChat, Time: time.Now(), User: "u1", Session: "s1", Body: body}
	}

	first, err := log.AppendMessage(ctx, roomID, msg("before"))
	if err != nil {
		t.Fatalf("AppendMessage() error: %v", err)
	}
	if _, err := log.AppendMessage(ctx, roomID, msg("after")); err != nil {
		t.Fatalf("AppendMessage() error: %v", err)
	}

	// From the start everything replays.
	batch, err := Tail(ctx, st.Client(), []string{streamKey}, []string{StartCursor}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if len(batch) != 1 || len(batch[0].Messages) != 2 {
		t.Fatalf("Tail() from start = %+v, want one stream with two entries", batch)
	}

	// From the first id only the second entry is delivered.
	batch, err = Tail(ctx, st.Client(), []string{streamKey}, []string{first}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if len(batch) != 1 || len(batch[0].Messages) != 1 {
		t.Fatalf("Tail() past %s = %+v, want exactly one entry", first, batch)
	}
	if got := ParseMessage(batch[0].Messages[0].Values); got.Body != "after" {
		t.Errorf("ParseMessage() body = %q, want %q", got.Body, "after")
	}
}

func TestTailIdleReturnsEmpty(t *testing.T) {
	_, st := newTestLog(t)
	ctx := context.Background()
	streamKey := store.RoomMessagesKey("log-test-idle")

	start := time.Now()
	batch, err := Tail(ctx, st.Client(), []string{streamKey}, []string{StartCursor}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if batch != nil {
		t.Fatalf("Tail() on idle stream = %+v, want nil", batch)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Tail() returned after %v, expected it to block", elapsed)
	}
}

func TestSignalRoundTrip(t *testing.T) {
	log, st := newTestLog(t)
	ctx := context.Background()
	connID := "log-test-conn"
	streamKey := store.ConnectionSignalKey(connID)
	t.Cleanup(func() {
		st.Client().Del(context.Background(), streamKey)
	})

	payload := json.RawMessage(`{"type":"ice","candidate":"candidate:1 1 UDP 2122252543 192.0.2.1 54400 typ host"}`)
	if _, err := log.AppendSignal(ctx, connID, rooms.Signal{Kind: rooms.SignalICE, Payload: payload}); err != nil {
		t.Fatalf("AppendSignal() error: %v", err)
	}

	batch, err := Tail(ctx, st.Client(), []string{streamKey}, []string{StartCursor}, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Tail() error: %v", err)
	}
	if len(batch) != 1 || len(batch[0].Messages) != 1 {
		t.Fatalf("Tail() = %+v, want one entry", batch)
	}

	sig := ParseSignal(batch[0].Messages[0].Values)
	if sig.Kind != rooms.SignalICE {
		t.Errorf("ParseSignal() kind = %q, want %q", sig.Kind, rooms.SignalICE)
	}
	if string(sig.Payload) != string(payload) {
		t.Errorf("ParseSignal() payload = %s, want the bytes back untouched", sig.Payload)
	}
}

func TestParseMessageFields(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := ParseMessage(map[string]any{
		"kind":    "chat",
		"time":    "1773480413000",
		"user":    "u-9",
		"session": "c-9",
		"body":    "hello",
	})
	want := rooms.Message{Kind: rooms.MessageChat, Time: at, User: "u-9", Session: "c-9", Body: "hello"}
	if got != want {
		t.Errorf("ParseMessage() = %+v, want %+v", got, want)
	}
}

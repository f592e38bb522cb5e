package rooms

import (
	"encoding/json"
	"time"
)

// Server-to-client event type tags. ICE and SDP payloads keep the tag the
// sending client put on them, so they are not re-encoded here.
const (
	EventJoin  = "join"
	EventLeave = "leave"
	EventChat  = "chat"
)

// JoinEvent tells a client that a participant entered the room.
type JoinEvent struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	User    UserRef   `json:"user"`
	Session string    `json:"session"`
	Role    Role      `json:"role"`
}

// LeaveEvent tells a client that a participant left the room.
type LeaveEvent struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	User    UserRef   `json:"user"`
	Session string    `json:"session"`
}

// ChatEvent carries a chat line to a client.
type ChatEvent struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	User    UserRef   `json:"user"`
	Session string    `json:"session"`
	Message string    `json:"message"`
}

// ClientEvent is the envelope for client-to-server messages. Everything but
// the type tag stays raw: chat and leave are decoded into ChatRequest, ice
// and sdp are appended to the signal stream verbatim.
type ClientEvent struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// ChatRequest is the body of a client "chat" event.
type ChatRequest struct {
	Message string `json:"message"`
}

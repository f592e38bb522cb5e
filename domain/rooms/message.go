package rooms

import (
	"encoding/json"
	"time"
)

// MessageKind tags an entry in a room's message stream.
type MessageKind string

const (
	MessageJoin  MessageKind = "join"
	MessageLeave MessageKind = "leave"
	MessageChat  MessageKind = "chat"
)

// Message is a room-scoped log entry: a participant joined, left, or said
// something. Body is set only for chat messages.
type Message struct {
	Kind    MessageKind `json:"kind"`
	Time    time.Time   `json:"time"`
	User    string      `json:"user"`
	Session string      `json:"session"`
	Body    string      `json:"body,omitempty"`
}

// SignalKind tags an entry in a connection's signal stream.
type SignalKind string

const (
	SignalICE SignalKind = "ice"
	SignalSDP SignalKind = "sdp"
)

// Signal is an opaque negotiation payload. Payload is the client's JSON
// verbatim, including its type tag; it is relayed to the peer untouched.
type Signal struct {
	Kind    SignalKind
	Payload json.RawMessage
}

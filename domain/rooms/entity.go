// Package rooms holds the entities and wire protocol shared by every module:
// users, rooms, sessions, the message/signal unions, and the error taxonomy.
package rooms

import "time"

// User is a registered participant.
type User struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Created time.Time `json:"created"`
}

// Ref returns the compact form embedded in wire events.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// UserRef identifies a user inside a wire event.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is a venue for one host and at most one guest.
type Room struct {
	ID      string    `json:"id"`
	Slug    string    `json:"slug"`
	Created time.Time `json:"created"`
	Owner   string    `json:"owner"`
}

// Session is one participant's active occupancy of a room. It is
// authoritative only while the room's occupancy map still links to its ID.
type Session struct {
	ID    string `json:"id"`
	Room  string `json:"room"`
	Owner string `json:"owner"`
}

// Role is derived from ownership, never stored.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// RoleOf derives the role a user holds in a room.
func RoleOf(room *Room, userID string) Role {
	if room.Owner == userID {
		return RoleHost
	}
	return RoleGuest
}

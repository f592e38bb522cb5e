// Package ids supplies identifier generation as an injected collaborator, so
// the repository and session modules never reach for a process-wide source.
package ids

import (
	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
)

// connectionIDLength keeps connection ids short enough to read in logs while
// leaving no realistic collision chance inside a connection's TTL window.
const connectionIDLength = 14

// Source mints the identifiers the core hands out.
type Source interface {
	// Entity returns a new user or room id.
	Entity() string
	// Connection returns a new connection (session) id.
	Connection() string
}

// Generator is the production Source: UUIDs for entities, nanoids for
// connections.
type Generator struct {
	connection func() string
}

// NewGenerator builds a Generator.
func NewGenerator() (*Generator, error) {
	conn, err := nanoid.Standard(connectionIDLength)
	if err != nil {
		return nil, err
	}
	return &Generator{connection: conn}, nil
}

func (g *Generator) Entity() string { return uuid.New().String() }

func (g *Generator) Connection() string { return g.connection() }

package internal

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Player struct {
	Id   string          `json:"id"`
	Conn *websocket.Conn `json:"-"`
	Room *Room           `json:"-"` // Avoid circular reference in JSON
	Name string          `json:"name"`

	// Set once at join, never changes.
	IsAdmin bool `json:"isAdmin"`

	// Derived after every move: true while the player hasn't moved yet or
	// still owns at least one cell.
	IsActive bool `json:"isActive"`

	// True once the player completed a move in the current game epoch.
	HasPlayed bool `json:"hasPlayed"`

	// True if the player joined mid-game; cleared by a full reset.
	IsSpectator bool `json:"isSpectator"`

	JoinedAt time.Time `json:"joinedAt"`

	Mu sync.Mutex `json:"-"`
}

// ToPublicPlayer strips the connection and room references for broadcast.
func (p *Player) ToPublicPlayer() *Player {
	return &Player{
		Id:          p.Id,
		Name:        p.Name,
		IsAdmin:     p.IsAdmin,
		IsActive:    p.IsActive,
		HasPlayed:   p.HasPlayed,
		IsSpectator: p.IsSpectator,
		JoinedAt:    p.JoinedAt,
	}
}

// SafeWriteJSON serializes writes on this player's connection. A player
// without a connection (tests) is a silent success.
func (p *Player) SafeWriteJSON(v any) error {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if p.Conn == nil {
		return nil
	}
	return p.Conn.WriteJSON(v)
}

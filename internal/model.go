package internal

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultGridRows     = 9
	DefaultGridCols     = 6
	DefaultTurnDuration = 20 // seconds
	MaxPlayersPerRoom   = 8
	MinPlayersForWin    = 2
)

// GridSize is the board dimensions for one game. Changeable only while no
// game is active.
type GridSize struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// TimerSettings configures the per-turn countdown for a room.
type TimerSettings struct {
	Duration int `json:"duration"` // seconds per turn
}

// Cell is one square of the board. Count == 0 if and only if Owner is empty.
type Cell struct {
	Count int    `json:"count"`
	Owner string `json:"owner"`
}

// Move records the coordinates of the last accepted move.
type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GameTimer tracks one armed turn countdown. The Context distinguishes
// natural expiry (DeadlineExceeded) from an explicit cancel.
type GameTimer struct {
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	IsActive  bool          `json:"is_active"`
	Context   context.Context
	Cancel    context.CancelFunc
}

type Room struct {
	Id string

	// Players in turn order. Insertion order by default, mutable only by an
	// explicit shuffle while no game is active.
	Players []*Player

	// Game configuration
	GridSize      GridSize
	TimerSettings TimerSettings

	// Game state
	Board            [][]Cell
	CurrentTurnIndex int
	GameStarted      bool
	LastMove         *Move

	// Turn countdown
	Timer *GameTimer

	// Concurrency control: every mutation of this room's state, including
	// timer expiry, happens under Mu.
	Mu sync.Mutex `json:"-"`

	// Context for cleanup
	Context context.Context    `json:"-"`
	Cancel  context.CancelFunc `json:"-"`
}

// NewEmptyBoard allocates an all-zero board of the given size.
func NewEmptyBoard(size GridSize) [][]Cell {
	board := make([][]Cell, size.Rows)
	for r := range board {
		board[r] = make([]Cell, size.Cols)
	}
	return board
}

// PlayerByID returns the player with the given id, or nil. Caller holds Mu.
func (r *Room) PlayerByID(id string) *Player {
	for _, p := range r.Players {
		if p.Id == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player at CurrentTurnIndex, or nil if the index
// is out of range. Caller holds Mu.
func (r *Room) CurrentPlayer() *Player {
	if r.CurrentTurnIndex < 0 || r.CurrentTurnIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentTurnIndex]
}

// NonSpectatorCount counts the players eligible for the win check.
// Caller holds Mu.
func (r *Room) NonSpectatorCount() int {
	count := 0
	for _, p := range r.Players {
		if !p.IsSpectator {
			count++
		}
	}
	return count
}

// PublicPlayers snapshots the player list for broadcasting. Caller holds Mu.
func (r *Room) PublicPlayers() []*Player {
	players := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, p.ToPublicPlayer())
	}
	return players
}

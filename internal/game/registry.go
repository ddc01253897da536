package game

import (
	"context"
	"log"
	"sync"

	"github.com/scythe504/chain-reaction-backend/internal"
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// Registry is the process-wide table of rooms. Creation and deletion are
// atomic with respect to concurrent joins and disconnects on the same id;
// all per-room state is serialized by the room's own mutex.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*internal.Room

	defaultGridSize internal.GridSize
	defaultTimer    internal.TimerSettings
}

func NewRegistry(gridSize internal.GridSize, timer internal.TimerSettings) *Registry {
	if gridSize.Rows < 1 || gridSize.Cols < 1 {
		gridSize = internal.GridSize{Rows: internal.DefaultGridRows, Cols: internal.DefaultGridCols}
	}
	if timer.Duration <= 0 {
		timer = internal.TimerSettings{Duration: internal.DefaultTurnDuration}
	}
	return &Registry{
		rooms:           make(map[string]*internal.Room),
		defaultGridSize: gridSize,
		defaultTimer:    timer,
	}
}

// GetOrCreate returns the room for roomId, creating it with the registry
// defaults on first join. Idempotent per room id.
func (reg *Registry) GetOrCreate(roomId string) *internal.Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, exists := reg.rooms[roomId]; exists {
		log.Printf("[GetOrCreate] Found existing room %s (players: %d, started: %t)",
			roomId, len(room.Players), room.GameStarted)
		return room
	}

	ctx, cancel := context.WithCancel(context.Background())
	newRoom := &internal.Room{
		Id:            roomId,
		Players:       make([]*internal.Player, 0),
		GridSize:      reg.defaultGridSize,
		TimerSettings: reg.defaultTimer,

		CurrentTurnIndex: 0,
		GameStarted:      false,

		Context: ctx,
		Cancel:  cancel,
	}
	reg.rooms[roomId] = newRoom

	log.Printf("[GetOrCreate] Created new room %s with defaults (grid=%dx%d, turn=%ds)",
		roomId, newRoom.GridSize.Rows, newRoom.GridSize.Cols, newRoom.TimerSettings.Duration)
	return newRoom
}

// Get returns the room for roomId if it exists. Actions against an unknown
// room id are treated as no-ops by callers, never hard failures.
func (reg *Registry) Get(roomId string) (*internal.Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, exists := reg.rooms[roomId]
	return room, exists
}

// Remove deletes the room and tears down its timer, context and any
// remaining connections. Called when the room's player list becomes empty.
func (reg *Registry) Remove(roomId string) {
	reg.mu.Lock()
	room, exists := reg.rooms[roomId]
	if exists {
		delete(reg.rooms, roomId)
	}
	reg.mu.Unlock()

	if !exists {
		log.Printf("[Remove] Room %s already gone, nothing to do", roomId)
		return
	}

	CancelTurnTimer(room)

	room.Mu.Lock()
	if room.Cancel != nil {
		room.Cancel()
		room.Cancel = nil
	}
	for _, player := range room.Players {
		if player.Conn != nil {
			if err := player.Conn.Close(); err != nil {
				log.Printf("[Remove] Error closing connection for player %s (%s): %v",
					player.Id, player.Name, err)
			}
		}
	}
	room.Players = nil
	room.Board = nil
	room.Timer = nil
	room.Mu.Unlock()

	log.Printf("[Remove] Room %s cleanup completed", roomId)
}

// JoinableRoom returns the id of a room that can accept new players: not
// started and below capacity. Empty string if none exists.
func (reg *Registry) JoinableRoom() string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	for _, room := range reg.rooms {
		room.Mu.Lock()
		joinable := !room.GameStarted && len(room.Players) < internal.MaxPlayersPerRoom
		roomID := room.Id
		playerCount := len(room.Players)
		room.Mu.Unlock()

		if joinable {
			log.Printf("[JoinableRoom] Found joinable room %s with %d players", roomID, playerCount)
			return roomID
		}
	}
	return ""
}

// Len reports how many rooms currently exist.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

package game

import (
	"fmt"
	"log"
	"time"

	"github.com/scythe504/chain-reaction-backend/internal"
	"github.com/scythe504/chain-reaction-backend/internal/board"
	"github.com/scythe504/chain-reaction-backend/internal/utils"
)

// =============================================================================
// GAME SESSION - JOIN, CONFIG, LIFECYCLE
// =============================================================================

// JoinOptions carries the optional room configuration supplied by the
// creating player. Only the first join into a waiting room applies them.
type JoinOptions struct {
	GridSize      *internal.GridSize
	TimerSettings *internal.TimerSettings
}

// Join adds a player to a room, creating the room on first join. A second
// join from an identity already present is a no-op. Players joining an
// active game become spectators until the next full reset.
func (h *Hub) Join(roomId string, player *internal.Player, opts JoinOptions) error {
	room := h.Registry.GetOrCreate(roomId)

	room.Mu.Lock()
	if room.PlayerByID(player.Id) != nil {
		room.Mu.Unlock()
		log.Printf("[Join] Room %s: player %s already present, ignoring duplicate join", roomId, player.Id)
		return nil
	}
	if len(room.Players) >= internal.MaxPlayersPerRoom {
		room.Mu.Unlock()
		log.Printf("[Join] Room %s is full, rejecting player %s (%s)", roomId, player.Id, player.Name)
		return ErrRoomFull
	}

	// Creator configuration only applies before any game has run.
	if len(room.Players) == 0 && !room.GameStarted {
		if opts.GridSize != nil && opts.GridSize.Rows >= 1 && opts.GridSize.Cols >= 1 {
			room.GridSize = *opts.GridSize
		}
		if opts.TimerSettings != nil && opts.TimerSettings.Duration > 0 {
			room.TimerSettings = *opts.TimerSettings
		}
	}

	player.Room = room
	player.IsSpectator = room.GameStarted
	player.IsActive = true
	player.HasPlayed = false
	player.JoinedAt = time.Now()
	room.Players = append(room.Players, player)

	gridSize := room.GridSize
	players := room.PublicPlayers()
	gameStarted := room.GameStarted
	var state internal.GameStateData
	if gameStarted {
		state = buildGameStateLocked(room, nil)
	}
	room.Mu.Unlock()

	log.Printf("[Join] Added player %s (%s) to room %s. Total players: %d, spectator: %t",
		player.Id, player.Name, roomId, len(players), player.IsSpectator)

	// Grid size snapshot goes straight back to the caller.
	if err := player.SafeWriteJSON(internal.Message[internal.GridSize]{
		Type: "gridSizeUpdate",
		Data: gridSize,
	}); err != nil {
		log.Printf("[Join] Failed to send grid size to player %s (%s): %v", player.Id, player.Name, err)
		return err
	}

	// Late joiners get the in-progress game state so they can watch.
	if gameStarted {
		if err := player.SafeWriteJSON(internal.Message[internal.GameStateData]{
			Type: "updateGameState",
			Data: state,
		}); err != nil {
			log.Printf("[Join] Failed to send game state to spectator %s (%s): %v", player.Id, player.Name, err)
		}
	}

	SafeBroadcastToRoom(room, internal.Message[internal.PlayerListUpdateData]{
		Type: "playerListUpdate",
		Data: internal.PlayerListUpdateData{Players: players},
	})

	notice := fmt.Sprintf("%s has joined the room", player.Name)
	if player.IsSpectator {
		notice = fmt.Sprintf("%s has joined as a spectator", player.Name)
	}
	h.SystemChat(room, notice)
	return nil
}

// SetGridSize overwrites the stored grid size. It never resizes an
// in-progress board; the new size takes effect on the next start.
func (h *Hub) SetGridSize(player *internal.Player, size internal.GridSize) error {
	room := player.Room
	if room == nil {
		return nil
	}
	if size.Rows < 1 || size.Cols < 1 {
		return fmt.Errorf("%w: grid must be at least 1x1", ErrInvalidMove)
	}

	room.Mu.Lock()
	room.GridSize = size
	room.Mu.Unlock()

	log.Printf("[SetGridSize] Room %s: grid size set to %dx%d by %s", room.Id, size.Rows, size.Cols, player.Name)

	SafeBroadcastToRoom(room, internal.Message[internal.GridSize]{
		Type: "gridSizeUpdate",
		Data: size,
	})
	return nil
}

// StartGame allocates a fresh board and begins turns at index 0. Player
// flags are left alone; PlayAgain is the full restart.
func (h *Hub) StartGame(player *internal.Player) error {
	room := player.Room
	if room == nil {
		return nil
	}

	room.Mu.Lock()
	if room.GameStarted {
		room.Mu.Unlock()
		return ErrGameInProgress
	}

	room.Board = internal.NewEmptyBoard(room.GridSize)
	room.CurrentTurnIndex = 0
	room.GameStarted = true
	room.LastMove = nil

	gridSize := room.GridSize
	state := buildGameStateLocked(room, nil)
	room.Mu.Unlock()

	log.Printf("[StartGame] Room %s: game started on %dx%d board, %d players",
		room.Id, gridSize.Rows, gridSize.Cols, len(state.Players))

	SafeBroadcastToRoom(room, internal.Message[internal.GameStateData]{
		Type: "updateGameState",
		Data: state,
	})
	h.ArmTurnTimer(room)
	return nil
}

// PlayAgain is the admin-gated full reset: every player becomes an eligible
// participant again and a fresh game starts immediately.
func (h *Hub) PlayAgain(player *internal.Player) error {
	room := player.Room
	if room == nil {
		return nil
	}

	room.Mu.Lock()
	if !player.IsAdmin {
		room.Mu.Unlock()
		log.Printf("[PlayAgain] Room %s: non-admin %s (%s) attempted restart", room.Id, player.Id, player.Name)
		return ErrUnauthorized
	}

	for _, p := range room.Players {
		p.IsActive = true
		p.HasPlayed = false
		p.IsSpectator = false
	}
	room.Board = internal.NewEmptyBoard(room.GridSize)
	room.CurrentTurnIndex = 0
	room.GameStarted = true
	room.LastMove = nil
	stale := detachTimerLocked(room)

	state := buildGameStateLocked(room, nil)
	room.Mu.Unlock()

	if stale != nil && stale.Cancel != nil {
		stale.Cancel()
	}

	log.Printf("[PlayAgain] Room %s: full reset by admin %s", room.Id, player.Name)

	SafeBroadcastToRoom(room, internal.Message[internal.GameStateData]{
		Type: "updateGameState",
		Data: state,
	})
	h.SystemChat(room, fmt.Sprintf("%s started a new game", player.Name))
	h.ArmTurnTimer(room)
	return nil
}

// ShufflePlayers randomizes the turn order. Admin-gated, waiting rooms only.
func (h *Hub) ShufflePlayers(player *internal.Player) error {
	room := player.Room
	if room == nil {
		return nil
	}

	room.Mu.Lock()
	if !player.IsAdmin {
		room.Mu.Unlock()
		log.Printf("[ShufflePlayers] Room %s: non-admin %s (%s) attempted shuffle", room.Id, player.Id, player.Name)
		return ErrUnauthorized
	}
	if room.GameStarted {
		room.Mu.Unlock()
		return ErrGameInProgress
	}

	utils.Shuffle(room.Players)
	players := room.PublicPlayers()
	room.Mu.Unlock()

	log.Printf("[ShufflePlayers] Room %s: turn order shuffled by admin %s", room.Id, player.Name)

	SafeBroadcastToRoom(room, internal.Message[internal.PlayerListUpdateData]{
		Type: "playerListUpdate",
		Data: internal.PlayerListUpdateData{Players: players},
	})
	h.SystemChat(room, "Player order has been shuffled")
	return nil
}

// Disconnect removes a player from their room. If they were the current
// mover in an active game the turn is force-skipped; an emptied room is
// deleted from the registry.
func (h *Hub) Disconnect(player *internal.Player) {
	room := player.Room
	if room == nil {
		log.Printf("[Disconnect] Player %s (%s) has no room reference, skipping", player.Id, player.Name)
		return
	}

	room.Mu.Lock()
	idx := -1
	for i, p := range room.Players {
		if p.Id == player.Id {
			idx = i
			break
		}
	}
	if idx == -1 {
		room.Mu.Unlock()
		return
	}

	wasCurrentMover := room.GameStarted && idx == room.CurrentTurnIndex
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)

	// Keep the turn pointer on the same player when someone earlier in the
	// order leaves; the skip path below handles the current mover leaving.
	if idx < room.CurrentTurnIndex {
		room.CurrentTurnIndex--
	}
	if wasCurrentMover && len(room.Players) > 0 {
		// Step back so the skip scan lands on the natural next player.
		room.CurrentTurnIndex = (idx - 1 + len(room.Players)) % len(room.Players)
	}
	if room.CurrentTurnIndex >= len(room.Players) {
		room.CurrentTurnIndex = 0
	}

	// The leaving mover's countdown dies with them, inside this critical
	// section, so its expiry cannot interleave with the forced skip below.
	var stale *internal.GameTimer
	if wasCurrentMover {
		stale = detachTimerLocked(room)
	}

	empty := len(room.Players) == 0
	players := room.PublicPlayers()
	room.Mu.Unlock()

	if stale != nil && stale.Cancel != nil {
		stale.Cancel()
	}

	log.Printf("[Disconnect] Removed player %s (%s) from room %s. Players remaining: %d",
		player.Id, player.Name, room.Id, len(players))

	if empty {
		h.Registry.Remove(room.Id)
		return
	}

	SafeBroadcastToRoom(room, internal.Message[internal.PlayerListUpdateData]{
		Type: "playerListUpdate",
		Data: internal.PlayerListUpdateData{Players: players},
	})
	h.SystemChat(room, fmt.Sprintf("%s has left the game", player.Name))

	if wasCurrentMover {
		h.SkipCurrentTurn(room, "")
	}
}

// =============================================================================
// GAME SESSION - MOVES, TURNS, WIN DETECTION
// =============================================================================

// MakeMove validates and applies one move, resolves the cascade, sweeps the
// active flags, checks for a winner and advances the turn.
func (h *Hub) MakeMove(player *internal.Player, row, col int) error {
	room := player.Room
	if room == nil {
		return nil
	}

	room.Mu.Lock()
	if !room.GameStarted {
		room.Mu.Unlock()
		return ErrGameNotActive
	}
	current := room.CurrentPlayer()
	if current == nil || current.Id != player.Id {
		room.Mu.Unlock()
		return ErrNotYourTurn
	}
	if player.IsSpectator {
		room.Mu.Unlock()
		return ErrSpectatorForbidden
	}
	if err := board.ValidateTarget(room.Board, room.GridSize, row, col, player.Id); err != nil {
		room.Mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}

	if err := board.ApplyMove(room.Board, room.GridSize, row, col, player.Id); err != nil {
		// Cascade bound exceeded: internal invariant failure, never a crash.
		room.Mu.Unlock()
		log.Printf("[MakeMove] Room %s: %v", room.Id, err)
		return err
	}

	player.HasPlayed = true
	room.LastMove = &internal.Move{Row: row, Col: col}

	recomputeActiveLocked(room)
	winner := winnerLocked(room)

	// Retire the countdown before releasing the lock: an expiry that lost
	// the race to this move must never skip the next mover.
	stale := detachTimerLocked(room)

	var state internal.GameStateData
	if winner != nil {
		room.GameStarted = false
		state = buildGameStateLocked(room, winner)
	} else {
		advanceTurnLocked(room)
		state = buildGameStateLocked(room, nil)
	}
	room.Mu.Unlock()

	if stale != nil && stale.Cancel != nil {
		stale.Cancel()
	}
	if winner != nil {
		log.Printf("[MakeMove] Room %s: %s (%s) wins", room.Id, winner.Id, winner.Name)
		SafeBroadcastToRoom(room, internal.Message[internal.TimerUpdateData]{
			Type: "timerUpdate",
			Data: internal.TimerUpdateData{TimeRemaining: 0, IsActive: false},
		})
	} else {
		h.ArmTurnTimer(room)
	}

	SafeBroadcastToRoom(room, internal.Message[internal.GameStateData]{
		Type: "updateGameState",
		Data: state,
	})
	if winner != nil {
		h.SystemChat(room, fmt.Sprintf("%s has won the game!", winner.Name))
	}
	return nil
}

// SkipCurrentTurn advances past the current mover without a move: used when
// the current mover disconnects. skippedName, when non-empty, is announced
// to the room.
func (h *Hub) SkipCurrentTurn(room *internal.Room, skippedName string) {
	room.Mu.Lock()
	if !room.GameStarted || len(room.Players) == 0 {
		room.Mu.Unlock()
		return
	}
	stale := detachTimerLocked(room)
	advanceTurnLocked(room)
	state := buildGameStateLocked(room, nil)
	room.Mu.Unlock()

	if stale != nil && stale.Cancel != nil {
		stale.Cancel()
	}

	SafeBroadcastToRoom(room, internal.Message[internal.GameStateData]{
		Type: "updateGameState",
		Data: state,
	})
	if skippedName != "" {
		h.SystemChat(room, fmt.Sprintf("%s ran out of time and was skipped", skippedName))
	}
	h.ArmTurnTimer(room)
}

// recomputeActiveLocked derives every player's isActive flag: true while the
// player hasn't moved yet, or currently owns at least one cell.
func recomputeActiveLocked(room *internal.Room) {
	owned := board.OwnedCellCounts(room.Board)
	for _, p := range room.Players {
		p.IsActive = !p.HasPlayed || owned[p.Id] > 0
	}
}

// winnerLocked returns the winner if exactly one active non-spectator
// remains. No winner before every non-spectator has moved, nor with fewer
// than two non-spectator participants.
func winnerLocked(room *internal.Room) *internal.Player {
	if room.NonSpectatorCount() < internal.MinPlayersForWin {
		return nil
	}
	var last *internal.Player
	remaining := 0
	for _, p := range room.Players {
		if p.IsSpectator {
			continue
		}
		if !p.HasPlayed {
			return nil
		}
		if p.IsActive {
			remaining++
			last = p
		}
	}
	if remaining == 1 {
		return last
	}
	return nil
}

// advanceTurnLocked moves CurrentTurnIndex to the next active non-spectator,
// scanning forward at most one full cycle. If nobody qualifies the pointer
// stays on the scan's last candidate; the win check keeps that degenerate
// case out of live games.
func advanceTurnLocked(room *internal.Room) {
	n := len(room.Players)
	if n == 0 {
		return
	}
	idx := room.CurrentTurnIndex
	for i := 1; i <= n; i++ {
		idx = (room.CurrentTurnIndex + i) % n
		p := room.Players[idx]
		if p.IsActive && !p.IsSpectator {
			break
		}
	}
	room.CurrentTurnIndex = idx
}

// buildGameStateLocked snapshots the updateGameState payload. The board is
// deep-copied so broadcasts never race later mutations. Caller holds Mu.
func buildGameStateLocked(room *internal.Room, winner *internal.Player) internal.GameStateData {
	boardCopy := make([][]internal.Cell, len(room.Board))
	for r := range room.Board {
		boardCopy[r] = append([]internal.Cell(nil), room.Board[r]...)
	}

	state := internal.GameStateData{
		Board:    boardCopy,
		Players:  room.PublicPlayers(),
		LastMove: room.LastMove,
	}
	if winner != nil {
		state.Winner = winner.ToPublicPlayer()
		return state
	}
	if current := room.CurrentPlayer(); current != nil {
		state.CurrentTurn = current.Id
	}
	return state
}

package game

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/scythe504/chain-reaction-backend/internal"
)

// =============================================================================
// TURN SCHEDULER
// =============================================================================

// ArmTurnTimer cancels any pending countdown for the room and starts a new
// one for the configured turn duration. A goroutine ticks once per second
// with the remaining time and forces a skip when the duration elapses.
func (h *Hub) ArmTurnTimer(room *internal.Room) {
	if room == nil {
		return
	}
	CancelTurnTimer(room)

	room.Mu.Lock()
	if !room.GameStarted || room.Context == nil {
		room.Mu.Unlock()
		return
	}

	duration := time.Duration(room.TimerSettings.Duration) * time.Second
	ctx, cancel := context.WithTimeout(room.Context, duration)
	room.Timer = &internal.GameTimer{
		StartTime: time.Now(),
		Duration:  duration,
		IsActive:  true,
		Context:   ctx,
		Cancel:    cancel,
	}
	room.Mu.Unlock()

	log.Printf("[ArmTurnTimer] Room %s: countdown armed for %v", room.Id, duration)

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				BroadcastTimerUpdate(room)

			case <-ctx.Done():
				room.Mu.Lock()
				// A move may have re-armed a fresh countdown already; only
				// the timer that still owns this context acts on expiry.
				owns := room.Timer != nil && room.Timer.Context == ctx
				if owns {
					room.Timer.IsActive = false
				}
				room.Mu.Unlock()

				if owns && ctx.Err() == context.DeadlineExceeded {
					log.Printf("[ArmTurnTimer] Room %s: countdown expired after %v", room.Id, duration)
					go h.handleTurnTimeout(room, ctx)
				}
				return
			}
		}
	}()
}

// CancelTurnTimer stops a pending countdown without side effects. Cancelling
// an already-cancelled or nonexistent timer is a no-op.
func CancelTurnTimer(room *internal.Room) {
	if room == nil {
		return
	}

	room.Mu.Lock()
	if room.Timer == nil || !room.Timer.IsActive {
		room.Mu.Unlock()
		return
	}
	if room.Timer.Cancel != nil {
		room.Timer.Cancel()
	}
	room.Timer.IsActive = false
	room.Mu.Unlock()

	log.Printf("[CancelTurnTimer] Room %s: countdown cancelled", room.Id)

	SafeBroadcastToRoom(room, internal.Message[internal.TimerUpdateData]{
		Type: "timerUpdate",
		Data: internal.TimerUpdateData{TimeRemaining: 0, IsActive: false},
	})
}

// detachTimerLocked takes the room's countdown out of service so a pending
// expiry can no longer act on it: handleTurnTimeout requires the timer it was
// armed with to still be installed. Caller holds Mu and must Cancel the
// returned timer after unlocking.
func detachTimerLocked(room *internal.Room) *internal.GameTimer {
	stale := room.Timer
	room.Timer = nil
	if stale != nil {
		stale.IsActive = false
	}
	return stale
}

// BroadcastTimerUpdate sends the remaining whole seconds to the room.
func BroadcastTimerUpdate(room *internal.Room) {
	if room == nil {
		return
	}

	room.Mu.Lock()
	if room.Timer == nil || !room.Timer.IsActive {
		room.Mu.Unlock()
		return
	}
	remaining := room.Timer.Duration - time.Since(room.Timer.StartTime)
	if remaining < 0 {
		remaining = 0
	}
	data := internal.TimerUpdateData{
		TimeRemaining: int64(remaining.Round(time.Second).Seconds()),
		IsActive:      true,
	}
	room.Mu.Unlock()

	SafeBroadcastToRoom(room, internal.Message[internal.TimerUpdateData]{
		Type: "timerUpdate",
		Data: data,
	})
}

// handleTurnTimeout runs the expiry path: announce the lapsed countdown,
// skip the current mover and re-arm for the next one. Validation and the
// turn advance share one critical section: a move accepted in the expiry
// window retires the timer under Mu, so a stale expiry fails the identity
// check here and can never skip the mover that move installed.
func (h *Hub) handleTurnTimeout(room *internal.Room, ctx context.Context) {
	room.Mu.Lock()
	if room.Timer == nil || room.Timer.Context != ctx || !room.GameStarted {
		room.Mu.Unlock()
		return
	}
	stale := detachTimerLocked(room)
	skippedName := ""
	if current := room.CurrentPlayer(); current != nil {
		skippedName = current.Name
	}
	advanceTurnLocked(room)
	state := buildGameStateLocked(room, nil)
	room.Mu.Unlock()

	if stale != nil && stale.Cancel != nil {
		stale.Cancel()
	}

	SafeBroadcastToRoom(room, internal.Message[internal.TimerUpdateData]{
		Type: "timerUpdate",
		Data: internal.TimerUpdateData{TimeRemaining: 0, IsActive: false},
	})

	log.Printf("[handleTurnTimeout] Room %s: skipping %s", room.Id, skippedName)
	SafeBroadcastToRoom(room, internal.Message[internal.GameStateData]{
		Type: "updateGameState",
		Data: state,
	})
	if skippedName != "" {
		h.SystemChat(room, fmt.Sprintf("%s ran out of time and was skipped", skippedName))
	}
	h.ArmTurnTimer(room)
}

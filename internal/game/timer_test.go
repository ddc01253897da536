package game

import (
	"context"
	"testing"
	"time"

	"github.com/scythe504/chain-reaction-backend/internal"
	"github.com/scythe504/chain-reaction-backend/internal/utils"
)

func newTimedRoom(t *testing.T, h *Hub, seconds int) (*internal.Room, *internal.Player, *internal.Player) {
	t.Helper()
	a := &internal.Player{Id: "a", Name: "Alice", IsAdmin: true}
	opts := JoinOptions{TimerSettings: &internal.TimerSettings{Duration: seconds}}
	if err := h.Join("timed", a, opts); err != nil {
		t.Fatalf("Join: %v", err)
	}
	b := &internal.Player{Id: "b", Name: "Bob"}
	if err := h.Join("timed", b, JoinOptions{}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	room, ok := h.Registry.Get("timed")
	if !ok {
		t.Fatal("room should exist")
	}
	return room, a, b
}

func TestTurnTimer_ExpirySkipsCurrentMover(t *testing.T) {
	h := NewHub(
		NewRegistry(internal.GridSize{Rows: 3, Cols: 3}, internal.TimerSettings{Duration: 20}),
		&utils.SequenceSource{Prefix: "msg"},
	)
	room, a, _ := newTimedRoom(t, h, 1)

	if err := h.StartGame(a); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	defer CancelTurnTimer(room)

	// Alice makes no move; within the countdown plus slack the engine must
	// auto-skip to Bob and re-arm.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if currentTurnIndex(t, room) != 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	room.Mu.Lock()
	idx := room.CurrentTurnIndex
	rearmed := room.Timer != nil && room.Timer.IsActive
	started := room.GameStarted
	room.Mu.Unlock()

	if idx != 1 {
		t.Fatalf("CurrentTurnIndex = %d, want 1 after expiry skip", idx)
	}
	if !rearmed {
		t.Error("countdown should be re-armed for the next mover")
	}
	if !started {
		t.Error("an expiry skip must not end the game")
	}
}

func TestTurnTimer_RetiredCountdownCannotSkip(t *testing.T) {
	h := NewHub(
		NewRegistry(internal.GridSize{Rows: 3, Cols: 3}, internal.TimerSettings{Duration: 20}),
		&utils.SequenceSource{Prefix: "msg"},
	)
	room, a, _ := newTimedRoom(t, h, 30)

	if err := h.StartGame(a); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	defer CancelTurnTimer(room)

	// A move accepted just as the countdown elapses retires the timer and
	// advances the turn inside one critical section, but has not yet armed
	// the next countdown when the expiry goroutine gets the lock.
	room.Mu.Lock()
	expired := room.Timer.Context
	stale := detachTimerLocked(room)
	advanceTurnLocked(room)
	room.Mu.Unlock()
	if stale != nil && stale.Cancel != nil {
		stale.Cancel()
	}

	h.handleTurnTimeout(room, expired)

	if got := currentTurnIndex(t, room); got != 1 {
		t.Fatalf("CurrentTurnIndex = %d, want 1: a retired countdown must not skip again", got)
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Timer != nil && room.Timer.IsActive {
		t.Error("a retired countdown must not arm a replacement")
	}
}

func TestMakeMove_RetiresCountdown(t *testing.T) {
	h := NewHub(
		NewRegistry(internal.GridSize{Rows: 3, Cols: 3}, internal.TimerSettings{Duration: 20}),
		&utils.SequenceSource{Prefix: "msg"},
	)
	room, a, _ := newTimedRoom(t, h, 30)

	if err := h.StartGame(a); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	defer CancelTurnTimer(room)

	room.Mu.Lock()
	first := room.Timer.Context
	room.Mu.Unlock()

	if err := h.MakeMove(a, 0, 0); err != nil {
		t.Fatalf("MakeMove: %v", err)
	}

	if err := first.Err(); err != context.Canceled {
		t.Errorf("old countdown context err = %v, want context.Canceled", err)
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Timer == nil || room.Timer.Context == first || !room.Timer.IsActive {
		t.Error("an accepted move should arm a fresh countdown for the next mover")
	}
}

func TestCancelTurnTimer_Idempotent(t *testing.T) {
	h := NewHub(
		NewRegistry(internal.GridSize{Rows: 3, Cols: 3}, internal.TimerSettings{Duration: 20}),
		&utils.SequenceSource{Prefix: "msg"},
	)
	room, a, _ := newTimedRoom(t, h, 30)

	// No timer yet: both calls are no-ops.
	CancelTurnTimer(room)
	CancelTurnTimer(nil)

	if err := h.StartGame(a); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	CancelTurnTimer(room)
	CancelTurnTimer(room)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Timer != nil && room.Timer.IsActive {
		t.Error("timer should be inactive after cancel")
	}
}

func TestArmTurnTimer_ReplacesPendingCountdown(t *testing.T) {
	h := NewHub(
		NewRegistry(internal.GridSize{Rows: 3, Cols: 3}, internal.TimerSettings{Duration: 20}),
		&utils.SequenceSource{Prefix: "msg"},
	)
	room, a, _ := newTimedRoom(t, h, 30)

	if err := h.StartGame(a); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	defer CancelTurnTimer(room)

	room.Mu.Lock()
	first := room.Timer.Context
	room.Mu.Unlock()

	h.ArmTurnTimer(room)

	if err := first.Err(); err != context.Canceled {
		t.Errorf("first countdown context err = %v, want context.Canceled", err)
	}
	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Timer == nil || room.Timer.Context == first {
		t.Error("re-arming should install a fresh countdown")
	}
	if !room.Timer.IsActive {
		t.Error("fresh countdown should be active")
	}
}

func TestArmTurnTimer_NoopWhenGameNotActive(t *testing.T) {
	h := NewHub(
		NewRegistry(internal.GridSize{Rows: 3, Cols: 3}, internal.TimerSettings{Duration: 20}),
		&utils.SequenceSource{Prefix: "msg"},
	)
	room, _, _ := newTimedRoom(t, h, 30)

	h.ArmTurnTimer(room)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	if room.Timer != nil && room.Timer.IsActive {
		t.Error("no countdown should be armed while the game is waiting")
	}
}

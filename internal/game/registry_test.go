package game

import (
	"testing"

	"github.com/scythe504/chain-reaction-backend/internal"
)

func TestRegistry_GetOrCreateIdempotent(t *testing.T) {
	reg := NewRegistry(internal.GridSize{Rows: 4, Cols: 4}, internal.TimerSettings{Duration: 10})

	room1 := reg.GetOrCreate("r1")
	room2 := reg.GetOrCreate("r1")
	if room1 != room2 {
		t.Error("GetOrCreate should return the same room for the same id")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if room1.GridSize.Rows != 4 || room1.GridSize.Cols != 4 {
		t.Errorf("GridSize = %+v, want registry default 4x4", room1.GridSize)
	}
	if room1.TimerSettings.Duration != 10 {
		t.Errorf("TimerSettings.Duration = %d, want 10", room1.TimerSettings.Duration)
	}
}

func TestRegistry_DefaultsFallBack(t *testing.T) {
	reg := NewRegistry(internal.GridSize{}, internal.TimerSettings{})
	room := reg.GetOrCreate("r1")
	if room.GridSize.Rows != internal.DefaultGridRows || room.GridSize.Cols != internal.DefaultGridCols {
		t.Errorf("GridSize = %+v, want built-in %dx%d",
			room.GridSize, internal.DefaultGridRows, internal.DefaultGridCols)
	}
	if room.TimerSettings.Duration != internal.DefaultTurnDuration {
		t.Errorf("Duration = %d, want %d", room.TimerSettings.Duration, internal.DefaultTurnDuration)
	}
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry(internal.GridSize{}, internal.TimerSettings{})
	reg.GetOrCreate("r1")
	reg.Remove("r1")
	if _, ok := reg.Get("r1"); ok {
		t.Error("room should be gone after Remove")
	}
	// Removing a missing room is a no-op, not a failure.
	reg.Remove("r1")
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestRegistry_JoinableRoom(t *testing.T) {
	reg := NewRegistry(internal.GridSize{}, internal.TimerSettings{})
	if got := reg.JoinableRoom(); got != "" {
		t.Errorf("JoinableRoom() = %q, want empty with no rooms", got)
	}

	room := reg.GetOrCreate("r1")
	if got := reg.JoinableRoom(); got != "r1" {
		t.Errorf("JoinableRoom() = %q, want r1", got)
	}

	room.Mu.Lock()
	room.GameStarted = true
	room.Mu.Unlock()
	if got := reg.JoinableRoom(); got != "" {
		t.Errorf("JoinableRoom() = %q, want empty once the game started", got)
	}
}

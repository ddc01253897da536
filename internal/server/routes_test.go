package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scythe504/chain-reaction-backend/internal"
	"github.com/scythe504/chain-reaction-backend/internal/game"
	"github.com/scythe504/chain-reaction-backend/internal/utils"
)

func newTestServer() *Server {
	registry := game.NewRegistry(
		internal.GridSize{Rows: 9, Cols: 6},
		internal.TimerSettings{Duration: 20},
	)
	return &Server{
		config: Config{Port: 0},
		hub:    game.NewHub(registry, &utils.SequenceSource{Prefix: "msg"}),
	}
}

func TestHelloWorldHandler(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.RegisterRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["message"] != "Hello World" {
		t.Errorf("message = %q, want Hello World", body["message"])
	}
}

func TestGetRoomToJoin_NoRooms(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/rooms-available", nil)
	rec := httptest.NewRecorder()

	s.RegisterRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetRoomToJoin_WaitingRoom(t *testing.T) {
	s := newTestServer()
	s.hub.Registry.GetOrCreate("open-room")

	req := httptest.NewRequest(http.MethodGet, "/rooms-available", nil)
	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["roomId"] != "open-room" {
		t.Errorf("roomId = %q, want open-room", body["roomId"])
	}
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()

	s.RegisterRoutes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

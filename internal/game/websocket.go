package game

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/scythe504/chain-reaction-backend/internal"
	"github.com/scythe504/chain-reaction-backend/internal/utils"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub routes inbound actions to the right room and owns the process-wide
// registry and id source.
type Hub struct {
	Registry *Registry
	IDs      utils.IDSource
}

func NewHub(registry *Registry, ids utils.IDSource) *Hub {
	return &Hub{Registry: registry, IDs: ids}
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// HandleWebSocket upgrades the connection and joins the player to the room
// named in the URL. Join options ride the query string: name, admin, and for
// the creating player rows, cols and timer.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade failed: ", err)
		return
	}

	roomId := mux.Vars(r)["roomId"]
	if roomId == "" {
		log.Println("No room id provided")
		conn.Close()
		return
	}

	query := r.URL.Query()
	name := query.Get("name")
	if name == "" {
		name = "Anonymous"
	}

	player := &internal.Player{
		Id:      h.IDs.NewID(),
		Conn:    conn,
		Name:    name,
		IsAdmin: query.Get("admin") == "true",
	}

	opts := JoinOptions{}
	rows, rowsErr := strconv.Atoi(query.Get("rows"))
	cols, colsErr := strconv.Atoi(query.Get("cols"))
	if rowsErr == nil && colsErr == nil {
		opts.GridSize = &internal.GridSize{Rows: rows, Cols: cols}
	}
	if seconds, err := strconv.Atoi(query.Get("timer")); err == nil {
		opts.TimerSettings = &internal.TimerSettings{Duration: seconds}
	}

	if err := h.Join(roomId, player, opts); err != nil {
		log.Printf("Error adding player %s to room %s: %v", player.Name, roomId, err)
		h.sendError(player, err)
		conn.Close()
		h.Disconnect(player)
		return
	}

	go h.handleMessages(player)
}

// handleMessages is the per-connection read loop. Every action dispatches
// into the player's room; expected failures go back to the caller only.
func (h *Hub) handleMessages(player *internal.Player) {
	defer func() {
		player.Conn.Close()
		h.Disconnect(player)
	}()
	log.Printf("Started message handler for player: %s in room: %s", player.Name, player.Room.Id)

	for {
		_, rawMessage, err := player.Conn.ReadMessage()
		if err != nil {
			log.Printf("Read error for player %s: %v", player.Name, err)
			break
		}

		var baseMsg internal.Message[json.RawMessage]
		if err := json.Unmarshal(rawMessage, &baseMsg); err != nil {
			log.Printf("Failed to parse base message: %v", err)
			continue
		}
		log.Printf("Received message type: %s from player: %s", baseMsg.Type, player.Name)

		switch baseMsg.Type {
		case "makeMove":
			var move internal.MoveRequest
			if err := json.Unmarshal(baseMsg.Data, &move); err != nil {
				log.Println("Error parsing data, wrong json", err)
				continue
			}
			if err := h.MakeMove(player, move.Row, move.Col); err != nil {
				h.sendError(player, err)
			}

		case "startGame":
			if err := h.StartGame(player); err != nil {
				h.sendError(player, err)
			}

		case "playAgain":
			if err := h.PlayAgain(player); err != nil {
				h.sendError(player, err)
			}

		case "shufflePlayers":
			if err := h.ShufflePlayers(player); err != nil {
				h.sendError(player, err)
			}

		case "setGridSize":
			var size internal.GridSize
			if err := json.Unmarshal(baseMsg.Data, &size); err != nil {
				log.Println("Error parsing data, wrong json", err)
				continue
			}
			if err := h.SetGridSize(player, size); err != nil {
				h.sendError(player, err)
			}

		case "chatMessage":
			var chat internal.ChatRequest
			if err := json.Unmarshal(baseMsg.Data, &chat); err != nil {
				log.Println("Error parsing data, wrong json", err)
				continue
			}
			h.Chat(player, chat.Text)

		default:
			log.Printf("Unknown message type: %s", baseMsg.Type)
		}
	}
}

// sendError delivers an errorMessage event to the offending caller only.
func (h *Hub) sendError(player *internal.Player, err error) {
	writeErr := player.SafeWriteJSON(internal.Message[internal.ErrorMessageData]{
		Type: "errorMessage",
		Data: internal.ErrorMessageData{
			Code:    ErrorCode(err),
			Message: err.Error(),
		},
	})
	if writeErr != nil {
		log.Printf("[sendError] Failed to send error to player %s (%s): %v", player.Id, player.Name, writeErr)
	}
}

// =============================================================================
// CHAT & BROADCASTING
// =============================================================================

// Chat relays a player message to the whole room.
func (h *Hub) Chat(player *internal.Player, text string) {
	room := player.Room
	if room == nil || text == "" {
		return
	}
	SafeBroadcastToRoom(room, internal.Message[internal.ChatMessageData]{
		Type: "chatMessage",
		Data: internal.ChatMessageData{
			Id:        h.IDs.NewID(),
			Sender:    player.Name,
			Text:      text,
			Timestamp: time.Now().UnixMilli(),
		},
	})
}

// SystemChat broadcasts a system notice to the room.
func (h *Hub) SystemChat(room *internal.Room, text string) {
	SafeBroadcastToRoom(room, internal.Message[internal.ChatMessageData]{
		Type: "chatMessage",
		Data: internal.ChatMessageData{
			Id:        h.IDs.NewID(),
			Sender:    "System",
			Text:      text,
			System:    true,
			Timestamp: time.Now().UnixMilli(),
		},
	})
}

// SafeBroadcastToRoom snapshots the player list under the room lock, then
// writes to each connection outside it.
func SafeBroadcastToRoom[T any](room *internal.Room, msg internal.Message[T]) {
	room.Mu.Lock()
	players := make([]*internal.Player, len(room.Players))
	copy(players, room.Players)
	room.Mu.Unlock()

	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[Broadcast][Room:%s] Failed for player %s (%s): %v",
				room.Id, player.Id, player.Name, err)
		}
	}
}

// SafeBroadcastToRoomExcept is SafeBroadcastToRoom minus one recipient.
func SafeBroadcastToRoomExcept[T any](room *internal.Room, msg internal.Message[T], exclude *internal.Player) {
	room.Mu.Lock()
	players := make([]*internal.Player, len(room.Players))
	copy(players, room.Players)
	room.Mu.Unlock()

	for _, player := range players {
		if exclude != nil && player.Id == exclude.Id {
			continue
		}
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[BroadcastExcept][Room:%s] Failed for player %s (%s): %v",
				room.Id, player.Id, player.Name, err)
		}
	}
}

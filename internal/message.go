package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// GameStateData is the updateGameState payload. Winner and LastMove are
// pointers so the wire carries explicit nulls; CurrentTurn is absent once a
// winner is declared.
type GameStateData struct {
	Board       [][]Cell  `json:"board"`
	CurrentTurn string    `json:"currentTurn,omitempty"`
	Players     []*Player `json:"players"`
	Winner      *Player   `json:"winner"`
	LastMove    *Move     `json:"lastMove"`
}

type TimerUpdateData struct {
	TimeRemaining int64 `json:"timeRemaining"` // whole seconds
	IsActive      bool  `json:"isActive"`
}

type PlayerListUpdateData struct {
	Players []*Player `json:"players"`
}

type ChatMessageData struct {
	Id        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	System    bool   `json:"system"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

type ErrorMessageData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MoveRequest is the inbound makeMove payload.
type MoveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ChatRequest is the inbound chatMessage payload.
type ChatRequest struct {
	Text string `json:"text"`
}

package game

import "errors"

// Expected, recoverable, room-scoped failures. Delivered only to the
// originating caller as an errorMessage event; never crash the process.
var (
	ErrGameNotActive      = errors.New("game is not active")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrSpectatorForbidden = errors.New("spectators cannot make moves")
	ErrInvalidMove        = errors.New("cell is owned by another player")
	ErrUnauthorized       = errors.New("only the admin can do that")
	ErrRoomFull           = errors.New("room is full, please join another room")
	ErrGameInProgress     = errors.New("cannot do that while a game is in progress")
)

// ErrorCode maps a session error to its wire code for errorMessage events.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrGameNotActive):
		return "gameNotActive"
	case errors.Is(err, ErrNotYourTurn):
		return "notYourTurn"
	case errors.Is(err, ErrSpectatorForbidden):
		return "spectatorForbidden"
	case errors.Is(err, ErrInvalidMove):
		return "invalidMove"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRoomFull):
		return "roomFull"
	case errors.Is(err, ErrGameInProgress):
		return "gameInProgress"
	default:
		return "internal"
	}
}

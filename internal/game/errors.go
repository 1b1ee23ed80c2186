package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room does not exist")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrRoomFull            = errors.New("room is full")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrInvalidPhase        = errors.New("invalid phase for action")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrRoleNotPermitted    = errors.New("your role cannot do that")
	ErrInvalidName         = errors.New("name must not be empty")

	ErrNotInRoom      = errors.New("not a member of this room")
	ErrAlreadyInRoom  = errors.New("already a member of this room")
	ErrPlayerBanished = errors.New("banished players cannot act")
	ErrAbilityUsed    = errors.New("ability already used this game")
	ErrEmptyMessage   = errors.New("message must not be empty")
)

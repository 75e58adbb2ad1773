package storage

import "errors"

var (
	ErrTeamNotFound            = errors.New("team not found")
	ErrPlayerNotFound          = errors.New("player not found")
	ErrInsufficientFunds       = errors.New("insufficient purse")
	ErrRetainedPlayerImmutable = errors.New("cannot reset retained player")
	ErrAlreadyRetained         = errors.New("player is already retained")
	ErrNotRetainedByTeam       = errors.New("player is not retained by this team")
	ErrMaxRetentions           = errors.New("maximum retentions reached")
)

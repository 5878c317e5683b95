package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound        = errors.New("player record not found")
	ErrDuplicatePlayer = errors.New("player already exists at this position in the game")
	ErrUnknownStore    = errors.New("unknown store kind")
)

package depthchart

import "errors"

// Sentinel kinds for depth chart errors.
var (
	ErrPlayerNotFound = errors.New("player not found with the specified position in the game")
)

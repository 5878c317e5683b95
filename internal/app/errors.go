package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted = errors.New("depth chart service not started")
)

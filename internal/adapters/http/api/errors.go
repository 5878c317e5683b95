package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Response messages shared with clients.
const (
	msgPlayerNotFound = "Player not found with the specified position in the game"
	msgRequestFailed  = "Api request failed"
	msgValidation     = "One or more validation errors occurred"
	msgRateLimited    = "Too many requests, slow down"
)

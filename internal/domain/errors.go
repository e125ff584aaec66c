package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidSide   = errors.New("invalid order side")
	ErrSigningFailed = errors.New("signing failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")
	ErrWSDisconnect  = errors.New("websocket disconnected")
)

package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("symbol not ranked")
	ErrInvalidLimit = errors.New("invalid ranking limit")
	ErrRunNotFound  = errors.New("run not found")
)

package service

import "errors"

var (
	// ErrNotStarted is returned when a run is submitted before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrInvalidRequest is returned for run submissions that cannot be
	// turned into scan jobs.
	ErrInvalidRequest = errors.New("invalid run request")
	// ErrBacklogged is returned when the scan queue rejected every job of a
	// submission. Callers should surface it as backpressure.
	ErrBacklogged = errors.New("scan queue full")
)

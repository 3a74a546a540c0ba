package testscans

import "time"

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusAccepted        = 202
	StatusTooManyRequests = 429
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	RunPollInterval      = 250 * time.Millisecond
	RunPollDeadline      = 5 * time.Minute
	PercentageMultiplier = 100
)

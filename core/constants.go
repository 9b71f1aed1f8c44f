package core

import (
	"errors"
	"time"
)

// Error definitions
var (
	// ErrNilPool is returned by NewEngine without a worker pool
	ErrNilPool = errors.New("core: nil worker pool")

	// ErrNilRouter is returned by NewEngine without a router
	ErrNilRouter = errors.New("core: nil router")
)

// Accept backoff bounds for repeated accept failures
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

package service

import "errors"

var (
	// ErrAlreadyRunning is returned when Start is called twice
	ErrAlreadyRunning = errors.New("service: simulation already started")

	// ErrNotStarted is returned when stopping a simulation that never started
	ErrNotStarted = errors.New("service: simulation not started")
)

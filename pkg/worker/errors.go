package worker

import "errors"

var (
	ErrTimeout       = errors.New("worker: request timed out")
	ErrWorkerExited  = errors.New("worker: process exited unexpectedly")
	ErrAlreadyClosed = errors.New("worker: manager is closed")
)

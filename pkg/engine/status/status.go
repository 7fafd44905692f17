// Package status declares error constants returned by the execution engine.
package status

import "github.com/oneconcern/stele/pkg/errors"

var (
	// ErrNotFound indicates that no execution exists with this id
	ErrNotFound = errors.New("execution not found")

	// ErrNotRunning indicates that the process of an execution is gone: restarting is not supported
	ErrNotRunning = errors.New("process is not running and restart is not supported")

	// ErrAlreadyRunning indicates that an execution with this id is still alive
	ErrAlreadyRunning = errors.New("execution is already running")

	// ErrInvalidCommand indicates that no command was provided
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidExecID indicates an execution id which cannot be used as a directory name
	ErrInvalidExecID = errors.New("invalid execution id")

	// ErrStart indicates that the process could not be started
	ErrStart = errors.New("failed to start process")

	// ErrMeta indicates a failure when reading or writing the execution descriptor
	ErrMeta = errors.New("execution meta error")

	// ErrSignal indicates a failure when signaling a process
	ErrSignal = errors.New("failed to signal process")

	// ErrNotManaged indicates that the process was not started by this engine, so it cannot be waited for
	ErrNotManaged = errors.New("execution not managed by this engine")
)

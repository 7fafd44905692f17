// Package status declares error constants returned by the task runtime.
package status

import "github.com/oneconcern/stele/pkg/errors"

var (
	// ErrNoExecDir indicates that the task doesn't know where its execution lives
	ErrNoExecDir = errors.New("no execution directory: STELE_EXEC_DIR is not set")

	// ErrInvalidInterval indicates a checkpoint interval which is not a positive number of seconds
	ErrInvalidInterval = errors.New("invalid checkpoint interval")

	// ErrCheckpoint indicates that the state of the task could not be checkpointed
	ErrCheckpoint = errors.New("task checkpoint failed")

	// ErrLoad indicates that the last checkpoint of the task could not be loaded
	ErrLoad = errors.New("cannot load task checkpoint")
)

// Package status declares error constants returned by checkpoint operations.
package status

import "github.com/oneconcern/stele/pkg/errors"

var (
	// ErrUnserializable indicates that some values could not be saved in a checkpoint
	ErrUnserializable = errors.New("unserializable objects detected")

	// ErrChecksumMismatch indicates that the content of a checkpoint doesn't match its recorded checksum
	ErrChecksumMismatch = errors.New("checkpoint checksum mismatch")

	// ErrCorruptCheckpoint indicates that a checkpoint is missing some file or holds undecodable content
	ErrCorruptCheckpoint = errors.New("corrupt checkpoint")

	// ErrAtomicWrite indicates that a checkpoint could not be written then moved into place
	ErrAtomicWrite = errors.New("atomic checkpoint write failed")

	// ErrNotFound indicates that no checkpoint exists with this id
	ErrNotFound = errors.New("checkpoint not found")

	// ErrEncode indicates that a value could not be encoded
	ErrEncode = errors.New("cannot encode checkpoint value")
)

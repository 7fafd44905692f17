// Package status declares error constants returned by
// the audit package.
package status

import (
	"github.com/oneconcern/stele/pkg/errors"
)

var (
	// ErrKSUID indicates that we failed to generate a new ksuid.
	// An error here is telling of an issue with the random generator.
	ErrKSUID = errors.New("failed to generate ksuid")

	// ErrAppend indicates a failure when writing an audit record
	ErrAppend = errors.New("failed to append audit record")

	// ErrRead indicates a failure when reading the audit log
	ErrRead = errors.New("failed to read audit log")

	// ErrMaxCount indicates a wrong max count parameter (should be strictly positive)
	ErrMaxCount = errors.New("max count needs to be greater than 0")

	// ErrUnknownToken indicates that a pagination token is not in the log
	ErrUnknownToken = errors.New("unknown audit token")
)

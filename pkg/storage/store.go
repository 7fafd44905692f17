// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
)

// Put semantics
const (
	// OverWrite replaces any existing object
	OverWrite = false
	// NoOverWrite fails when an object already exists
	NoOverWrite = true
)

// Store implementations know how to write entries to a K/V model.
//
// Typically this is something file system-like. Examples are S3, local FS, NFS, ...
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, bool) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	KeysPrefix(ctx context.Context, token, prefix, delimiter string, count int) ([]string, string, error)
	Clear(context.Context) error
}

// PipeIO copies a reader into a writer, with a buffer sized for small objects
func PipeIO(writer io.Writer, reader io.Reader) (n int64, err error) {
	const bufferSize = 32 * 1024
	return io.CopyBuffer(writer, reader, make([]byte, bufferSize))
}

package checkpoint

import (
	"fmt"
	"strings"

	"github.com/oneconcern/stele/pkg/checkpoint/status"
)

// UnserializableDetail tells why some variable could not be saved
type UnserializableDetail struct {
	Name   string
	Type   string
	Reason string
}

// UnserializableError lists all the variables which could not be saved
type UnserializableError struct {
	Details []UnserializableDetail
}

func (e *UnserializableError) Error() string {
	var b strings.Builder
	b.WriteString(status.ErrUnserializable.Error())
	b.WriteString(":")
	for _, d := range e.Details {
		fmt.Fprintf(&b, "\n  - %s: %s (%s)", d.Name, d.Type, d.Reason)
	}
	return b.String()
}

// Unwrap yields the status.ErrUnserializable sentinel
func (e *UnserializableError) Unwrap() error {
	return status.ErrUnserializable
}

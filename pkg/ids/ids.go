// Package ids generates the identifiers of executions, runs and branches.
//
// Identifiers are formatted as {kind}-YYYYMMDDThhmmss-{8 hex}, with a UTC timestamp
// and 4 bytes of cryptographically strong randomness.
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// Identifier kinds
const (
	KindExecution = "execution"
	KindRun       = "run"
	KindBranch    = "branch"

	timestampLayout = "20060102T150405"
)

var idRex = regexp.MustCompile(`^([a-z]+)-(\d{8}T\d{6})-([0-9a-f]{8})$`)

// NewExecutionID creates a unique execution identifier
func NewExecutionID() string {
	return newID(KindExecution)
}

// NewRunID creates a unique run identifier
func NewRunID() string {
	return newID(KindRun)
}

// NewBranchID creates a unique branch identifier
func NewBranchID() string {
	return newID(KindBranch)
}

func newID(kind string) string {
	return fmt.Sprintf("%s-%s-%s", kind, time.Now().UTC().Format(timestampLayout), randomHex())
}

func randomHex() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(fmt.Errorf("reading random bytes: %w", err))
	}
	return hex.EncodeToString(b[:])
}

// Parse an identifier into its kind and creation time
func Parse(id string) (kind string, created time.Time, err error) {
	parts := idRex.FindStringSubmatch(id)
	if parts == nil {
		return "", time.Time{}, fmt.Errorf("invalid identifier %q", id)
	}
	created, err = time.ParseInLocation(timestampLayout, parts[2], time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid timestamp in identifier %q: %w", id, err)
	}
	return parts[1], created, nil
}

// Valid tells if the identifier is well-formed
func Valid(id string) bool {
	_, _, err := Parse(id)
	return err == nil
}

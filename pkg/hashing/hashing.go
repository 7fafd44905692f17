// Package hashing computes deterministic content hashes.
package hashing

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// canonical JSON: sorted keys, compact separators, no HTML escaping
var canonicalJSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	UseNumber:              true,
	ValidateJsonRawMessage: true,
}.Froze()

// SHA256Hex returns the SHA-256 hex digest of data
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Canonical serializes v as canonical JSON.
//
// Struct fields are sorted too: the value is first projected on a generic JSON tree.
// NaN and infinite floats are rejected.
func Canonical(v interface{}) ([]byte, error) {
	raw, err := canonicalJSON.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	var tree interface{}
	if err := canonicalJSON.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	b, err := canonicalJSON.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return bytes.TrimSpace(b), nil
}

// ContentHash deterministically hashes the canonical JSON representation of v
func ContentHash(v interface{}) (string, error) {
	b, err := Canonical(v)
	if err != nil {
		return "", err
	}
	return SHA256Hex(b), nil
}

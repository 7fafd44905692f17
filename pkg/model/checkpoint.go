package model

import (
	"fmt"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// CurrentSchema is the version of the checkpoint layout
const CurrentSchema = "v1"

// Caller locates where a checkpoint was taken
type Caller struct {
	File     string `json:"file" yaml:"file"`
	Function string `json:"function" yaml:"function"`
	Line     int    `json:"line" yaml:"line"`
	_        struct{}
}

func (c Caller) String() string {
	return fmt.Sprintf("%s:%d (%s)", c.File, c.Line, c.Function)
}

// Environment describes the process which took a checkpoint
type Environment struct {
	InterpreterVersion string `json:"interpreter_version" yaml:"interpreter_version"` // Go runtime version
	ProcessID          int    `json:"process_id" yaml:"process_id"`
	OS                 string `json:"os,omitempty" yaml:"os,omitempty"`
	Arch               string `json:"arch,omitempty" yaml:"arch,omitempty"`
	Hostname           string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	_                  struct{}
}

// Metadata is the record stored as metadata.json in every checkpoint directory
type Metadata struct {
	Caller         Caller      `json:"caller" yaml:"caller"`
	Environment    Environment `json:"environment" yaml:"environment"`
	GitCommit      string      `json:"git_commit" yaml:"git_commit"`
	ExecutionID    string      `json:"execution_id" yaml:"execution_id"`
	CheckpointName string      `json:"checkpoint_name,omitempty" yaml:"checkpoint_name,omitempty"`
	Timestamp      time.Time   `json:"timestamp" yaml:"timestamp"`
	_              struct{}
}

// Manifest lists the variables saved in a checkpoint
type Manifest struct {
	Schema    string   `json:"schema" yaml:"schema"`
	Variables []string `json:"variables" yaml:"variables"`
	_         struct{}
}

// NewManifest builds a manifest for a set of variable names, in sorted order
func NewManifest(names []string) Manifest {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)
	return Manifest{
		Schema:    CurrentSchema,
		Variables: sorted,
	}
}

// ObjectRef locates an encoded value inside objects.bin
type ObjectRef struct {
	Offset int64  `json:"offset" yaml:"offset"`
	Length int64  `json:"length" yaml:"length"`
	Digest string `json:"digest" yaml:"digest"` // blake2b-256, hex encoded
	_      struct{}
}

// ObjectIndex maps variable names to their location in objects.bin
type ObjectIndex map[string]ObjectRef

// Summary describes a stored checkpoint
type Summary struct {
	ID       string   `json:"id" yaml:"id"`
	Path     string   `json:"path" yaml:"path"`
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	_        struct{}
}

// Summaries is a collection of checkpoint summaries, ordered from most recent to oldest
type Summaries []Summary

func (s Summaries) Len() int      { return len(s) }
func (s Summaries) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s Summaries) Less(i, j int) bool {
	ti, tj := s[i].Metadata.Timestamp, s[j].Metadata.Timestamp
	if ti.Equal(tj) {
		return s[i].ID < s[j].ID
	}
	return ti.After(tj)
}

// UnmarshalMetadata decodes a metadata record
func UnmarshalMetadata(b []byte) (*Metadata, error) {
	if b == nil {
		return nil, fmt.Errorf("received nil metadata to unmarshal")
	}
	var m Metadata
	err := jsoniter.Unmarshal(b, &m)
	return &m, err
}

// UnmarshalManifest decodes a manifest
func UnmarshalManifest(b []byte) (*Manifest, error) {
	if b == nil {
		return nil, fmt.Errorf("received nil manifest to unmarshal")
	}
	var m Manifest
	if err := jsoniter.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if m.Schema != CurrentSchema {
		return nil, fmt.Errorf("unsupported checkpoint schema %q", m.Schema)
	}
	return &m, nil
}

// UnmarshalObjectIndex decodes an object index
func UnmarshalObjectIndex(b []byte) (ObjectIndex, error) {
	if b == nil {
		return nil, fmt.Errorf("received nil object index to unmarshal")
	}
	var idx ObjectIndex
	err := jsoniter.Unmarshal(b, &idx)
	return idx, err
}

package model

import (
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// ExecState is the state of an execution
type ExecState string

// Execution states.
//
// RUNNING, PAUSED and STOPPED are observed from the process table.
// EXITED, FAILED and KILLED are recorded in meta.json when the engine knows the outcome.
const (
	StateRunning ExecState = "RUNNING"
	StatePaused  ExecState = "PAUSED"
	StateStopped ExecState = "STOPPED"
	StateExited  ExecState = "EXITED"
	StateFailed  ExecState = "FAILED"
	StateKilled  ExecState = "KILLED"
)

// AuditEvent is the kind of an audit record
type AuditEvent string

// Audit events
const (
	EventStart            AuditEvent = "START"
	EventExit             AuditEvent = "EXIT"
	EventError            AuditEvent = "ERROR"
	EventPause            AuditEvent = "PAUSE"
	EventPauseSkipped     AuditEvent = "PAUSE_SKIPPED"
	EventResume           AuditEvent = "RESUME"
	EventResumeSkipped    AuditEvent = "RESUME_SKIPPED"
	EventKill             AuditEvent = "KILL"
	EventCheckpoint       AuditEvent = "CHECKPOINT"
	EventCheckpointLoaded AuditEvent = "CHECKPOINT_LOADED"
)

// ExecMeta is the descriptor of an execution, stored as meta.json
type ExecMeta struct {
	ExecID              string            `json:"exec_id" yaml:"exec_id"`
	State               ExecState         `json:"state" yaml:"state"`
	CreatedAt           string            `json:"created_at" yaml:"created_at"`
	UpdatedAt           string            `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Metadata            map[string]string `json:"metadata" yaml:"metadata"`
	CheckpointIntervalS *float64          `json:"checkpoint_interval_s" yaml:"checkpoint_interval_s"`
	Command             []string          `json:"command,omitempty" yaml:"command,omitempty"`
	ExitCode            *int              `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	_                   struct{}
}

// ExecStatus is the observed status of an execution
type ExecStatus struct {
	ExecID string    `json:"exec_id" yaml:"exec_id"`
	State  ExecState `json:"state" yaml:"state"`
	PID    int       `json:"pid,omitempty" yaml:"pid,omitempty"` // 0 when unknown
	_      struct{}
}

// ExecStatuses is a list of execution statuses, sorted by id
type ExecStatuses []ExecStatus

func (s ExecStatuses) Len() int           { return len(s) }
func (s ExecStatuses) Less(i, j int) bool { return s[i].ExecID < s[j].ExecID }
func (s ExecStatuses) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sorted returns the statuses in id order
func (s ExecStatuses) Sorted() ExecStatuses {
	sort.Sort(s)
	return s
}

// AuditRecord is a line in an audit log
type AuditRecord struct {
	Token string                 `json:"token" yaml:"token"` // k-sortable unique token
	TS    string                 `json:"ts" yaml:"ts"`
	Event AuditEvent             `json:"event" yaml:"event"`
	PID   *int                   `json:"pid" yaml:"pid"`
	Meta  map[string]interface{} `json:"meta" yaml:"meta"`
	_     struct{}
}

// MarshalExecMeta encodes an execution descriptor as indented JSON
func MarshalExecMeta(m *ExecMeta) ([]byte, error) {
	return jsoniter.MarshalIndent(m, "", "  ")
}

// UnmarshalExecMeta decodes an execution descriptor
func UnmarshalExecMeta(b []byte) (*ExecMeta, error) {
	if b == nil {
		return nil, fmt.Errorf("received nil execution meta to unmarshal")
	}
	var m ExecMeta
	err := jsoniter.Unmarshal(b, &m)
	return &m, err
}

// MarshalAuditRecord encodes an audit record on a single line
func MarshalAuditRecord(r *AuditRecord) ([]byte, error) {
	if r.Meta == nil {
		r.Meta = map[string]interface{}{}
	}
	b, err := jsoniter.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// UnmarshalAuditRecord decodes an audit record
func UnmarshalAuditRecord(b []byte) (*AuditRecord, error) {
	if b == nil {
		return nil, fmt.Errorf("received nil audit record to unmarshal")
	}
	var r AuditRecord
	err := jsoniter.Unmarshal(b, &r)
	return &r, err
}

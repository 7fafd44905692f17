package model

import (
	"sort"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataKeys(t *testing.T) {
	m := Metadata{
		Caller:      Caller{File: "main.go", Function: "main.main", Line: 12},
		Environment: Environment{InterpreterVersion: "go1.24", ProcessID: 99},
		GitCommit:   "unknown",
		ExecutionID: "exp1",
		Timestamp:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := jsoniter.Marshal(m)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(b, &generic))
	require.Contains(t, generic, "caller")
	require.Contains(t, generic, "environment")
	require.Contains(t, generic, "git_commit")

	caller := generic["caller"].(map[string]interface{})
	for _, k := range []string{"file", "function", "line"} {
		assert.Contains(t, caller, k)
	}
	env := generic["environment"].(map[string]interface{})
	for _, k := range []string{"interpreter_version", "process_id"} {
		assert.Contains(t, env, k)
	}
	assert.NotContains(t, generic, "checkpoint_name")

	back, err := UnmarshalMetadata(b)
	require.NoError(t, err)
	assert.Equal(t, m.Caller, back.Caller)
	assert.True(t, m.Timestamp.Equal(back.Timestamp))
}

func TestManifest(t *testing.T) {
	m := NewManifest([]string{"y", "x"})
	assert.Equal(t, []string{"x", "y"}, m.Variables)

	b, err := jsoniter.Marshal(m)
	require.NoError(t, err)
	back, err := UnmarshalManifest(b)
	require.NoError(t, err)
	assert.Equal(t, m.Variables, back.Variables)

	_, err = UnmarshalManifest([]byte(`{"schema":"v0","variables":[]}`))
	require.Error(t, err)
	_, err = UnmarshalManifest(nil)
	require.Error(t, err)
}

func TestSummariesOrder(t *testing.T) {
	now := time.Now()
	s := Summaries{
		{ID: "old", Metadata: Metadata{Timestamp: now.Add(-time.Hour)}},
		{ID: "new", Metadata: Metadata{Timestamp: now}},
		{ID: "b-same", Metadata: Metadata{Timestamp: now.Add(-time.Minute)}},
		{ID: "a-same", Metadata: Metadata{Timestamp: now.Add(-time.Minute)}},
	}
	sort.Sort(s)
	ids := make([]string, 0, len(s))
	for _, x := range s {
		ids = append(ids, x.ID)
	}
	assert.Equal(t, []string{"new", "a-same", "b-same", "old"}, ids)
}

func TestAuditRecord(t *testing.T) {
	pid := 1234
	r := &AuditRecord{Token: "tok", TS: "2024-01-01T00:00:00.000Z", Event: EventStart, PID: &pid}
	b, err := MarshalAuditRecord(r)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), b[len(b)-1])

	back, err := UnmarshalAuditRecord(b)
	require.NoError(t, err)
	assert.Equal(t, EventStart, back.Event)
	require.NotNil(t, back.PID)
	assert.Equal(t, pid, *back.PID)
	assert.NotNil(t, back.Meta)

	// a missing pid is serialized as null
	b, err = MarshalAuditRecord(&AuditRecord{Event: EventKill})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"pid":null`)
}

func TestExecMeta(t *testing.T) {
	code := 3
	m := &ExecMeta{ExecID: "e1", State: StateExited, Metadata: map[string]string{"k": "v"}, ExitCode: &code}
	b, err := MarshalExecMeta(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"checkpoint_interval_s": null`)

	back, err := UnmarshalExecMeta(b)
	require.NoError(t, err)
	assert.Equal(t, StateExited, back.State)
	require.NotNil(t, back.ExitCode)
	assert.Equal(t, 3, *back.ExitCode)
}

func TestExecStatusesSorted(t *testing.T) {
	s := ExecStatuses{{ExecID: "b"}, {ExecID: "a"}}.Sorted()
	assert.Equal(t, "a", s[0].ExecID)
}

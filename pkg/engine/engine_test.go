//go:build unix

package engine

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/oneconcern/stele/pkg/engine/status"
	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/ids"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	waitFor = 5 * time.Second
	tick    = 20 * time.Millisecond
)

func setupEngine(t testing.TB) *Engine {
	t.Helper()
	e, err := New(BaseDir(t.TempDir()), Logger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return e
}

func waitCtx(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func events(t testing.TB, e *Engine, execID string) []model.AuditEvent {
	t.Helper()
	records, err := e.Audit(execID)
	require.NoError(t, err)
	evts := make([]model.AuditEvent, 0, len(records))
	for _, r := range records {
		evts = append(evts, r.Event)
	}
	return evts
}

func requireState(t testing.TB, e *Engine, execID string, expected model.ExecState) {
	t.Helper()
	require.Eventuallyf(t, func() bool {
		st, err := e.Status(execID)
		return err == nil && st.State == expected
	}, waitFor, tick, "expected execution %s to be %s", execID, expected)
}

func TestRunWait(t *testing.T) {
	e := setupEngine(t)
	interval := 1500 * time.Millisecond

	execID, err := e.Run(context.Background(), RunSpec{
		Command:            []string{"sh", "-c", `echo "$STELE_EXEC_ID $STELE_CHECKPOINT_INTERVAL"; echo oops >&2`},
		Metadata:           map[string]string{"owner": "test"},
		CheckpointInterval: interval,
	})
	require.NoError(t, err)
	assert.True(t, ids.Valid(execID))

	code, err := e.Wait(waitCtx(t), execID)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	stdout, err := os.ReadFile(e.execFile(execID, model.ExecStdoutFile))
	require.NoError(t, err)
	assert.Equal(t, execID+" 1.5", strings.TrimSpace(string(stdout)))

	stderr, err := os.ReadFile(e.execFile(execID, model.ExecStderrFile))
	require.NoError(t, err)
	assert.Equal(t, "oops", strings.TrimSpace(string(stderr)))

	meta, err := e.Meta(execID)
	require.NoError(t, err)
	assert.Equal(t, execID, meta.ExecID)
	assert.Equal(t, model.StateExited, meta.State)
	assert.Equal(t, "test", meta.Metadata["owner"])
	require.NotNil(t, meta.CheckpointIntervalS)
	assert.Equal(t, 1.5, *meta.CheckpointIntervalS)
	require.NotNil(t, meta.ExitCode)
	assert.Equal(t, 0, *meta.ExitCode)
	assert.NotEmpty(t, meta.CreatedAt)
	assert.True(t, meta.UpdatedAt >= meta.CreatedAt)

	assert.Equal(t, []model.AuditEvent{model.EventStart, model.EventExit}, events(t, e, execID))

	st, err := e.Status(execID)
	require.NoError(t, err)
	assert.Equal(t, model.StateStopped, st.State)
	assert.NotZero(t, st.PID)
}

func TestRunFailure(t *testing.T) {
	e := setupEngine(t)

	execID, err := e.Run(context.Background(), RunSpec{Command: []string{"sh", "-c", "exit 3"}})
	require.NoError(t, err)

	code, err := e.Wait(waitCtx(t), execID)
	require.NoError(t, err)
	assert.Equal(t, 3, code)

	meta, err := e.Meta(execID)
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, meta.State)
	assert.Equal(t, []model.AuditEvent{model.EventStart, model.EventError}, events(t, e, execID))
}

func TestRunInvalid(t *testing.T) {
	e := setupEngine(t)

	_, err := e.Run(context.Background(), RunSpec{})
	assert.True(t, errors.Is(err, status.ErrInvalidCommand))

	_, err = e.Run(context.Background(), RunSpec{Command: []string{"true"}, ExecID: "../escape"})
	assert.True(t, errors.Is(err, status.ErrInvalidExecID))

	execID, err := e.Run(context.Background(), RunSpec{Command: []string{"/nonexistent/stele/binary"}, ExecID: "broken"})
	require.Error(t, err)
	assert.Empty(t, execID)
	assert.True(t, errors.Is(err, status.ErrStart))

	meta, err := e.Meta("broken")
	require.NoError(t, err)
	assert.Equal(t, model.StateFailed, meta.State)
	assert.Contains(t, events(t, e, "broken"), model.EventError)
}

func TestPauseResumeKill(t *testing.T) {
	e := setupEngine(t)

	execID, err := e.Run(context.Background(), RunSpec{Command: []string{"sleep", "30"}})
	require.NoError(t, err)
	requireState(t, e, execID, model.StateRunning)

	t.Run("already running", func(t *testing.T) {
		_, err := e.Run(context.Background(), RunSpec{Command: []string{"sleep", "1"}, ExecID: execID})
		assert.True(t, errors.Is(err, status.ErrAlreadyRunning))
	})

	require.NoError(t, e.Pause(execID))
	requireState(t, e, execID, model.StatePaused)

	require.NoError(t, e.Resume(execID))
	requireState(t, e, execID, model.StateRunning)

	require.NoError(t, e.Kill(execID))
	code, err := e.Wait(waitCtx(t), execID)
	require.NoError(t, err)
	assert.Equal(t, -1, code)
	requireState(t, e, execID, model.StateStopped)

	meta, err := e.Meta(execID)
	require.NoError(t, err)
	assert.Equal(t, model.StateKilled, meta.State)

	evts := events(t, e, execID)
	for _, expected := range []model.AuditEvent{model.EventStart, model.EventPause, model.EventResume, model.EventKill} {
		assert.Contains(t, evts, expected)
	}

	t.Run("resume after exit", func(t *testing.T) {
		err := e.Resume(execID)
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrNotRunning))
	})

	t.Run("pause after exit", func(t *testing.T) {
		require.NoError(t, e.Pause(execID))
		assert.Equal(t, model.EventPauseSkipped, lastEvent(t, e, execID))
	})

	t.Run("kill after exit", func(t *testing.T) {
		require.NoError(t, e.Kill(execID))
		assert.Equal(t, model.EventKill, lastEvent(t, e, execID))
	})
}

func lastEvent(t testing.TB, e *Engine, execID string) model.AuditEvent {
	evts := events(t, e, execID)
	require.NotEmpty(t, evts)
	return evts[len(evts)-1]
}

func TestListAndStatus(t *testing.T) {
	e := setupEngine(t)

	var started []string
	for _, id := range []string{"execution-b", "execution-a"} {
		execID, err := e.Run(context.Background(), RunSpec{Command: []string{"true"}, ExecID: id})
		require.NoError(t, err)
		started = append(started, execID)
	}
	for _, execID := range started {
		_, err := e.Wait(waitCtx(t), execID)
		require.NoError(t, err)
	}

	statuses, err := e.List()
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "execution-a", statuses[0].ExecID)
	assert.Equal(t, "execution-b", statuses[1].ExecID)
	for _, st := range statuses {
		assert.Equal(t, model.StateStopped, st.State)
	}

	_, err = e.Status("execution-c")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	_, err = e.Wait(context.Background(), "execution-c")
	assert.True(t, errors.Is(err, status.ErrNotManaged))
}

func TestStatusFromOtherEngine(t *testing.T) {
	e := setupEngine(t)
	execID, err := e.Run(context.Background(), RunSpec{Command: []string{"sleep", "30"}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Kill(execID) })

	// another engine instance, as used by a separate CLI invocation
	other, err := New(BaseDir(e.BaseDir()))
	require.NoError(t, err)
	requireState(t, other, execID, model.StateRunning)

	require.NoError(t, other.Pause(execID))
	requireState(t, e, execID, model.StatePaused)

	require.NoError(t, other.Kill(execID))
	code, err := e.Wait(waitCtx(t), execID)
	require.NoError(t, err)
	assert.Equal(t, -1, code)
}

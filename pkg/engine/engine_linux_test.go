//go:build linux

package engine

import (
	"os"
	"os/exec"
	"strconv"
	"testing"

	"github.com/oneconcern/stele/pkg/engine/status"
	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startZombie starts a process which exits at once and is not reaped until the test ends
func startZombie(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("sh", "-c", "exit 0")
	require.NoError(t, cmd.Start())
	t.Cleanup(func() { _ = cmd.Wait() })

	pid := cmd.Process.Pid
	require.Eventually(t, func() bool {
		return processState(pid) == procZombie
	}, waitFor, tick, "expected process %d to become a zombie", pid)
	return pid
}

func TestZombieExecution(t *testing.T) {
	e := setupEngine(t)
	pid := startZombie(t)

	const execID = "execution-20240102T030405-0badf00d"
	require.NoError(t, os.MkdirAll(e.ExecDir(execID), 0755))
	require.NoError(t, os.WriteFile(e.execFile(execID, model.ExecPIDFile), []byte(strconv.Itoa(pid)), 0644))

	st, err := e.Status(execID)
	require.NoError(t, err)
	assert.Equal(t, model.StateStopped, st.State)
	assert.Equal(t, pid, st.PID)

	err = e.Resume(execID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotRunning))

	require.NoError(t, e.Pause(execID))
	records, err := e.Audit(execID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.EventPauseSkipped, records[0].Event)
	assert.Equal(t, "not_running", records[0].Meta["reason"])

	require.NoError(t, e.Kill(execID))
	assert.Equal(t, []model.AuditEvent{model.EventPauseSkipped, model.EventKill}, events(t, e, execID))

	st, err = e.Status(execID)
	require.NoError(t, err)
	assert.Equal(t, model.StateStopped, st.State)
}

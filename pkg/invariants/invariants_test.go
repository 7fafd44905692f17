package invariants

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/stele/pkg/audit"
	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/oneconcern/stele/pkg/config"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCheckFailingState(t *testing.T) {
	violated := Check(State{})
	assert.NotEmpty(t, violated)
	assert.NotContains(t, violated, IDsImmutable)
	assert.ElementsMatch(t, []string{
		CommitLogAppendOnly,
		SnapshotConsistency,
		ClockMonotonic,
		ConfigVersionSet,
		StoragePathSet,
	}, violated)
}

func TestCheckPassingState(t *testing.T) {
	s := State{
		CommitLog:           []string{},
		IDsMutable:          false,
		SnapshotsConsistent: true,
		ClockMonotonic:      true,
		Version:             "0.1",
		StoragePath:         "/tmp",
	}
	assert.Empty(t, Check(s))

	s.IDsMutable = true
	assert.Equal(t, []string{IDsImmutable}, Check(s))
}

func TestCore(t *testing.T) {
	assert.Len(t, Core(), 6)
	for _, name := range Core() {
		bad := State{}
		assert.Contains(t, append(Check(bad), IDsImmutable), name)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("STELE_GIT_COMMIT", "0123456789abcdef")
	base := t.TempDir()
	cfg := config.Default()
	cfg.StoragePath = filepath.Join(base, ".stele")
	cfg.SnapshotRoot = filepath.Join(base, "snapshots")
	return cfg
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	l := zaptest.NewLogger(t)

	t.Run("empty installation", func(t *testing.T) {
		s, err := Collect(ctx, cfg, l)
		require.NoError(t, err)
		assert.Empty(t, Check(s))
		_, err = os.Stat(cfg.StoragePath)
		assert.True(t, os.IsNotExist(err))
	})

	execID := "execution-20240102T030405-abcdef01"
	log := audit.New(model.GetPathToExecFile(cfg.StoragePath, execID, model.ExecAuditFile))
	for _, evt := range []model.AuditEvent{model.EventStart, model.EventExit} {
		_, err := log.Append(evt, nil, nil)
		require.NoError(t, err)
	}
	id, err := checkpoint.Save(ctx, execID, map[string]interface{}{"x": 1}, checkpoint.Root(cfg.SnapshotRoot))
	require.NoError(t, err)

	t.Run("healthy installation", func(t *testing.T) {
		s, err := Collect(ctx, cfg, l)
		require.NoError(t, err)
		assert.Len(t, s.CommitLog, 2)
		assert.Empty(t, Check(s))
	})

	t.Run("renamed execution", func(t *testing.T) {
		meta := []byte(`{"exec_id":"execution-other","state":"EXITED","created_at":"2024-01-02T03:04:05.000Z","metadata":{},"checkpoint_interval_s":null}`)
		require.NoError(t, os.WriteFile(model.GetPathToExecFile(cfg.StoragePath, execID, model.ExecMetaFile), meta, 0644))
		s, err := Collect(ctx, cfg, l)
		require.NoError(t, err)
		assert.Equal(t, []string{IDsImmutable}, Check(s))
		require.NoError(t, os.Remove(model.GetPathToExecFile(cfg.StoragePath, execID, model.ExecMetaFile)))
	})

	t.Run("clock going backwards", func(t *testing.T) {
		f, err := os.OpenFile(log.Path(), os.O_APPEND|os.O_WRONLY, 0644)
		require.NoError(t, err)
		_, err = f.WriteString(`{"token":"1","ts":"2000-01-01T00:00:00.000Z","event":"PAUSE","pid":null,"meta":null}` + "\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())

		s, err := Collect(ctx, cfg, l)
		require.NoError(t, err)
		assert.Equal(t, []string{ClockMonotonic}, Check(s))
	})

	t.Run("corrupted checkpoint", func(t *testing.T) {
		objects := filepath.Join(cfg.SnapshotRoot, id, model.ObjectsFile)
		b, err := os.ReadFile(objects)
		require.NoError(t, err)
		b[0] ^= 0xff
		require.NoError(t, os.WriteFile(objects, b, 0644))

		s, err := Collect(ctx, cfg, l)
		require.NoError(t, err)
		assert.Contains(t, Check(s), SnapshotConsistency)
	})
}

func TestCollectExecutionCheckpoints(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	l := zaptest.NewLogger(t)

	execID := "execution-20240102T030405-abcdef02"
	log := audit.New(model.GetPathToExecFile(cfg.StoragePath, execID, model.ExecAuditFile))
	_, err := log.Append(model.EventStart, nil, nil)
	require.NoError(t, err)

	root := model.GetPathToExecFile(cfg.StoragePath, execID, model.ExecCheckpointDir)
	id, err := checkpoint.Save(ctx, execID, map[string]interface{}{"count": 3}, checkpoint.Root(root))
	require.NoError(t, err)

	s, err := Collect(ctx, cfg, l)
	require.NoError(t, err)
	assert.Empty(t, Check(s))

	objects := filepath.Join(root, id, model.ObjectsFile)
	b, err := os.ReadFile(objects)
	require.NoError(t, err)
	b[len(b)-1] ^= 0xff
	require.NoError(t, os.WriteFile(objects, b, 0644))

	s, err = Collect(ctx, cfg, l)
	require.NoError(t, err)
	assert.Equal(t, []string{SnapshotConsistency}, Check(s))
}

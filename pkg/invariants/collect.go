package invariants

import (
	"context"
	"os"

	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/oneconcern/stele/pkg/clock"
	"github.com/oneconcern/stele/pkg/config"
	"github.com/oneconcern/stele/pkg/engine"
	"github.com/oneconcern/stele/pkg/model"
	"go.uber.org/zap"
)

// Collect observes the executions and checkpoints of an installation.
//
// Every execution must keep the id it was created with, with a strictly appended audit
// log and timestamps that never go backwards. Every checkpoint must verify, whether it
// lives under the snapshot root or in the checkpoints directory of an execution.
func Collect(ctx context.Context, cfg *config.Config, l *zap.Logger) (State, error) {
	if l == nil {
		l = zap.NewNop()
	}
	s := State{
		CommitLog:           []string{},
		SnapshotsConsistent: true,
		ClockMonotonic:      true,
		Version:             cfg.Version,
		StoragePath:         cfg.StoragePath,
	}

	if err := collectExecutions(ctx, &s, cfg.StoragePath, l); err != nil {
		return s, err
	}
	if err := collectCheckpoints(ctx, &s, cfg.SnapshotRoot, l); err != nil {
		return s, err
	}
	return s, nil
}

func collectExecutions(ctx context.Context, s *State, storagePath string, l *zap.Logger) error {
	if storagePath == "" {
		return nil
	}
	if _, err := os.Stat(storagePath); os.IsNotExist(err) {
		return nil
	}
	e, err := engine.New(engine.BaseDir(storagePath), engine.Logger(l))
	if err != nil {
		return err
	}
	statuses, err := e.List()
	if err != nil {
		return err
	}

	for _, st := range statuses {
		meta, err := e.Meta(st.ExecID)
		if err != nil {
			return err
		}
		if meta.ExecID != "" && meta.ExecID != st.ExecID {
			l.Warn("execution id changed", zap.String("dir", st.ExecID), zap.String("exec_id", meta.ExecID))
			s.IDsMutable = true
		}

		records, err := e.Audit(st.ExecID)
		if err != nil {
			return err
		}
		timestamps := make([]string, 0, len(records))
		for _, r := range records {
			s.CommitLog = append(s.CommitLog, r.Token)
			timestamps = append(timestamps, r.TS)
		}
		if !clock.Monotonic(timestamps) {
			l.Warn("audit timestamps go backwards", zap.String("exec_id", st.ExecID))
			s.ClockMonotonic = false
		}

		if err := collectCheckpoints(ctx, s, model.GetPathToExecFile(storagePath, st.ExecID, model.ExecCheckpointDir), l); err != nil {
			return err
		}
	}
	return nil
}

func collectCheckpoints(ctx context.Context, s *State, root string, l *zap.Logger) error {
	summaries, err := checkpoint.List(checkpoint.Root(root), checkpoint.Logger(l))
	if err != nil {
		return err
	}
	for _, summary := range summaries {
		if err := checkpoint.Verify(ctx, summary.Path, checkpoint.Logger(l)); err != nil {
			l.Warn("inconsistent checkpoint", zap.String("id", summary.ID), zap.Error(err))
			s.SnapshotsConsistent = false
		}
	}
	return nil
}

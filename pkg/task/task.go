// Package task is the runtime of a process supervised by the execution engine.
//
// A task function works on a State. The runtime loads the state from the last
// checkpoint of the execution, checkpoints it periodically while the function runs,
// then a final time when it returns. Lifecycle events are appended to the audit log
// of the execution.
//
//	err := task.Run(ctx, func(ctx context.Context, state *task.State) error {
//		n, _ := state.Int64("count")
//		state.Set("count", n+1)
//		return nil
//	})
package task

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oneconcern/stele/pkg/audit"
	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/oneconcern/stele/pkg/metrics"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/oneconcern/stele/pkg/task/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Func is the work of a task
type Func func(context.Context, *State) error

var (
	usage     *metrics.UsageMetrics
	usageOnce sync.Once
)

func taskMetrics() *metrics.UsageMetrics {
	usageOnce.Do(func() {
		usage = metrics.NewUsageMetrics("task")
	})
	return usage
}

type runtime struct {
	*settings
	state *State
	log   *audit.Log
	pid   int
}

// Run a task function with checkpointed state.
//
// The error returned by fn is returned after it has been audited.
func Run(ctx context.Context, fn Func, opts ...Option) error {
	s, err := newSettings(opts)
	if err != nil {
		return err
	}
	pid := os.Getpid()
	r := &runtime{
		settings: s,
		state:    NewState(),
		log:      audit.New(filepath.Join(s.execDir, model.ExecAuditFile), audit.Fs(s.fs), audit.Logger(s.l)),
		pid:      pid,
	}
	r.l = r.l.With(zap.String("exec_id", s.execID), zap.Int("pid", pid))

	r.load(ctx)
	r.audit(model.EventStart, nil)

	stop := r.periodic(ctx)
	fnErr := fn(ctx, r.state)
	stop()

	if _, err := r.checkpoint(ctx, "final"); err != nil {
		r.l.Error("final checkpoint failed", zap.Error(err))
	}

	if fnErr != nil {
		r.audit(model.EventError, map[string]interface{}{"error": fnErr.Error()})
		r.l.Error("task failed", zap.Error(fnErr))
		return fnErr
	}
	r.audit(model.EventExit, nil)
	r.l.Info("task completed")
	return nil
}

func (r *runtime) audit(event model.AuditEvent, meta map[string]interface{}) {
	pid := r.pid
	if _, err := r.log.Append(event, &pid, meta); err != nil {
		r.l.Error("could not append audit record", zap.String("event", string(event)), zap.Error(err))
	}
}

func (r *runtime) checkpointRoot() string {
	return filepath.Join(r.execDir, model.ExecCheckpointDir)
}

func (r *runtime) refPath() string {
	return filepath.Join(r.execDir, model.ExecCheckpointRef)
}

// load restores the state from the checkpoint referenced by checkpoint.ref, if any
func (r *runtime) load(ctx context.Context) {
	b, err := afero.ReadFile(r.fs, r.refPath())
	if err != nil {
		if !os.IsNotExist(err) {
			r.audit(model.EventError, map[string]interface{}{"error": status.ErrLoad.Wrap(err).Error()})
		}
		return
	}
	id := strings.TrimSpace(string(b))

	var restored []string
	err = r.state.restore(func(values map[string]interface{}) error {
		var rerr error
		restored, rerr = checkpoint.Restore(ctx, filepath.Join(r.checkpointRoot(), id), values, "", checkpoint.Fs(r.fs), checkpoint.Logger(r.l))
		return rerr
	})
	if err != nil {
		r.audit(model.EventError, map[string]interface{}{"error": status.ErrLoad.Wrap(err).Error(), "checkpoint_id": id})
		r.l.Warn("could not load checkpoint, starting afresh", zap.String("checkpoint_id", id), zap.Error(err))
		return
	}
	r.audit(model.EventCheckpointLoaded, map[string]interface{}{"checkpoint_id": id, "variables": restored})
	r.l.Info("checkpoint loaded", zap.String("checkpoint_id", id), zap.Strings("variables", restored))
}

// checkpoint saves the state and moves checkpoint.ref to the new checkpoint
func (r *runtime) checkpoint(ctx context.Context, name string) (id string, err error) {
	defer func(t0 time.Time) { taskMetrics().Used(t0, "checkpoint")(err) }(time.Now())
	defer func() {
		if err != nil {
			r.audit(model.EventError, map[string]interface{}{"error": err.Error()})
		}
	}()

	id, err = checkpoint.Save(ctx, r.execID, r.state.Snapshot(),
		checkpoint.Root(r.checkpointRoot()),
		checkpoint.Fs(r.fs),
		checkpoint.Name(name),
		checkpoint.CallerSkip(1),
		checkpoint.Logger(r.l),
	)
	if err != nil {
		return "", status.ErrCheckpoint.Wrap(err)
	}

	ref := r.refPath()
	tmp := model.TempPath(ref)
	if err = afero.WriteFile(r.fs, tmp, []byte(id+"\n"), 0644); err != nil {
		return "", status.ErrCheckpoint.Wrap(err)
	}
	if err = r.fs.Rename(tmp, ref); err != nil {
		_ = r.fs.Remove(tmp)
		return "", status.ErrCheckpoint.Wrap(err)
	}

	r.audit(model.EventCheckpoint, map[string]interface{}{"checkpoint_id": id, "name": name})
	r.l.Debug("checkpoint saved", zap.String("checkpoint_id", id))
	return id, nil
}

// periodic checkpoints the state every interval until the returned function is called
func (r *runtime) periodic(ctx context.Context) func() {
	if r.interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, _ = r.checkpoint(ctx, "periodic")
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}

// parseInterval reads an interval in seconds. Zero disables periodic checkpoints.
func parseInterval(v string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, status.ErrInvalidInterval.Wrap(err)
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, status.ErrInvalidInterval.WrapMessage(v)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

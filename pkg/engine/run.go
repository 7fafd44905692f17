package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/oneconcern/stele/pkg/engine/status"
	"github.com/oneconcern/stele/pkg/model"
	"go.uber.org/zap"
)

// RunSpec describes an execution to start
type RunSpec struct {
	// Command and its arguments
	Command []string

	// ExecID defaults to a new execution id
	ExecID string

	// Metadata recorded in meta.json
	Metadata map[string]string

	// CheckpointInterval is passed to the process. Zero disables periodic checkpoints.
	CheckpointInterval time.Duration

	// Env is appended to the environment of the engine
	Env []string

	// Dir is the working directory of the process. Defaults to the current directory.
	Dir string
}

// Run starts an execution and returns its id.
//
// The process keeps running when Run returns: use Wait to wait for its completion.
func (e *Engine) Run(ctx context.Context, spec RunSpec) (execID string, err error) {
	defer func(t0 time.Time) { engineMetrics().Used(t0, "run")(err) }(time.Now())

	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return "", status.ErrInvalidCommand.WrapMessage("no command to run")
	}
	execID = spec.ExecID
	if execID == "" {
		execID = e.newID()
	}
	if err = validateExecID(execID); err != nil {
		return "", err
	}
	if pid := e.readPID(execID); pid > 0 && isAlive(pid) {
		return "", status.ErrAlreadyRunning.WrapMessage(fmt.Sprintf("%s (pid %d)", execID, pid))
	}

	dir := e.ExecDir(execID)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", status.ErrMeta.Wrap(err)
	}

	meta := &model.ExecMeta{
		ExecID:    execID,
		State:     model.StateRunning,
		CreatedAt: e.clock.Tick(),
		Metadata:  spec.Metadata,
		Command:   spec.Command,
	}
	if meta.Metadata == nil {
		meta.Metadata = map[string]string{}
	}
	if spec.CheckpointInterval > 0 {
		interval := spec.CheckpointInterval.Seconds()
		meta.CheckpointIntervalS = &interval
	}
	if err = e.writeMeta(meta); err != nil {
		return "", err
	}

	l := e.l.With(zap.String("exec_id", execID))
	cmd, err := e.command(execID, spec)
	if err != nil {
		e.fail(execID, 0, err)
		return "", status.ErrStart.Wrap(err)
	}

	if err = cmd.Start(); err != nil {
		closeOutputs(cmd)
		e.fail(execID, 0, err)
		return "", status.ErrStart.WrapWithLog(l, err, zap.Strings("command", spec.Command))
	}
	closeOutputs(cmd)
	pid := cmd.Process.Pid

	h := &handle{cmd: cmd, done: make(chan struct{})}
	e.mx.Lock()
	e.handles[execID] = h
	e.mx.Unlock()

	if err = e.writePID(execID, pid); err != nil {
		l.Error("could not write pid file", zap.Error(err))
	}
	e.audit(execID, model.EventStart, pid, map[string]interface{}{"command": spec.Command})
	l.Info("execution started", zap.Int("pid", pid), zap.Strings("command", spec.Command))

	go e.watch(execID, h)
	return execID, nil
}

func (e *Engine) command(execID string, spec RunSpec) (*exec.Cmd, error) {
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...) // #nosec
	cmd.Dir = spec.Dir

	env := append(os.Environ(), spec.Env...)
	env = append(env,
		EnvExecID+"="+execID,
		EnvExecDir+"="+e.ExecDir(execID),
	)
	if spec.CheckpointInterval > 0 {
		env = append(env, EnvCheckpointInterval+"="+strconv.FormatFloat(spec.CheckpointInterval.Seconds(), 'f', -1, 64))
	}
	cmd.Env = env

	stdout, err := os.OpenFile(e.execFile(execID, model.ExecStdoutFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	stderr, err := os.OpenFile(e.execFile(execID, model.ExecStderrFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		_ = stdout.Close()
		return nil, err
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureCommand(cmd)
	return cmd, nil
}

func closeOutputs(cmd *exec.Cmd) {
	if f, ok := cmd.Stdout.(*os.File); ok {
		_ = f.Close()
	}
	if f, ok := cmd.Stderr.(*os.File); ok {
		_ = f.Close()
	}
}

// fail records an execution which could not run
func (e *Engine) fail(execID string, pid int, cause error) {
	e.audit(execID, model.EventError, pid, map[string]interface{}{"error": cause.Error()})
	if err := e.updateMeta(execID, func(m *model.ExecMeta) {
		m.State = model.StateFailed
	}); err != nil {
		e.l.Error("could not update meta", zap.String("exec_id", execID), zap.Error(err))
	}
}

// watch waits for a process started by this engine and records its outcome.
//
// A process killed through another engine is recognized from the KILLED state in meta.json.
func (e *Engine) watch(execID string, h *handle) {
	defer close(h.done)

	err := h.cmd.Wait()
	pid := h.cmd.Process.Pid
	h.exitCode = h.cmd.ProcessState.ExitCode()

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		h.err = err
	}

	state := model.StateExited
	code := h.exitCode
	if uerr := e.updateMeta(execID, func(m *model.ExecMeta) {
		switch {
		case h.wasKilled() || m.State == model.StateKilled:
			state = model.StateKilled
		case err != nil:
			state = model.StateFailed
		}
		m.State = state
		m.ExitCode = &code
	}); uerr != nil {
		e.l.Error("could not update meta", zap.String("exec_id", execID), zap.Error(uerr))
		if err != nil && !h.wasKilled() {
			state = model.StateFailed
		}
	}

	if state == model.StateFailed {
		e.audit(execID, model.EventError, pid, map[string]interface{}{"error": err.Error(), "exit_code": h.exitCode})
	} else {
		e.audit(execID, model.EventExit, pid, map[string]interface{}{"exit_code": h.exitCode})
	}
	e.l.Info("execution ended", zap.String("exec_id", execID), zap.String("state", string(state)), zap.Int("exit_code", h.exitCode))
}

// Wait for the completion of an execution started by this engine, and return its exit code.
//
// The exit code is -1 when the process was terminated by a signal.
func (e *Engine) Wait(ctx context.Context, execID string) (int, error) {
	h := e.handle(execID)
	if h == nil {
		return 0, status.ErrNotManaged.WrapMessage(execID)
	}
	select {
	case <-h.done:
		return h.exitCode, h.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

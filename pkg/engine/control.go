package engine

import (
	"time"

	"github.com/oneconcern/stele/pkg/engine/status"
	"github.com/oneconcern/stele/pkg/model"
	"go.uber.org/zap"
)

const reasonOSNotSupported = "os_not_supported"

// running tells if a process may still receive signals. Zombies have exited already.
func running(pid int) bool {
	return pid > 0 && isAlive(pid) && processState(pid) != procZombie
}

// Pause suspends the process of an execution.
//
// Pausing an execution which is not running is recorded as skipped.
func (e *Engine) Pause(execID string) (err error) {
	defer func(t0 time.Time) { engineMetrics().Used(t0, "pause")(err) }(time.Now())
	if err = e.exists(execID); err != nil {
		return err
	}
	pid := e.readPID(execID)

	if !signalsSupported {
		e.audit(execID, model.EventPauseSkipped, pid, map[string]interface{}{"reason": reasonOSNotSupported})
		return nil
	}
	if !running(pid) {
		e.audit(execID, model.EventPauseSkipped, pid, map[string]interface{}{"reason": "not_running"})
		return nil
	}

	if err = stopProcess(pid); err != nil {
		return status.ErrSignal.WrapWithLog(e.l, err, zap.String("exec_id", execID), zap.Int("pid", pid))
	}
	e.audit(execID, model.EventPause, pid, nil)
	e.l.Info("execution paused", zap.String("exec_id", execID), zap.Int("pid", pid))
	return nil
}

// Resume continues the process of a paused execution.
//
// A process which is gone cannot be restarted: Resume returns status.ErrNotRunning.
func (e *Engine) Resume(execID string) (err error) {
	defer func(t0 time.Time) { engineMetrics().Used(t0, "resume")(err) }(time.Now())
	if err = e.exists(execID); err != nil {
		return err
	}
	pid := e.readPID(execID)

	if !signalsSupported {
		e.audit(execID, model.EventResumeSkipped, pid, map[string]interface{}{"reason": reasonOSNotSupported})
		return nil
	}
	if !running(pid) {
		return status.ErrNotRunning.WrapMessage(execID)
	}

	if err = continueProcess(pid); err != nil {
		return status.ErrSignal.WrapWithLog(e.l, err, zap.String("exec_id", execID), zap.Int("pid", pid))
	}
	e.audit(execID, model.EventResume, pid, nil)
	e.l.Info("execution resumed", zap.String("exec_id", execID), zap.Int("pid", pid))
	return nil
}

// Kill the process of an execution. The kill is audited even when the process is already gone.
func (e *Engine) Kill(execID string) (err error) {
	defer func(t0 time.Time) { engineMetrics().Used(t0, "kill")(err) }(time.Now())
	if err = e.exists(execID); err != nil {
		return err
	}
	pid := e.readPID(execID)

	if running(pid) {
		if h := e.handle(execID); h != nil {
			h.markKilled()
		}
		if err = killProcess(pid); err != nil {
			return status.ErrSignal.WrapWithLog(e.l, err, zap.String("exec_id", execID), zap.Int("pid", pid))
		}
		if err = e.updateMeta(execID, func(m *model.ExecMeta) {
			m.State = model.StateKilled
		}); err != nil {
			e.l.Error("could not update meta", zap.String("exec_id", execID), zap.Error(err))
		}
	}
	e.audit(execID, model.EventKill, pid, nil)
	e.l.Info("execution killed", zap.String("exec_id", execID), zap.Int("pid", pid))
	return nil
}

// Status observes the process of an execution.
//
// A stopped process is PAUSED, a live one is RUNNING. Otherwise, including zombies, the execution is STOPPED.
func (e *Engine) Status(execID string) (*model.ExecStatus, error) {
	if err := e.exists(execID); err != nil {
		return nil, err
	}
	pid := e.readPID(execID)
	st := &model.ExecStatus{
		ExecID: execID,
		State:  model.StateStopped,
		PID:    pid,
	}
	if pid == 0 || !isAlive(pid) {
		return st, nil
	}
	if h := e.handle(execID); h != nil {
		select {
		case <-h.done:
			return st, nil
		default:
		}
	}

	switch processState(pid) {
	case procZombie:
		st.State = model.StateStopped
	case procStopped:
		st.State = model.StatePaused
	case procRunning:
		st.State = model.StateRunning
	default:
		st.State = e.stateFromAudit(execID)
	}
	return st, nil
}

// stateFromAudit infers the state of a live process from the last pause or resume event
func (e *Engine) stateFromAudit(execID string) model.ExecState {
	records, err := e.auditLog(execID).Records()
	if err != nil {
		return model.StateRunning
	}
	for i := len(records) - 1; i >= 0; i-- {
		switch records[i].Event {
		case model.EventPause:
			return model.StatePaused
		case model.EventResume, model.EventStart:
			return model.StateRunning
		}
	}
	return model.StateRunning
}

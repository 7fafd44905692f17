package engine

import (
	"os"
	"strconv"
	"strings"

	"github.com/oneconcern/stele/pkg/engine/status"
	"github.com/oneconcern/stele/pkg/model"
)

// atomicWrite replaces a file with a synced staging copy
func atomicWrite(path string, data []byte) error {
	tmp := model.TempPath(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (e *Engine) readMeta(execID string) (*model.ExecMeta, error) {
	b, err := os.ReadFile(e.execFile(execID, model.ExecMetaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &model.ExecMeta{ExecID: execID, Metadata: map[string]string{}}, nil
		}
		return nil, status.ErrMeta.Wrap(err)
	}
	m, err := model.UnmarshalExecMeta(b)
	if err != nil {
		return nil, status.ErrMeta.Wrap(err)
	}
	return m, nil
}

func (e *Engine) writeMetaLocked(m *model.ExecMeta) error {
	b, err := model.MarshalExecMeta(m)
	if err != nil {
		return status.ErrMeta.Wrap(err)
	}
	if err = atomicWrite(e.execFile(m.ExecID, model.ExecMetaFile), b); err != nil {
		return status.ErrMeta.Wrap(err)
	}
	return nil
}

// writeMeta replaces the execution descriptor, under the meta file lock
func (e *Engine) writeMeta(m *model.ExecMeta) error {
	unlock, err := lockFile(model.LockPath(e.execFile(m.ExecID, model.ExecMetaFile)))
	if err != nil {
		return status.ErrMeta.Wrap(err)
	}
	defer unlock()
	return e.writeMetaLocked(m)
}

// updateMeta applies a change to the execution descriptor, under the meta file lock
func (e *Engine) updateMeta(execID string, update func(*model.ExecMeta)) error {
	unlock, err := lockFile(model.LockPath(e.execFile(execID, model.ExecMetaFile)))
	if err != nil {
		return status.ErrMeta.Wrap(err)
	}
	defer unlock()

	m, err := e.readMeta(execID)
	if err != nil {
		return err
	}
	update(m)
	m.UpdatedAt = e.clock.Tick()
	return e.writeMetaLocked(m)
}

func (e *Engine) writePID(execID string, pid int) error {
	return atomicWrite(e.execFile(execID, model.ExecPIDFile), []byte(strconv.Itoa(pid)))
}

// readPID returns 0 when the pid is unknown
func (e *Engine) readPID(execID string) int {
	b, err := os.ReadFile(e.execFile(execID, model.ExecPIDFile))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

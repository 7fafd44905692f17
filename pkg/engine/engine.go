package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/oneconcern/stele/pkg/audit"
	"github.com/oneconcern/stele/pkg/clock"
	"github.com/oneconcern/stele/pkg/engine/status"
	"github.com/oneconcern/stele/pkg/ids"
	"github.com/oneconcern/stele/pkg/metrics"
	"github.com/oneconcern/stele/pkg/model"
	"go.uber.org/zap"
)

// Environment variables passed to supervised processes
const (
	EnvExecID             = "STELE_EXEC_ID"
	EnvExecDir            = "STELE_EXEC_DIR"
	EnvCheckpointInterval = "STELE_CHECKPOINT_INTERVAL"
)

var (
	usage     *metrics.UsageMetrics
	usageOnce sync.Once
)

func engineMetrics() *metrics.UsageMetrics {
	usageOnce.Do(func() {
		usage = metrics.NewUsageMetrics("engine")
	})
	return usage
}

// Engine runs and controls executions
type Engine struct {
	baseDir string
	l       *zap.Logger
	clock   *clock.LogicalClock
	newID   func() string

	mx      sync.Mutex
	handles map[string]*handle
}

// handle tracks a process started by this engine
type handle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
	err      error

	mx     sync.Mutex
	killed bool
}

func (h *handle) markKilled() {
	h.mx.Lock()
	h.killed = true
	h.mx.Unlock()
}

func (h *handle) wasKilled() bool {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.killed
}

// Option for the engine
type Option func(*Engine)

// BaseDir sets the directory holding executions. Defaults to ".stele".
func BaseDir(dir string) Option {
	return func(e *Engine) {
		if dir != "" {
			e.baseDir = dir
		}
	}
}

// Logger for the engine
func Logger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.l = l
		}
	}
}

// New execution engine
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		baseDir: model.DefaultExecRoot,
		l:       zap.NewNop(),
		clock:   clock.NewLogicalClock(),
		newID:   ids.NewExecutionID,
		handles: make(map[string]*handle),
	}
	for _, apply := range opts {
		apply(e)
	}

	abs, err := filepath.Abs(e.baseDir)
	if err != nil {
		return nil, err
	}
	e.baseDir = abs
	if err = os.MkdirAll(e.baseDir, 0755); err != nil {
		return nil, err
	}
	return e, nil
}

// BaseDir is the absolute path to the directory holding executions
func (e *Engine) BaseDir() string {
	return e.baseDir
}

// ExecDir is the directory of an execution
func (e *Engine) ExecDir(execID string) string {
	return model.GetPathToExec(e.baseDir, execID)
}

func (e *Engine) execFile(execID, file string) string {
	return model.GetPathToExecFile(e.baseDir, execID, file)
}

func (e *Engine) auditLog(execID string) *audit.Log {
	return audit.New(e.execFile(execID, model.ExecAuditFile), audit.Clock(e.clock), audit.Logger(e.l))
}

func (e *Engine) audit(execID string, event model.AuditEvent, pid int, meta map[string]interface{}) {
	var p *int
	if pid > 0 {
		p = &pid
	}
	if _, err := e.auditLog(execID).Append(event, p, meta); err != nil {
		e.l.Error("could not write audit record", zap.String("exec_id", execID), zap.String("event", string(event)), zap.Error(err))
	}
}

func (e *Engine) exists(execID string) error {
	if err := validateExecID(execID); err != nil {
		return err
	}
	fi, err := os.Stat(e.ExecDir(execID))
	if err != nil || !fi.IsDir() {
		return status.ErrNotFound.WrapMessage(execID)
	}
	return nil
}

func (e *Engine) handle(execID string) *handle {
	e.mx.Lock()
	defer e.mx.Unlock()
	return e.handles[execID]
}

func validateExecID(execID string) error {
	if execID == "" || execID == "." || execID == ".." || strings.ContainsAny(execID, `/\`) {
		return status.ErrInvalidExecID.WrapMessage(execID)
	}
	return nil
}

// Audit returns the audit records of an execution, in append order
func (e *Engine) Audit(execID string) ([]model.AuditRecord, error) {
	if err := e.exists(execID); err != nil {
		return nil, err
	}
	return e.auditLog(execID).Records()
}

// Meta returns the descriptor of an execution
func (e *Engine) Meta(execID string) (*model.ExecMeta, error) {
	if err := e.exists(execID); err != nil {
		return nil, err
	}
	return e.readMeta(execID)
}

// List the status of all executions, sorted by id
func (e *Engine) List() (model.ExecStatuses, error) {
	entries, err := os.ReadDir(e.baseDir)
	if err != nil {
		return nil, err
	}

	statuses := make(model.ExecStatuses, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		st, err := e.Status(entry.Name())
		if err != nil {
			e.l.Warn("skipping execution", zap.String("exec_id", entry.Name()), zap.Error(err))
			continue
		}
		statuses = append(statuses, *st)
	}
	sort.Sort(statuses)
	return statuses, nil
}

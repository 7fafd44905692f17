package task

import (
	"os"
	"path/filepath"
	"time"

	"github.com/oneconcern/stele/pkg/engine"
	"github.com/oneconcern/stele/pkg/task/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type settings struct {
	execDir  string
	execID   string
	interval time.Duration
	fs       afero.Fs
	l        *zap.Logger
}

// Option for the task runtime
type Option func(*settings)

// ExecDir sets the execution directory. Defaults to $STELE_EXEC_DIR.
func ExecDir(dir string) Option {
	return func(s *settings) {
		s.execDir = dir
	}
}

// ExecID sets the execution id. Defaults to $STELE_EXEC_ID, then to the name of the execution directory.
func ExecID(id string) Option {
	return func(s *settings) {
		s.execID = id
	}
}

// Interval sets the checkpoint interval. Defaults to $STELE_CHECKPOINT_INTERVAL seconds.
// Zero disables periodic checkpoints.
func Interval(interval time.Duration) Option {
	return func(s *settings) {
		s.interval = interval
	}
}

// Fs sets the file system holding the execution directory
func Fs(fs afero.Fs) Option {
	return func(s *settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// Logger for the task runtime
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

func newSettings(opts []Option) (*settings, error) {
	s := &settings{
		execDir: os.Getenv(engine.EnvExecDir),
		execID:  os.Getenv(engine.EnvExecID),
		fs:      afero.NewOsFs(),
		l:       zap.NewNop(),
	}
	if v := os.Getenv(engine.EnvCheckpointInterval); v != "" {
		interval, err := parseInterval(v)
		if err != nil {
			return nil, err
		}
		s.interval = interval
	}
	for _, apply := range opts {
		apply(s)
	}

	if s.execDir == "" {
		return nil, status.ErrNoExecDir
	}
	if s.execID == "" {
		s.execID = filepath.Base(s.execDir)
	}
	if s.interval < 0 {
		return nil, status.ErrInvalidInterval.WrapMessage(s.interval.String())
	}
	return s, nil
}

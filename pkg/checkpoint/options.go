package checkpoint

import (
	"time"

	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type settings struct {
	fs            afero.Fs
	root          string
	name          string
	include       []string
	callerSkip    int
	gitDir        string
	archivePrefix string
	now           func() time.Time
	l             *zap.Logger
}

func defaultSettings() *settings {
	return &settings{
		fs:   afero.NewOsFs(),
		root: model.DefaultSnapshotRoot,
		now:  time.Now,
		l:    zap.NewNop(),
	}
}

func newSettings(opts []Option) *settings {
	s := defaultSettings()
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// Option for checkpoint operations
type Option func(*settings)

// Name labels a checkpoint. The name is recorded in metadata and does not alter the checkpoint id.
func Name(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// Include restricts a checkpoint to a subset of the namespace. Names absent from the namespace are ignored.
func Include(names ...string) Option {
	return func(s *settings) {
		s.include = names
	}
}

// Root sets the directory holding checkpoints. Defaults to "snapshots".
func Root(root string) Option {
	return func(s *settings) {
		if root != "" {
			s.root = root
		}
	}
}

// Fs sets the file system. Defaults to the OS file system.
func Fs(fs afero.Fs) Option {
	return func(s *settings) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// CallerSkip skips additional stack frames when recording the caller of Save,
// e.g. when Save is called through a wrapper.
func CallerSkip(skip int) Option {
	return func(s *settings) {
		s.callerSkip = skip
	}
}

// GitDir is the work tree queried for the current commit. Defaults to the current directory.
func GitDir(dir string) Option {
	return func(s *settings) {
		s.gitDir = dir
	}
}

// ArchivePrefix prefixes object keys when pushing to or pulling from a store
func ArchivePrefix(prefix string) Option {
	return func(s *settings) {
		s.archivePrefix = prefix
	}
}

// Logger for checkpoint operations
func Logger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.l = l
		}
	}
}

// Clock overrides the source of timestamps
func Clock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

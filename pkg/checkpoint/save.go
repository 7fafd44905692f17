package checkpoint

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/oneconcern/stele/pkg/capture"
	"github.com/oneconcern/stele/pkg/checkpoint/status"
	"github.com/oneconcern/stele/pkg/hashing"
	"github.com/oneconcern/stele/pkg/metrics"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	usage     *metrics.UsageMetrics
	usageOnce sync.Once
)

func checkpointMetrics() *metrics.UsageMetrics {
	usageOnce.Do(func() {
		usage = metrics.NewUsageMetrics("checkpoint")
	})
	return usage
}

// Save a checkpoint of the values in namespace, and return its id.
//
// The id is the sha256 of the manifest and the encoded values: saving the same
// values twice yields the same id, and the second save leaves the existing
// checkpoint untouched.
func Save(ctx context.Context, executionID string, namespace map[string]interface{}, opts ...Option) (id string, err error) {
	defer func(t0 time.Time) { checkpointMetrics().Used(t0, "save")(err) }(time.Now())

	s := newSettings(opts)
	caller := capture.Caller(1 + s.callerSkip)

	values := selectValues(namespace, s.include)
	if err = validate(values); err != nil {
		return "", err
	}

	names, objects, index, err := encodeObjects(values)
	if err != nil {
		return "", err
	}

	manifestJSON, err := hashing.Canonical(model.NewManifest(names))
	if err != nil {
		return "", status.ErrEncode.Wrap(err)
	}
	metadataJSON, err := hashing.Canonical(model.Metadata{
		Caller:         caller,
		Environment:    capture.Environment(),
		GitCommit:      capture.GitCommit(ctx, s.gitDir),
		ExecutionID:    executionID,
		CheckpointName: s.name,
		Timestamp:      s.now().UTC(),
	})
	if err != nil {
		return "", status.ErrEncode.Wrap(err)
	}
	indexJSON, err := hashing.Canonical(index)
	if err != nil {
		return "", status.ErrEncode.Wrap(err)
	}

	id = hashing.SHA256Hex(concat(manifestJSON, objects))
	files := map[string][]byte{
		model.ManifestFile:    manifestJSON,
		model.MetadataFile:    metadataJSON,
		model.ObjectsFile:     objects,
		model.ObjectIndexFile: indexJSON,
		model.ChecksumFile:    []byte(checksum(manifestJSON, metadataJSON, objects)),
	}

	l := s.l.With(zap.String("checkpoint", id), zap.String("execution", executionID))
	if err = writeAtomic(ctx, s.fs, s.root, id, files, l); err != nil {
		l.Error("checkpoint save failed", zap.Error(err))
		return "", err
	}

	l.Info("checkpoint saved", zap.Int("variables", len(names)), zap.Int("size", len(objects)))
	return id, nil
}

func selectValues(namespace map[string]interface{}, include []string) map[string]interface{} {
	if include == nil {
		values := make(map[string]interface{}, len(namespace))
		for k, v := range namespace {
			values[k] = v
		}
		return values
	}
	values := make(map[string]interface{}, len(include))
	for _, name := range include {
		if v, ok := namespace[name]; ok {
			values[name] = v
		}
	}
	return values
}

func validate(values map[string]interface{}) error {
	var details []UnserializableDetail
	for name, v := range values {
		if reason := checkSafe(v); reason != "" {
			details = append(details, UnserializableDetail{Name: name, Type: typeName(v), Reason: reason})
		}
	}
	if len(details) == 0 {
		return nil
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Name < details[j].Name })
	return &UnserializableError{Details: details}
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func checksum(manifestJSON, metadataJSON, objects []byte) string {
	return hashing.SHA256Hex(concat(manifestJSON, metadataJSON, objects))
}

// writeAtomic writes all files in a staging directory under root, then renames it to root/id.
//
// An existing checkpoint with the same id is kept if it verifies, and replaced otherwise.
func writeAtomic(ctx context.Context, fs afero.Fs, root, id string, files map[string][]byte, l *zap.Logger) error {
	if err := fs.MkdirAll(root, 0755); err != nil {
		return status.ErrAtomicWrite.Wrap(err)
	}

	final := model.GetPathToCheckpoint(root, id)
	var replace bool
	if exists, _ := afero.DirExists(fs, final); exists {
		err := Verify(ctx, final, Fs(fs))
		if err == nil {
			return nil
		}
		l.Warn("replacing inconsistent checkpoint", zap.String("path", final), zap.Error(err))
		replace = true
	}

	tmp, err := afero.TempDir(fs, root, model.TempCheckpointPrefix)
	if err != nil {
		return status.ErrAtomicWrite.Wrap(err)
	}

	for _, name := range model.CheckpointFiles() {
		if err = writeFileSync(fs, filepath.Join(tmp, name), files[name]); err != nil {
			_ = fs.RemoveAll(tmp)
			return status.ErrAtomicWrite.Wrap(err)
		}
	}

	if replace {
		if err = fs.RemoveAll(final); err != nil {
			_ = fs.RemoveAll(tmp)
			return status.ErrAtomicWrite.Wrap(err)
		}
	}

	if err = fs.Rename(tmp, final); err != nil {
		_ = fs.RemoveAll(tmp)
		if exists, _ := afero.DirExists(fs, final); exists {
			// a concurrent save of the same content won the race
			return nil
		}
		return status.ErrAtomicWrite.Wrap(err)
	}
	return nil
}

func writeFileSync(fs afero.Fs, name string, data []byte) error {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

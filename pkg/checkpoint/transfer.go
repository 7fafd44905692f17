package checkpoint

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/oneconcern/stele/pkg/checkpoint/status"
	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/hashing"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/oneconcern/stele/pkg/storage"
	storagestatus "github.com/oneconcern/stele/pkg/storage/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Push copies the checkpoint at dir to remote stores, under keys {prefix}/{checkpoint_id}/{file}.
//
// The checkpoint is verified first. The checksum is uploaded last: a store holding
// the checksum of a checkpoint holds all of it, and such stores are skipped.
func Push(ctx context.Context, dir string, stores []storage.MultiStoreUnit, opts ...Option) (err error) {
	defer func(t0 time.Time) { checkpointMetrics().Used(t0, "push")(err) }(time.Now())
	s := newSettings(opts)
	id := filepath.Base(filepath.Clean(dir))

	if err = Verify(ctx, dir, opts...); err != nil {
		return err
	}

	targets := make([]storage.MultiStoreUnit, 0, len(stores))
	for _, unit := range stores {
		has, erh := unit.Store.Has(ctx, model.GetArchivePathToCheckpointFile(s.archivePrefix, id, model.ChecksumFile))
		if erh != nil {
			if unit.TolerateFailure {
				s.l.Warn("skipping store", zap.Stringer("store", unit.Store), zap.Error(erh))
				continue
			}
			return erh
		}
		if has {
			s.l.Info("checkpoint already pushed", zap.String("checkpoint", id), zap.Stringer("store", unit.Store))
			continue
		}
		targets = append(targets, unit)
	}
	if len(targets) == 0 {
		return nil
	}

	for _, name := range model.CheckpointFiles() {
		b, erf := afero.ReadFile(s.fs, filepath.Join(dir, name))
		if erf != nil {
			return status.ErrCorruptCheckpoint.Wrap(erf)
		}
		key := model.GetArchivePathToCheckpointFile(s.archivePrefix, id, name)
		if err = storage.MultiPut(ctx, targets, key, b, storage.OverWrite); err != nil {
			return err
		}
	}

	s.l.Info("checkpoint pushed", zap.String("checkpoint", id), zap.Int("stores", len(targets)))
	return nil
}

// Pull fetches a checkpoint from a remote store into the root directory, and returns its local path.
//
// The fetched checkpoint is verified in a staging directory before being renamed into place.
// Pulling a checkpoint already present locally is a no-op.
func Pull(ctx context.Context, id string, store storage.Store, opts ...Option) (dir string, err error) {
	defer func(t0 time.Time) { checkpointMetrics().Used(t0, "pull")(err) }(time.Now())
	s := newSettings(opts)
	dir = model.GetPathToCheckpoint(s.root, id)

	if exists, _ := afero.DirExists(s.fs, dir); exists {
		return dir, nil
	}

	files := make(map[string][]byte, len(model.CheckpointFiles()))
	for _, name := range model.CheckpointFiles() {
		b, erg := fetch(ctx, store, model.GetArchivePathToCheckpointFile(s.archivePrefix, id, name))
		if erg != nil {
			if errors.Is(erg, storagestatus.ErrNotExists) {
				if name == model.ChecksumFile || name == model.ManifestFile {
					return "", status.ErrNotFound.WrapMessage(id)
				}
				return "", status.ErrCorruptCheckpoint.Wrap(erg)
			}
			return "", erg
		}
		files[name] = b
	}

	c := &loaded{
		manifest: files[model.ManifestFile],
		metadata: files[model.MetadataFile],
		objects:  files[model.ObjectsFile],
		index:    files[model.ObjectIndexFile],
		checksum: string(bytes.TrimSpace(files[model.ChecksumFile])),
	}
	if err = c.verify(); err != nil {
		return "", status.ErrChecksumMismatch.WrapMessage(id)
	}
	if hashing.SHA256Hex(concat(c.manifest, c.objects)) != id {
		return "", status.ErrChecksumMismatch.WrapMessage("content does not match checkpoint id " + id)
	}

	if err = writeAtomic(ctx, s.fs, s.root, id, files, s.l); err != nil {
		return "", err
	}
	if err = Verify(ctx, dir, opts...); err != nil {
		return "", err
	}

	s.l.Info("checkpoint pulled", zap.String("checkpoint", id), zap.Stringer("store", store))
	return dir, nil
}

func fetch(ctx context.Context, store storage.Store, key string) ([]byte, error) {
	rdr, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	return io.ReadAll(rdr)
}

package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oneconcern/stele/pkg/checkpoint/status"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// loaded holds the raw files of a checkpoint
type loaded struct {
	manifest []byte
	metadata []byte
	objects  []byte
	index    []byte
	checksum string
}

func load(fs afero.Fs, dir string) (*loaded, error) {
	read := func(name string) ([]byte, error) {
		b, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, status.ErrCorruptCheckpoint.WrapMessage("missing " + name + " in " + dir)
			}
			return nil, status.ErrCorruptCheckpoint.Wrap(err)
		}
		return b, nil
	}

	var (
		c   loaded
		err error
		sum []byte
	)
	if c.manifest, err = read(model.ManifestFile); err != nil {
		return nil, err
	}
	if c.metadata, err = read(model.MetadataFile); err != nil {
		return nil, err
	}
	if c.objects, err = read(model.ObjectsFile); err != nil {
		return nil, err
	}
	if c.index, err = read(model.ObjectIndexFile); err != nil {
		return nil, err
	}
	if sum, err = read(model.ChecksumFile); err != nil {
		return nil, err
	}
	c.checksum = strings.TrimSpace(string(sum))
	return &c, nil
}

func (c *loaded) verify() error {
	if checksum(c.manifest, c.metadata, c.objects) != c.checksum {
		return status.ErrChecksumMismatch
	}
	return nil
}

// Restore loads the values saved in the checkpoint at dir into target, each name prefixed by prefix.
//
// The checkpoint checksum is verified before anything is decoded. The restored names are returned in sorted order.
func Restore(ctx context.Context, dir string, target map[string]interface{}, prefix string, opts ...Option) (restored []string, err error) {
	defer func(t0 time.Time) { checkpointMetrics().Used(t0, "restore")(err) }(time.Now())
	s := newSettings(opts)

	c, err := load(s.fs, dir)
	if err != nil {
		return nil, err
	}
	if err = c.verify(); err != nil {
		return nil, status.ErrChecksumMismatch.WrapMessage(dir)
	}

	manifest, err := model.UnmarshalManifest(c.manifest)
	if err != nil {
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}
	index, err := model.UnmarshalObjectIndex(c.index)
	if err != nil {
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}

	// decode everything before touching target
	values := make(map[string]interface{}, len(manifest.Variables))
	for _, name := range manifest.Variables {
		ref, ok := index[name]
		if !ok {
			return nil, status.ErrCorruptCheckpoint.WrapMessage("variable not indexed: " + name)
		}
		v, err := decodeObject(name, c.objects, ref)
		if err != nil {
			return nil, err
		}
		values[name] = v
	}

	restored = make([]string, 0, len(manifest.Variables))
	for _, name := range manifest.Variables {
		target[prefix+name] = values[name]
		restored = append(restored, prefix+name)
	}

	s.l.Info("checkpoint restored", zap.String("path", dir), zap.Int("variables", len(restored)))
	return restored, nil
}

// Verify the integrity of the checkpoint at dir, without restoring values
func Verify(ctx context.Context, dir string, opts ...Option) (err error) {
	defer func(t0 time.Time) { checkpointMetrics().Used(t0, "verify")(err) }(time.Now())
	s := newSettings(opts)

	c, err := load(s.fs, dir)
	if err != nil {
		return err
	}
	if err = c.verify(); err != nil {
		return status.ErrChecksumMismatch.WrapMessage(dir)
	}
	manifest, err := model.UnmarshalManifest(c.manifest)
	if err != nil {
		return status.ErrCorruptCheckpoint.Wrap(err)
	}
	if _, err = model.UnmarshalMetadata(c.metadata); err != nil {
		return status.ErrCorruptCheckpoint.Wrap(err)
	}
	index, err := model.UnmarshalObjectIndex(c.index)
	if err != nil {
		return status.ErrCorruptCheckpoint.Wrap(err)
	}
	for _, name := range manifest.Variables {
		ref, ok := index[name]
		if !ok {
			return status.ErrCorruptCheckpoint.WrapMessage("variable not indexed: " + name)
		}
		if _, err = decodeObject(name, c.objects, ref); err != nil {
			return err
		}
	}
	return nil
}

// ReadMetadata reads the metadata record of the checkpoint at dir
func ReadMetadata(dir string, opts ...Option) (*model.Metadata, error) {
	s := newSettings(opts)
	b, err := afero.ReadFile(s.fs, filepath.Join(dir, model.MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotFound.WrapMessage(dir)
		}
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}
	m, err := model.UnmarshalMetadata(b)
	if err != nil {
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}
	return m, nil
}

// ReadManifest reads the manifest of the checkpoint at dir
func ReadManifest(dir string, opts ...Option) (*model.Manifest, error) {
	s := newSettings(opts)
	b, err := afero.ReadFile(s.fs, filepath.Join(dir, model.ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotFound.WrapMessage(dir)
		}
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}
	m, err := model.UnmarshalManifest(b)
	if err != nil {
		return nil, status.ErrCorruptCheckpoint.Wrap(err)
	}
	return m, nil
}

package checkpoint

import (
	"os"
	"sort"

	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// List the checkpoints stored under the root directory, most recent first.
//
// Staging directories are skipped, as well as directories without a readable metadata record.
// A missing root yields an empty list.
func List(opts ...Option) (model.Summaries, error) {
	s := newSettings(opts)

	entries, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Summaries{}, nil
		}
		return nil, err
	}

	summaries := make(model.Summaries, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || model.IsTempCheckpoint(entry.Name()) {
			continue
		}
		dir := model.GetPathToCheckpoint(s.root, entry.Name())
		m, err := ReadMetadata(dir, Fs(s.fs))
		if err != nil {
			s.l.Warn("skipping checkpoint directory", zap.String("path", dir), zap.Error(err))
			continue
		}
		summaries = append(summaries, model.Summary{
			ID:       entry.Name(),
			Path:     dir,
			Metadata: *m,
		})
	}
	sort.Sort(summaries)
	return summaries, nil
}

// Latest returns the most recent checkpoint under the root directory, or nil when there is none
func Latest(opts ...Option) (*model.Summary, error) {
	summaries, err := List(opts...)
	if err != nil || len(summaries) == 0 {
		return nil, err
	}
	return &summaries[0], nil
}

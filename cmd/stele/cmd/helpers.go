package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/oneconcern/stele/pkg/config"
	"github.com/oneconcern/stele/pkg/engine"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/oneconcern/stele/pkg/storage"
	"github.com/oneconcern/stele/pkg/storage/remote"
)

const latestCheckpoint = "latest"

// outputTemplate is the template provided with --format, or the default one
func outputTemplate(name, defaultTemplate string) (*template.Template, error) {
	if steleFlags.core.Template != "" {
		return template.New(name).Parse(steleFlags.core.Template)
	}
	return template.Must(template.New(name).Parse(defaultTemplate)), nil
}

func applyTemplate(t *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return err
	}
	logStdOut("%s\n", buf.String())
	return nil
}

// currentConfig is a copy of the config in effect
func currentConfig() *config.Config {
	cfg := config.Default()
	if cliConfig != nil {
		*cfg = *cliConfig
	}
	return cfg
}

func newEngine() (*engine.Engine, error) {
	return engine.New(engine.BaseDir(steleFlags.core.ExecRoot), engine.Logger(logger))
}

func checkpointOptions() []checkpoint.Option {
	return []checkpoint.Option{
		checkpoint.Root(steleFlags.core.SnapshotRoot),
		checkpoint.ArchivePrefix(steleFlags.checkpoint.ArchivePrefix),
		checkpoint.Logger(logger),
	}
}

// resolveCheckpoint finds the directory of a checkpoint from an id, a path or "latest"
func resolveCheckpoint(arg string) (string, error) {
	if arg == latestCheckpoint {
		summary, err := checkpoint.Latest(checkpointOptions()...)
		if err != nil {
			return "", err
		}
		if summary == nil {
			return "", errNoCheckpoint
		}
		return summary.Path, nil
	}
	if _, err := os.Stat(filepath.Join(arg, model.ManifestFile)); err == nil {
		return filepath.Clean(arg), nil
	}
	return model.GetPathToCheckpoint(steleFlags.core.SnapshotRoot, arg), nil
}

// openRemotes opens the stores in a comma-separated list of locations.
//
// Only the first store is required to accept writes when failures are tolerated.
func openRemotes(locations string) ([]storage.MultiStoreUnit, error) {
	var units []storage.MultiStoreUnit
	for _, location := range strings.Split(locations, ",") {
		location = strings.TrimSpace(location)
		if location == "" {
			continue
		}
		store, err := remote.Open(location, remote.Logger(logger))
		if err != nil {
			return nil, err
		}
		units = append(units, storage.MultiStoreUnit{
			Store:           store,
			TolerateFailure: steleFlags.checkpoint.TolerateFailed && len(units) > 0,
		})
	}
	if len(units) == 0 {
		return nil, errNoRemote
	}
	return units, nil
}

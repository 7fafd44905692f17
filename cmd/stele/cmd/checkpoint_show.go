package cmd

import (
	"os"
	"path/filepath"
	"time"

	units "github.com/docker/go-units"
	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

type checkpointDescriptor struct {
	ID        string         `json:"id" yaml:"id"`
	Path      string         `json:"path" yaml:"path"`
	Size      string         `json:"size" yaml:"size"`
	Variables []string       `json:"variables" yaml:"variables"`
	Metadata  model.Metadata `json:"metadata" yaml:"metadata"`
}

func describeCheckpoint(dir string) (*checkpointDescriptor, error) {
	md, err := checkpoint.ReadMetadata(dir)
	if err != nil {
		return nil, err
	}
	manifest, err := checkpoint.ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	var size int64
	for _, name := range model.CheckpointFiles() {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		size += info.Size()
	}
	return &checkpointDescriptor{
		ID:        filepath.Base(dir),
		Path:      dir,
		Size:      units.HumanSize(float64(size)),
		Variables: manifest.Variables,
		Metadata:  *md,
	}, nil
}

var checkpointShow = &cobra.Command{
	Use:   "show CHECKPOINT",
	Short: "Show a checkpoint",
	Long:  `Show the metadata record and the variables of a checkpoint.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "checkpoint show", err)
		}(time.Now())

		dir, err := resolveCheckpoint(args[0])
		if err != nil {
			wrapFatalln("resolve checkpoint", err)
			return
		}
		desc, err := describeCheckpoint(dir)
		if err != nil {
			wrapFatalln("read checkpoint", err)
			return
		}

		if steleFlags.core.Template != "" {
			t, ert := outputTemplate("checkpoint", "")
			if ert != nil {
				err = ert
				wrapFatalln("invalid template", err)
				return
			}
			if err = applyTemplate(t, desc); err != nil {
				wrapFatalln("executing template", err)
			}
			return
		}

		b, err := yaml.Marshal(desc)
		if err != nil {
			wrapFatalln("serialize checkpoint", err)
			return
		}
		logStdOut("%s", string(b))
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointShow)
}

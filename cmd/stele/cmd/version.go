package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

const versionTemplate = `Version: {{.Version}}
Build date: {{.BuildDate}}
Commit: {{.GitCommit}}
Working tree: {{.GitState}}
Go: {{.GoVersion}}`

// VersionInfo describes the build of the stele binary
type VersionInfo struct {
	Version   string `json:"version,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

// NewVersionInfo builds the version info of this binary
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitState:  GitState,
		GoVersion: runtime.Version(),
	}
	if Version == "" {
		return ver
	}
	ver.Version = Version
	if ver.GitState == "" {
		ver.GitState = "clean"
	}
	return ver
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints the version of stele",
	Long: `Prints the version of stele: the semver tag, the build date,
the git commit the binary was built from and whether the working tree was dirty.

The output may be customized with --format, e.g.:

	stele version --format '{{.Version}}'
`,
	Run: func(cmd *cobra.Command, args []string) {
		tpl, err := outputTemplate("version", versionTemplate)
		if err != nil {
			wrapFatalln("invalid output template", err)
			return
		}
		if err := applyTemplate(tpl, NewVersionInfo()); err != nil {
			wrapFatalln("could not render version", err)
		}
	},
}

func init() {
	addTemplateFlag(versionCmd)
	rootCmd.AddCommand(versionCmd)
}

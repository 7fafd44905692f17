// Package capture records the context in which a checkpoint is taken:
// caller location, process environment and source revision.
package capture

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/oneconcern/stele/pkg/model"
)

const (
	// GitCommitEnv overrides the git commit detection, e.g. for binaries deployed without a work tree
	GitCommitEnv = "STELE_GIT_COMMIT"

	// UnknownCommit is reported when no source revision can be resolved
	UnknownCommit = "unknown"

	gitTimeout = 5 * time.Second
)

// Caller reports the location of the function skip frames above the caller of Caller.
//
// Caller(0) is the function calling Caller.
func Caller(skip int) model.Caller {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return model.Caller{File: "unknown", Function: "unknown"}
	}
	fn := "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
	}
	return model.Caller{
		File:     file,
		Function: fn,
		Line:     line,
	}
}

// Environment describes the current process
func Environment() model.Environment {
	hostname, _ := os.Hostname()
	return model.Environment{
		InterpreterVersion: runtime.Version(),
		ProcessID:          os.Getpid(),
		OS:                 runtime.GOOS,
		Arch:               runtime.GOARCH,
		Hostname:           hostname,
	}
}

// GitCommit resolves the source revision of the work tree at dir.
//
// The lookup honors STELE_GIT_COMMIT, then asks git. An empty dir means the current directory.
func GitCommit(ctx context.Context, dir string) string {
	if commit := strings.TrimSpace(os.Getenv(GitCommitEnv)); commit != "" {
		return commit
	}

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return UnknownCommit
	}
	commit := strings.TrimSpace(string(out))
	if commit == "" {
		return UnknownCommit
	}
	return commit
}

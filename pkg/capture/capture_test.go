package capture

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helperCaller() (string, int) {
	c := Caller(1)
	return c.Function, c.Line
}

func TestCaller(t *testing.T) {
	c := Caller(0)
	assert.True(t, strings.HasSuffix(c.File, "capture_test.go"), c.File)
	assert.True(t, strings.HasSuffix(c.Function, "TestCaller"), c.Function)
	assert.Greater(t, c.Line, 0)

	fn, _ := helperCaller()
	assert.True(t, strings.HasSuffix(fn, "TestCaller"), fn)

	unknown := Caller(1000)
	assert.Equal(t, "unknown", unknown.File)
}

func TestEnvironment(t *testing.T) {
	env := Environment()
	assert.Equal(t, runtime.Version(), env.InterpreterVersion)
	assert.Equal(t, os.Getpid(), env.ProcessID)
	assert.Equal(t, runtime.GOOS, env.OS)
}

func TestGitCommitOverride(t *testing.T) {
	t.Setenv(GitCommitEnv, " 0123456789abcdef ")
	assert.Equal(t, "0123456789abcdef", GitCommit(context.Background(), ""))
}

func TestGitCommitOutsideWorkTree(t *testing.T) {
	t.Setenv(GitCommitEnv, "")
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	commit := GitCommit(context.Background(), dir)
	require.NotEmpty(t, commit)
	assert.Equal(t, UnknownCommit, commit)
}

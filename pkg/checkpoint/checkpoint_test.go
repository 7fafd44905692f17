package checkpoint

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oneconcern/stele/pkg/checkpoint/status"
	"github.com/oneconcern/stele/pkg/errors"
	"github.com/oneconcern/stele/pkg/model"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testExecID = "execution-20240101T000000-0badcafe"
	testCommit = "0123456789abcdef0123456789abcdef01234567"
)

func testNamespace() map[string]interface{} {
	return map[string]interface{}{
		"a": 1,
		"b": "hello",
		"c": []interface{}{1.5, "x", nil},
		"d": map[string]interface{}{"k": true, "n": []int{1, 2}},
		"e": []byte("raw"),
		"f": uint8(3),
		"g": nil,
	}
}

func setupRoot(t testing.TB) string {
	t.Helper()
	t.Setenv("STELE_GIT_COMMIT", testCommit)
	return filepath.Join(t.TempDir(), model.DefaultSnapshotRoot)
}

func rootEntries(t testing.TB, root string) []string {
	t.Helper()
	entries, err := afero.ReadDir(afero.NewOsFs(), root)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSaveRestore(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()

	id, err := Save(ctx, testExecID, testNamespace(), Root(root))
	require.NoError(t, err)
	require.Len(t, id, 64)

	dir := model.GetPathToCheckpoint(root, id)
	for _, name := range model.CheckpointFiles() {
		exists, erx := afero.Exists(afero.NewOsFs(), filepath.Join(dir, name))
		require.NoError(t, erx)
		assert.Truef(t, exists, "expected %s in checkpoint", name)
	}

	target := map[string]interface{}{"untouched": true}
	restored, err := Restore(ctx, dir, target, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, restored)

	assert.Equal(t, int64(1), target["a"])
	assert.Equal(t, "hello", target["b"])
	assert.Equal(t, []interface{}{1.5, "x", nil}, target["c"])
	assert.Equal(t, map[string]interface{}{"k": true, "n": []interface{}{int64(1), int64(2)}}, target["d"])
	assert.Equal(t, []byte("raw"), target["e"])
	assert.Equal(t, uint64(3), target["f"])
	assert.Nil(t, target["g"])
	assert.Equal(t, true, target["untouched"])

	t.Run("with prefix", func(t *testing.T) {
		target := map[string]interface{}{}
		restored, err := Restore(ctx, dir, target, "ckpt_")
		require.NoError(t, err)
		assert.Contains(t, restored, "ckpt_a")
		assert.Equal(t, "hello", target["ckpt_b"])
		assert.NotContains(t, target, "a")
	})

	require.NoError(t, Verify(ctx, dir))
}

func TestSaveDeterministic(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()

	id1, err := Save(ctx, testExecID, testNamespace(), Root(root), Name("first"))
	require.NoError(t, err)
	id2, err := Save(ctx, "execution-20240101T000001-00000000", testNamespace(), Root(root), Name("second"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// the first save wins
	m, err := ReadMetadata(model.GetPathToCheckpoint(root, id1))
	require.NoError(t, err)
	assert.Equal(t, "first", m.CheckpointName)
	assert.Equal(t, []string{id1}, rootEntries(t, root))

	ns := testNamespace()
	ns["b"] = "hellO"
	id3, err := Save(ctx, testExecID, ns, Root(root))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestSaveReplacesInconsistent(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()
	fs := afero.NewOsFs()

	id, err := Save(ctx, testExecID, testNamespace(), Root(root))
	require.NoError(t, err)
	dir := model.GetPathToCheckpoint(root, id)

	t.Run("partial directory", func(t *testing.T) {
		require.NoError(t, fs.Remove(filepath.Join(dir, model.ObjectsFile)))
		require.Error(t, Verify(ctx, dir))

		again, err := Save(ctx, testExecID, testNamespace(), Root(root))
		require.NoError(t, err)
		assert.Equal(t, id, again)
		require.NoError(t, Verify(ctx, dir))
		assert.Equal(t, []string{id}, rootEntries(t, root))
	})

	t.Run("corrupted objects", func(t *testing.T) {
		pth := filepath.Join(dir, model.ObjectsFile)
		b, err := afero.ReadFile(fs, pth)
		require.NoError(t, err)
		b[0] ^= 0xff
		require.NoError(t, afero.WriteFile(fs, pth, b, 0644))

		_, err = Save(ctx, testExecID, testNamespace(), Root(root))
		require.NoError(t, err)
		require.NoError(t, Verify(ctx, dir))

		target := map[string]interface{}{}
		restored, err := Restore(ctx, dir, target, "")
		require.NoError(t, err)
		assert.Len(t, restored, len(testNamespace()))
		assert.Equal(t, "hello", target["b"])
	})
}

func TestSaveInclude(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()

	id, err := Save(ctx, testExecID, testNamespace(), Root(root), Include("b", "a", "missing"))
	require.NoError(t, err)

	dir := model.GetPathToCheckpoint(root, id)
	manifest, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, model.CurrentSchema, manifest.Schema)
	assert.Equal(t, []string{"a", "b"}, manifest.Variables)

	target := map[string]interface{}{}
	restored, err := Restore(ctx, dir, target, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, restored)
	assert.Len(t, target, 2)
}

func TestSaveUnserializable(t *testing.T) {
	root := setupRoot(t)

	ns := testNamespace()
	ns["fn"] = func() {}
	ns["st"] = struct{ X int }{X: 1}
	ns["badmap"] = map[int]string{1: "x"}
	ns["nested"] = []interface{}{1, make(chan int)}

	_, err := Save(context.Background(), testExecID, ns, Root(root))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrUnserializable))

	var uerr *UnserializableError
	require.True(t, errors.As(err, &uerr))
	require.Len(t, uerr.Details, 4)

	names := make([]string, 0, len(uerr.Details))
	for _, d := range uerr.Details {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Type)
		assert.NotEmpty(t, d.Reason)
	}
	assert.Equal(t, []string{"badmap", "fn", "nested", "st"}, names)
	assert.Contains(t, uerr.Details[0].Reason, "map key must be a string")
	assert.Contains(t, uerr.Details[2].Reason, "[1]")
	assert.Contains(t, err.Error(), "  - fn: func()")

	// nothing was written
	exists, err := afero.DirExists(afero.NewOsFs(), root)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMetadataRecord(t *testing.T) {
	root := setupRoot(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	id, err := Save(context.Background(), testExecID, testNamespace(), Root(root), Name("named"), Clock(func() time.Time { return now }))
	require.NoError(t, err)

	b, err := afero.ReadFile(afero.NewOsFs(), model.GetPathToMetadata(root, id))
	require.NoError(t, err)

	// readable by any JSON parser
	var generic map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(b, &generic))
	for _, key := range []string{"caller", "environment", "git_commit"} {
		assert.Containsf(t, generic, key, "expected top-level key %q", key)
	}
	environment, ok := generic["environment"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, environment, "interpreter_version")
	assert.Contains(t, environment, "process_id")

	m, err := ReadMetadata(model.GetPathToCheckpoint(root, id))
	require.NoError(t, err)
	assert.Equal(t, testCommit, m.GitCommit)
	assert.Equal(t, testExecID, m.ExecutionID)
	assert.Equal(t, "named", m.CheckpointName)
	assert.True(t, now.Equal(m.Timestamp))
	assert.True(t, strings.HasSuffix(m.Caller.File, "checkpoint_test.go"))
	assert.Contains(t, m.Caller.Function, "TestMetadataRecord")
	assert.NotZero(t, m.Caller.Line)
}

func TestRestoreCorrupted(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()
	fs := afero.NewOsFs()

	corrupt := func(t *testing.T, file string, mutate func([]byte) []byte) string {
		id, err := Save(ctx, testExecID, testNamespace(), Root(root))
		require.NoError(t, err)
		dir := model.GetPathToCheckpoint(root, id)
		pth := filepath.Join(dir, file)
		b, err := afero.ReadFile(fs, pth)
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, pth, mutate(b), 0644))
		t.Cleanup(func() { _ = fs.RemoveAll(dir) })
		return dir
	}
	flip := func(b []byte) []byte {
		b[len(b)/2] ^= 0x01
		return b
	}

	for _, file := range []string{model.ObjectsFile, model.ManifestFile, model.MetadataFile, model.ChecksumFile} {
		name := file
		t.Run("single byte in "+name, func(t *testing.T) {
			dir := corrupt(t, name, flip)
			target := map[string]interface{}{}
			_, err := Restore(ctx, dir, target, "")
			require.Error(t, err)
			assert.Truef(t, errors.Is(err, status.ErrChecksumMismatch), "unexpected error: %v", err)
			assert.Empty(t, target)
			assert.True(t, errors.Is(Verify(ctx, dir), status.ErrChecksumMismatch))
		})
	}

	t.Run("object digest", func(t *testing.T) {
		dir := corrupt(t, model.ObjectIndexFile, func(b []byte) []byte {
			var idx model.ObjectIndex
			require.NoError(t, jsoniter.Unmarshal(b, &idx))
			ref := idx["b"]
			ref.Digest = strings.Repeat("0", 64)
			idx["b"] = ref
			out, err := jsoniter.Marshal(idx)
			require.NoError(t, err)
			return out
		})
		_, err := Restore(ctx, dir, map[string]interface{}{}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrChecksumMismatch))
	})

	t.Run("missing file", func(t *testing.T) {
		id, err := Save(ctx, testExecID, testNamespace(), Root(root))
		require.NoError(t, err)
		dir := model.GetPathToCheckpoint(root, id)
		require.NoError(t, fs.Remove(filepath.Join(dir, model.ObjectsFile)))
		t.Cleanup(func() { _ = fs.RemoveAll(dir) })

		_, err = Restore(ctx, dir, map[string]interface{}{}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, status.ErrCorruptCheckpoint))
	})
}

type failingRenameFs struct {
	afero.Fs
}

func (failingRenameFs) Rename(_, _ string) error {
	return fmt.Errorf("injected rename failure")
}

func TestSaveAtomicFailure(t *testing.T) {
	root := setupRoot(t)

	_, err := Save(context.Background(), testExecID, testNamespace(), Root(root), Fs(failingRenameFs{Fs: afero.NewOsFs()}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrAtomicWrite))

	// no final directory, no leftover staging area
	assert.Empty(t, rootEntries(t, root))
}

func TestList(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()
	fs := afero.NewOsFs()

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	idOld, err := Save(ctx, testExecID, map[string]interface{}{"x": 1}, Root(root), Clock(func() time.Time { return older }))
	require.NoError(t, err)
	idNew, err := Save(ctx, testExecID, map[string]interface{}{"x": 2}, Root(root), Clock(func() time.Time { return newer }))
	require.NoError(t, err)

	require.NoError(t, fs.MkdirAll(filepath.Join(root, model.TempCheckpointPrefix+"leftover"), 0755))
	require.NoError(t, fs.MkdirAll(filepath.Join(root, "not-a-checkpoint"), 0755))

	summaries, err := List(Root(root))
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, idNew, summaries[0].ID)
	assert.Equal(t, idOld, summaries[1].ID)
	assert.Equal(t, model.GetPathToCheckpoint(root, idNew), summaries[0].Path)

	latest, err := Latest(Root(root))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, idNew, latest.ID)

	empty, err := List(Root(filepath.Join(root, "nowhere")))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

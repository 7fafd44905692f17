package model

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// DefaultSnapshotRoot is where checkpoints are stored, relative to the working directory
	DefaultSnapshotRoot = "snapshots"

	// DefaultExecRoot is where executions are tracked, relative to the working directory
	DefaultExecRoot = ".stele"

	// checkpoint files
	ManifestFile    = "manifest.json"
	MetadataFile    = "metadata.json"
	ObjectsFile     = "objects.bin"
	ObjectIndexFile = "objects.idx"
	ChecksumFile    = "checksum.sha256"

	// TempCheckpointPrefix prefixes the staging directories of checkpoints being written
	TempCheckpointPrefix = "_ckpt_"

	// execution files
	ExecMetaFile      = "meta.json"
	ExecPIDFile       = "pid"
	ExecAuditFile     = "audit.log"
	ExecStdoutFile    = "stdout.log"
	ExecStderrFile    = "stderr.log"
	ExecCheckpointDir = "checkpoints"
	ExecCheckpointRef = "checkpoint.ref"

	lockSuffix = ".lock"
	tmpSuffix  = ".tmp"
)

// CheckpointFiles enumerates the files making up a checkpoint
func CheckpointFiles() []string {
	return []string{ManifestFile, MetadataFile, ObjectsFile, ObjectIndexFile, ChecksumFile}
}

// GetPathToCheckpoint returns the directory of a checkpoint
func GetPathToCheckpoint(root, checkpointID string) string {
	return filepath.Join(root, checkpointID)
}

// GetPathToMetadata returns the path to the metadata record of a checkpoint
func GetPathToMetadata(root, checkpointID string) string {
	return filepath.Join(root, checkpointID, MetadataFile)
}

// GetArchivePathToCheckpointFile returns the object key of a checkpoint file in a remote store.
//
// Keys always use forward slashes: {prefix}/{checkpoint_id}/{file}
func GetArchivePathToCheckpointFile(prefix, checkpointID, file string) string {
	if prefix == "" {
		return path.Join(checkpointID, file)
	}
	return path.Join(strings.Trim(prefix, "/"), checkpointID, file)
}

// IsTempCheckpoint tells if a directory name is a checkpoint staging area
func IsTempCheckpoint(name string) bool {
	return strings.HasPrefix(name, TempCheckpointPrefix)
}

// GetPathToExec returns the directory of an execution
func GetPathToExec(root, execID string) string {
	return filepath.Join(root, execID)
}

// GetPathToExecFile returns the path to some file in the directory of an execution
func GetPathToExecFile(root, execID, file string) string {
	return filepath.Join(root, execID, file)
}

// LockPath returns the path of the advisory lock guarding a file
func LockPath(p string) string {
	return p + lockSuffix
}

// TempPath returns the path of the staging file used to atomically replace a file
func TempPath(p string) string {
	return p + tmpSuffix
}

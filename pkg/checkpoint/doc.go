// Package checkpoint saves and restores snapshots of named values.
//
// A checkpoint is a directory named after its content hash, holding:
//
//	manifest.json    the sorted list of saved variables
//	metadata.json    caller, environment and git commit at save time
//	objects.bin      msgpack-encoded values, concatenated in manifest order
//	objects.idx      offset, length and blake2b digest of each value
//	checksum.sha256  sha256 over manifest, metadata and objects
//
// Checkpoints are written in a staging directory, then renamed into place:
// readers never observe a partially written checkpoint.
//
// Only plain data may be saved: nil, booleans, numbers, strings, byte slices,
// and slices or string-keyed maps of such values.
package checkpoint

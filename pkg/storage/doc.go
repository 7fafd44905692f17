// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// Checkpoints are pushed to and pulled from such stores, one object per checkpoint file.
//
// This package supports the following backends:
//   - S3 (AWS)
//   - local file system
package storage

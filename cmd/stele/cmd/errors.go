package cmd

import "github.com/oneconcern/stele/pkg/errors"

var (
	errNoCheckpoint = errors.New("no checkpoint found")
	errNoRemote     = errors.New("no remote store: use --remote or set remote in the config")
)

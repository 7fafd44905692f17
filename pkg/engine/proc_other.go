//go:build !unix

package engine

import (
	"os"
	"os/exec"

	"github.com/oneconcern/stele/pkg/engine/status"
)

const signalsSupported = false

func configureCommand(_ *exec.Cmd) {}

func isAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

func processState(_ int) procState {
	return procUnknown
}

func stopProcess(_ int) error {
	return status.ErrSignal.WrapMessage("SIGSTOP is not supported on this system")
}

func continueProcess(_ int) error {
	return status.ErrSignal.WrapMessage("SIGCONT is not supported on this system")
}

func killProcess(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return p.Kill()
}

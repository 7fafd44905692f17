//go:build unix

package engine

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

const signalsSupported = true

// configureCommand starts the process in its own group, so that signals reach its children too
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func isAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

func signalProcess(pid int, sig unix.Signal) error {
	if pgid, err := unix.Getpgid(pid); err == nil && pgid == pid {
		return unix.Kill(-pid, sig)
	}
	return unix.Kill(pid, sig)
}

func stopProcess(pid int) error {
	return signalProcess(pid, unix.SIGSTOP)
}

func continueProcess(pid int) error {
	return signalProcess(pid, unix.SIGCONT)
}

func killProcess(pid int) error {
	err := signalProcess(pid, unix.SIGKILL)
	if err == unix.ESRCH {
		return nil
	}
	return err
}

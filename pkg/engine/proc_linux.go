//go:build linux

package engine

import "github.com/prometheus/procfs"

func processState(pid int) procState {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return procUnknown
	}
	p, err := fs.Proc(pid)
	if err != nil {
		return procUnknown
	}
	stat, err := p.Stat()
	if err != nil {
		return procUnknown
	}
	switch stat.State {
	case "T", "t":
		return procStopped
	case "Z", "X":
		return procZombie
	default:
		return procRunning
	}
}

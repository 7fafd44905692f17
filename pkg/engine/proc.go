package engine

type procState int

const (
	procUnknown procState = iota
	procRunning
	procStopped
	procZombie
)

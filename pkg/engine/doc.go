// Package engine is a minimal durable execution engine.
//
// The engine runs a command as a child process and tracks it in a per-execution directory:
//
//	.stele/<exec_id>/meta.json    execution descriptor
//	.stele/<exec_id>/pid          process id
//	.stele/<exec_id>/audit.log    append-only lifecycle events
//	.stele/<exec_id>/stdout.log   process output
//	.stele/<exec_id>/stderr.log   process errors
//
// Executions may be paused (SIGSTOP), resumed (SIGCONT) and killed. A process which
// is gone cannot be restarted: the child is expected to resume from its own checkpoints
// (see package task).
//
// On systems without POSIX signals, pause and resume are recorded as skipped.
package engine

// Package model describes the base objects manipulated by stele.
//
// The object model for stele is composed of:
//
//  Checkpoints:
//    A checkpoint is a point in time, read-only snapshot of named values, stored in
//    a directory named after its content address. A checkpoint comes with a manifest
//    (the list of saved variables), an object index, a checksum and a metadata record.
//
//  Metadata:
//    The capture context of a checkpoint: caller location, environment and source revision.
//
//  Executions:
//    An execution is a child process launched and tracked by the engine. Its state, pid and
//    audit log are kept in a directory named after the execution id.
//
//  Audit log:
//    An append-only log of the events which occurred during an execution.
package model

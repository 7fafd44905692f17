/*
Package stele provides CLI tooling to checkpoint program state and to run
durable executions.

A checkpoint is a content-addressed snapshot of named values, stored with a
metadata record telling where and how it was taken. Executions are child
processes launched by the stele engine, which keeps their state, pid and an
append-only audit log under a per-execution directory.
*/
package stele

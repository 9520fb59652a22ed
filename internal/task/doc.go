// Package task runs the background task lifecycle.
//
// A Watcher turns task-creation events into jobs on a bounded JobQueue. A
// WorkerPool drains the queue and hands each job to the Executor, which owns
// the pending -> processing -> completed|failed state machine. The
// task-type-specific work is done by a Handler; the audio handler generates
// speech for a post and writes the artifact URL back to it.
package task

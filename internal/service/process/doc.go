// Package process owns the single managed server process.
//
// A Controller holds one slot: whether a process is running, the write end
// of its stdin and a handle to the supervisor goroutine that waits for it.
// Start and Stop check and mutate the slot under one mutex, so concurrent
// callers never spawn two processes. The supervisor waits without the lock
// and clears the slot when the process exits on its own.
package process

// Package client implements the networked store.IGroupStore handle used
// by every group member. A handle owns exactly one TCP connection to the
// coordination daemon, created at construction and kept for the handle's
// entire lifetime.
//
// All operations are synchronous request/response exchanges on that one
// connection, with no pipelining. Wait (and therefore Get, which waits on
// its key first) blocks in the reply read until the daemon sends
// STOP_WAITING - immediately if all keys are present, otherwise whenever
// another member's set completes the rendezvous. There is no wait timeout
// and no cancellation; the configured client timeout bounds only the dial
// and request writes.
//
// Failures are surfaced synchronously as typed store errors: protocol
// violations, connection failures, and the daemon terminating (which every
// still-connected member observes on its next call).
package client

// Package group bundles daemon and client into the canonical bootstrap
// sequence of a rendezvous group: the member with rank 0 hosts the
// coordination daemon, every member connects exactly one store client,
// and tearing the host down joins the daemon after closing its client.
//
// The package exists for the common case where all members run the same
// program and only differ by rank. Processes that need finer control
// (separate daemon host, custom timeouts, socket tuning) use the daemon
// and client packages directly.
package group

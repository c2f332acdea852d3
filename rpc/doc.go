// Package rpc provides the communication layer of the group rendezvous
// store: the coordination daemon, the per-member store client and the
// byte-level protocol they share.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures used across the RPC system, including
//     the operation tags of the wire protocol, the daemon and client
//     configuration structures, and logging.
//
//   - wire: The framing collaborator - blocking, ordered read/write of
//     operation tags and length-framed strings and byte blobs over a
//     connected stream socket, plus request encoding/decoding.
//
//   - daemon: The coordination daemon hosted by one designated member. It
//     accepts exactly one connection per group member and services all of
//     them from a single processing goroutine that owns the rendezvous
//     state (see lib/store/memstore).
//
//   - client: The store.IGroupStore implementation used by every member,
//     issuing synchronous set/get/wait requests over a single persistent
//     connection.
//
//   - group: The canonical bootstrap sequence combining both: rank 0
//     hosts the daemon, all ranks connect a client.
package rpc

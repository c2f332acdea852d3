// Package store defines the high-level interface for the group rendezvous
// key-value store together with its unified error handling.
//
// The store is a minimal coordination primitive for a fixed-size group of
// cooperating processes: members exchange small key-value blobs and block
// until a set of keys becomes visible before proceeding. One designated
// member hosts the store (see the rpc/daemon package); every member,
// including the host, accesses it through the IGroupStore interface.
//
// Key Components:
//
//   - IGroupStore Interface: The core abstraction with the three rendezvous
//     operations Set, Get and Wait plus Close. All operations are strictly
//     synchronous; Wait (and therefore Get) may block indefinitely until
//     another member publishes the awaited keys.
//
//   - Error System: A structured error reporting mechanism using typed
//     error codes and descriptive messages. Callers can distinguish
//     protocol violations, connection failures and contract violations
//     (Get on an absent key) without string matching.
//
// Implementations:
//
//   - memstore: The daemon-owned in-memory state (key-value map, wait
//     registry and pending counts). It is not an IGroupStore itself but
//     the bookkeeping the daemon mutates on behalf of all members.
//     Available in the "github.com/ValentinKolb/rdv/lib/store/memstore" package.
//
//   - rpc/client: The networked IGroupStore implementation used by every
//     group member, speaking the wire protocol over a single persistent
//     TCP connection.
package store

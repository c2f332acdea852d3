// Package memstore implements the in-memory rendezvous state owned by the
// coordination daemon: the key-value map, the wait registry and the
// per-slot pending counts.
//
// The package contains pure bookkeeping only, no I/O. All mutation happens
// from the daemon's single processing goroutine, which is why the
// implementation carries no locks. Set reports which slots became eligible
// for release so the daemon can send them the deferred stop-waiting
// notification; RegisterWait records a slot's outstanding keys against the
// current store snapshot.
//
// Keys are never deleted and there is no reset: the state is created empty
// when the daemon starts and lives for the daemon's entire lifetime.
package memstore

// Package daemon implements the coordination daemon of the group
// rendezvous store. Exactly one group member hosts it; every member
// (the host included) talks to it through the rpc/client package.
//
// Lifecycle: Listen opens the listening socket, Serve accepts exactly
// WorldSize connections (slot index = arrival order), closes the listener
// and then multiplexes requests across all connections until the group
// disbands.
//
// Concurrency model: one reader goroutine per connection decodes complete
// request frames and funnels them into a single queue; one processing
// goroutine consumes the queue and exclusively owns the rendezvous state
// (key-value map, wait registry, pending counts), so no request is ever
// processed concurrently with another and the state needs no locks.
// Replies - including the deferred STOP_WAITING notifications a set
// triggers for blocked members - are written by that same goroutine.
//
// Failure policy: fail-fast. The first connection error ends the daemon
// for the whole group; a member closing its connection cleanly is treated
// the same way, because the store is only meaningful while the entire
// group is alive. The terminal state is explicit: Serve returns (nil for
// a clean stop) and Done is closed.
//
// The daemon exports Prometheus metrics (request counters, stored keys
// and currently blocked members); see the serve command for the optional
// metrics endpoint.
package daemon

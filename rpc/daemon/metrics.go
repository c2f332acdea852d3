package daemon

import (
	"sync"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Daemon Metrics
// --------------------------------------------------------------------------

// Request counters are process-wide totals. The key and waiter counts live
// on the Daemon itself (see the xsync counters there): a process may host
// more than one daemon, and their state must not be conflated. The gauges
// below sum over the currently live daemons.
var (
	setTotal  = metrics.GetOrCreateCounter(`rdv_requests_total{op="set"}`)
	getTotal  = metrics.GetOrCreateCounter(`rdv_requests_total{op="get"}`)
	waitTotal = metrics.GetOrCreateCounter(`rdv_requests_total{op="wait"}`)

	// stopWaitingTotal counts every STOP_WAITING notification sent,
	// immediate replies and deferred releases alike
	stopWaitingTotal = metrics.GetOrCreateCounter(`rdv_stop_waiting_sent_total`)

	liveDaemonsMu sync.Mutex
	liveDaemons   []*Daemon
)

func init() {
	metrics.GetOrCreateGauge(`rdv_store_keys`, func() float64 {
		return float64(totalStoredKeys())
	})
	metrics.GetOrCreateGauge(`rdv_blocked_members`, func() float64 {
		return float64(totalBlockedMembers())
	})
}

// registerDaemon adds a daemon to the set the gauges report over.
func registerDaemon(d *Daemon) {
	liveDaemonsMu.Lock()
	defer liveDaemonsMu.Unlock()
	liveDaemons = append(liveDaemons, d)
}

// unregisterDaemon removes a terminated daemon. Safe to call repeatedly.
func unregisterDaemon(d *Daemon) {
	liveDaemonsMu.Lock()
	defer liveDaemonsMu.Unlock()
	for i, live := range liveDaemons {
		if live == d {
			liveDaemons = append(liveDaemons[:i], liveDaemons[i+1:]...)
			return
		}
	}
}

func totalStoredKeys() int64 {
	liveDaemonsMu.Lock()
	defer liveDaemonsMu.Unlock()
	var n int64
	for _, d := range liveDaemons {
		n += d.storedKeys.Value()
	}
	return n
}

func totalBlockedMembers() int64 {
	liveDaemonsMu.Lock()
	defer liveDaemonsMu.Unlock()
	var n int64
	for _, d := range liveDaemons {
		n += d.blockedMembers.Value()
	}
	return n
}

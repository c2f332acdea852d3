package daemon

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rdv/lib/store/memstore"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/ValentinKolb/rdv/rpc/wire"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("daemon")

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// slotRequest is one message on the daemon's single processing queue:
// either a fully decoded request from a slot or that slot's read failure.
type slotRequest struct {
	slot int
	req  wire.Request
	err  error
}

// Daemon is the coordination daemon hosted by one designated group member.
// It accepts exactly WorldSize connections, assigns them to slots in
// arrival order and then services all of them from a single processing
// goroutine that exclusively owns the rendezvous state.
//
// The daemon is fail-fast: the first connection error (a clean close by a
// member included) terminates the whole daemon. Per-slot isolation is
// deliberately not attempted, the store is only meaningful while the
// entire group is alive.
type Daemon struct {
	config   common.ServerConfig
	listener net.Listener
	conns    []net.Conn // slot index is arrival order
	state    *memstore.Store

	// connsMu guards conns against a Close arriving while members are
	// still being accepted. After bootstrap the slice is never written.
	connsMu sync.Mutex

	reqCh   chan slotRequest
	closing atomic.Bool
	done    chan struct{}

	// Written by the processing goroutine, read concurrently by the
	// metrics endpoint (see metrics.go).
	storedKeys     *xsync.Counter
	blockedMembers *xsync.Counter
}

// --------------------------------------------------------------------------
// Factory Method
// --------------------------------------------------------------------------

// Listen validates the configuration and opens the listening socket, so
// that members may start connecting as soon as Listen returns. Serve must
// be called to accept them and run the request loop.
func Listen(config common.ServerConfig) (*Daemon, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon config: %v", err)
	}

	listener, err := net.Listen("tcp", config.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %v", err)
	}

	Logger.Infof("Daemon listening on %s, waiting for %d members", listener.Addr(), config.WorldSize)

	d := &Daemon{
		config:         config,
		listener:       listener,
		conns:          make([]net.Conn, 0, config.WorldSize),
		state:          memstore.New(config.WorldSize),
		reqCh:          make(chan slotRequest),
		done:           make(chan struct{}),
		storedKeys:     xsync.NewCounter(),
		blockedMembers: xsync.NewCounter(),
	}
	registerDaemon(d)
	return d, nil
}

// Addr returns the address the daemon is listening on. Useful when the
// configured endpoint uses port 0.
func (d *Daemon) Addr() net.Addr {
	return d.listener.Addr()
}

// Done is closed once the daemon has terminated and released all
// connections.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

// --------------------------------------------------------------------------
// Serve
// --------------------------------------------------------------------------

// Serve accepts the group's connections and then multiplexes requests
// across them until the group disbands. It blocks for the daemon's entire
// lifetime and always releases every connection before returning.
//
// Serve returns nil when the daemon was stopped cleanly (a member closed
// its connection, or Close was called) and the first fatal error
// otherwise.
func (d *Daemon) Serve() error {
	defer close(d.done)
	defer unregisterDaemon(d)

	if err := d.acceptMembers(); err != nil {
		d.closeConns()
		if d.closing.Load() {
			return nil
		}
		return err
	}

	err := d.serveLoop()

	// Teardown: closing the connections fails every reader's blocking
	// read, then the queue is drained until all readers have exited.
	d.closeConns()
	if d.closing.Load() {
		err = nil
	}
	return err
}

// Close terminates the daemon. It is safe to call from any goroutine and
// more than once; it unblocks a Serve stuck in accept as well as the
// request loop.
func (d *Daemon) Close() error {
	d.closing.Store(true)
	d.closeConns()
	unregisterDaemon(d)
	return nil
}

// --------------------------------------------------------------------------
// Bootstrap
// --------------------------------------------------------------------------

// acceptMembers accepts exactly WorldSize connections, assigning slot
// indices in arrival order, and then closes the listening socket: no
// further connection is ever accepted. The slot a connection occupies is
// its arrival order, not an identity communicated by the peer.
func (d *Daemon) acceptMembers() error {
	defer d.listener.Close()

	for len(d.conns) < d.config.WorldSize {
		conn, err := d.listener.Accept()
		if err != nil {
			return fmt.Errorf("accept failed after %d/%d members: %v", len(d.conns), d.config.WorldSize, err)
		}

		if err := common.UpgradeConn(conn, d.config.TCP, d.config.Socket); err != nil {
			conn.Close()
			return fmt.Errorf("failed to upgrade connection of slot %d: %v", len(d.conns), err)
		}

		Logger.Debugf("Accepted member %d/%d from %s", len(d.conns)+1, d.config.WorldSize, conn.RemoteAddr())
		d.connsMu.Lock()
		d.conns = append(d.conns, conn)
		d.connsMu.Unlock()
	}

	Logger.Infof("All %d members connected, serving requests", d.config.WorldSize)
	return nil
}

// --------------------------------------------------------------------------
// Request Loop
// --------------------------------------------------------------------------

// serveLoop starts one reader goroutine per slot and consumes their
// requests from a single queue. All store and wait-registry mutation
// happens here, on one goroutine, which is why the state carries no locks.
// Requests from one slot keep their send order; across slots the queue
// imposes one global serialization.
func (d *Daemon) serveLoop() error {
	var wg sync.WaitGroup
	for slot, conn := range d.conns {
		wg.Add(1)
		go func(slot int, conn net.Conn) {
			defer wg.Done()
			for {
				req, err := wire.ReadRequest(conn)
				d.reqCh <- slotRequest{slot: slot, req: req, err: err}
				if err != nil {
					return
				}
			}
		}(slot, conn)
	}

	// Close the queue once every reader has exited; until then the drain
	// loop below keeps their pending sends from blocking.
	go func() {
		wg.Wait()
		close(d.reqCh)
	}()

	var failure error
	for sr := range d.reqCh {
		if failure != nil || d.closing.Load() {
			continue // draining
		}

		if sr.err != nil {
			if sr.err == io.EOF {
				// A member leaving cleanly still ends coordination for
				// the whole group.
				Logger.Infof("Slot %d closed its connection, shutting down", sr.slot)
				d.closing.Store(true)
			} else {
				failure = fmt.Errorf("connection of slot %d failed: %v", sr.slot, sr.err)
				Logger.Errorf("%v", failure)
			}
			d.closeConns()
			continue
		}

		if err := d.dispatch(sr.slot, sr.req); err != nil {
			failure = err
			Logger.Errorf("Fatal: %v", failure)
			d.closeConns()
		}
	}

	return failure
}

// dispatch executes one decoded request and writes any replies. A failed
// reply write is fatal to the daemon, not just to the slot.
func (d *Daemon) dispatch(slot int, req wire.Request) error {
	switch req.Op {
	case common.OpSet:
		setTotal.Inc()
		if !d.state.Has(req.Key) {
			d.storedKeys.Inc()
		}
		released := d.state.Set(req.Key, req.Value)
		for _, waiter := range released {
			d.blockedMembers.Dec()
			if err := d.notifyStopWaiting(waiter); err != nil {
				return fmt.Errorf("failed to release slot %d: %v", waiter, err)
			}
			Logger.Debugf("Slot %d released by set of %q", waiter, req.Key)
		}
		return nil

	case common.OpGet:
		getTotal.Inc()
		value, loaded := d.state.Get(req.Key)
		if !loaded {
			// Contract violation by the caller (get without a prior
			// wait). Only the caller is failed, the store state and the
			// remaining members are unaffected.
			Logger.Warningf("Slot %d requested absent key %q", slot, req.Key)
			return d.reply(slot, func(conn net.Conn) error {
				return wire.WriteNilBytes(conn)
			})
		}
		return d.reply(slot, func(conn net.Conn) error {
			return wire.WriteBytes(conn, value)
		})

	case common.OpWait:
		waitTotal.Inc()
		missing := d.state.RegisterWait(slot, req.Keys)
		if missing == 0 {
			return d.notifyStopWaiting(slot)
		}
		// No reply now: the slot stays blocked until future sets drive
		// its pending count to zero.
		d.blockedMembers.Inc()
		Logger.Debugf("Slot %d waiting for %d keys", slot, missing)
		return nil

	default:
		return fmt.Errorf("slot %d sent invalid request tag %s", slot, req.Op)
	}
}

// notifyStopWaiting sends the STOP_WAITING code on the slot's own
// connection, completing that slot's in-flight wait (or the wait phase of
// its get).
func (d *Daemon) notifyStopWaiting(slot int) error {
	stopWaitingTotal.Inc()
	return d.reply(slot, func(conn net.Conn) error {
		return wire.WriteOp(conn, common.OpStopWaiting)
	})
}

// reply writes a response frame to the slot's connection, bounded by the
// configured write deadline.
func (d *Daemon) reply(slot int, write func(net.Conn) error) error {
	conn := d.conns[slot]

	if d.config.TimeoutSecond > 0 {
		timeout := time.Duration(d.config.TimeoutSecond) * time.Second
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("failed to set write deadline for slot %d: %v", slot, err)
		}
	}

	if err := write(conn); err != nil {
		return fmt.Errorf("failed to write reply to slot %d: %v", slot, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Teardown
// --------------------------------------------------------------------------

// closeConns closes the listener and every accepted connection. Pending
// reads on all slots fail immediately, which is how both Close and the
// fail-fast policy propagate. Repeated calls are harmless.
func (d *Daemon) closeConns() {
	d.listener.Close()
	d.connsMu.Lock()
	defer d.connsMu.Unlock()
	for _, conn := range d.conns {
		conn.Close()
	}
}

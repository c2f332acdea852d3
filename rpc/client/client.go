package client

import (
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/rdv/lib/store"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/ValentinKolb/rdv/rpc/wire"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// --------------------------------------------------------------------------
// Factory Method
// --------------------------------------------------------------------------

// NewGroupStore connects a member to the coordination daemon and returns
// its store handle. The single connection is created here and kept for the
// handle's entire lifetime; the daemon assigns it the next free slot in
// arrival order.
func NewGroupStore(config common.ClientConfig) (store.IGroupStore, error) {
	var conn net.Conn
	var err error

	if config.TimeoutSecond > 0 {
		timeout := time.Duration(config.TimeoutSecond) * time.Second
		conn, err = net.DialTimeout("tcp", config.Endpoint, timeout)
	} else {
		conn, err = net.Dial("tcp", config.Endpoint)
	}
	if err != nil {
		return nil, store.NewError(store.RetCConnectionError,
			fmt.Sprintf("failed to connect to daemon at %s: %v", config.Endpoint, err))
	}

	if err := common.UpgradeConn(conn, config.TCP, config.Socket); err != nil {
		conn.Close()
		return nil, store.NewError(store.RetCConnectionError,
			fmt.Sprintf("failed to upgrade connection to %s: %v", config.Endpoint, err))
	}

	Logger.Infof("Connected to daemon at %s", config.Endpoint)
	return newWithConn(config, conn), nil
}

// newWithConn wraps an established connection. Split out so tests can run
// the client against an in-memory pipe.
func newWithConn(config common.ClientConfig, conn net.Conn) *groupClient {
	return &groupClient{
		config: config,
		conn:   conn,
	}
}

// --------------------------------------------------------------------------
// Client Implementation
// --------------------------------------------------------------------------

// groupClient implements store.IGroupStore over a single connection.
// Calls are strictly synchronous and sequential: each one sends its
// request and, where a reply exists, blocks reading it before the next
// call may start. There is no request pipelining; the mutex enforces that
// even for callers sharing the handle across goroutines.
type groupClient struct {
	config common.ClientConfig
	conn   net.Conn
	mu     sync.Mutex
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lib/store/interface.go)
// --------------------------------------------------------------------------

func (c *groupClient) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Fire and forget: a set has no reply. The daemon notifies waiting
	// members as a side effect.
	return c.send(func(conn net.Conn) error {
		return wire.WriteSetRequest(conn, key, value)
	})
}

func (c *groupClient) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Wait for the key first so the lookup never races an absent key.
	if err := c.waitLocked([]string{key}); err != nil {
		return nil, err
	}

	if err := c.send(func(conn net.Conn) error {
		return wire.WriteGetRequest(conn, key)
	}); err != nil {
		return nil, err
	}

	value, loaded, err := wire.ReadBytes(c.conn)
	if err != nil {
		return nil, c.readFailure("get reply", err)
	}
	if !loaded {
		// Only reachable by bypassing the wait, i.e. through raw
		// protocol use; kept as a typed error for that case.
		return nil, store.NewError(store.RetCKeyNotFound,
			fmt.Sprintf("key %q has never been set", key))
	}
	return value, nil
}

func (c *groupClient) Wait(keys []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitLocked(keys)
}

func (c *groupClient) Close() error {
	Logger.Debugf("Closing connection to %s", c.config.Endpoint)
	return c.conn.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// waitLocked sends a wait request and blocks until the daemon's reply tag
// arrives. The reply may come immediately (all keys present) or much
// later, triggered by another member's set; either way the wire sequence
// is identical. The caller must hold c.mu.
func (c *groupClient) waitLocked(keys []string) error {
	if err := c.send(func(conn net.Conn) error {
		return wire.WriteWaitRequest(conn, keys)
	}); err != nil {
		return err
	}

	// A wait has no timeout: clear any read deadline and block until the
	// daemon replies or terminates.
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return store.NewError(store.RetCConnectionError,
			fmt.Sprintf("failed to clear read deadline: %v", err))
	}

	op, err := wire.ReadOp(c.conn)
	if err != nil {
		return c.readFailure("wait reply", err)
	}
	if op != common.OpStopWaiting {
		return store.NewError(store.RetCProtocolError,
			fmt.Sprintf("expected stop_waiting reply, got %s", op))
	}
	return nil
}

// send writes one request frame, bounded by the configured write timeout.
func (c *groupClient) send(write func(net.Conn) error) error {
	if c.config.TimeoutSecond > 0 {
		timeout := time.Duration(c.config.TimeoutSecond) * time.Second
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return store.NewError(store.RetCConnectionError,
				fmt.Sprintf("failed to set write deadline: %v", err))
		}
	}

	if err := write(c.conn); err != nil {
		return store.NewError(store.RetCConnectionError,
			fmt.Sprintf("failed to send request: %v", err))
	}
	return nil
}

// readFailure maps a failed reply read to a typed error. A clean close is
// the daemon terminating (fail-fast group shutdown), everything else is a
// connection failure of this member.
func (c *groupClient) readFailure(what string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return store.NewError(store.RetCDaemonStopped,
			fmt.Sprintf("daemon terminated while awaiting %s", what))
	}
	return store.NewError(store.RetCConnectionError,
		fmt.Sprintf("failed to read %s: %v", what, err))
}

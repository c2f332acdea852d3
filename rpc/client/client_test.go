package client

import (
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/rdv/lib/store"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/ValentinKolb/rdv/rpc/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeClient returns a client wired to an in-memory connection and the
// daemon side of that connection.
func pipeClient() (*groupClient, net.Conn) {
	clientSide, daemonSide := net.Pipe()
	return newWithConn(common.ClientConfig{Endpoint: "pipe"}, clientSide), daemonSide
}

func retCode(t *testing.T, err error) store.RetCode {
	t.Helper()
	require.Error(t, err)
	storeErr, ok := err.(*store.Error)
	require.True(t, ok, "expected a typed store error, got %T: %v", err, err)
	return storeErr.Code
}

func TestGetExchangesWaitThenGet(t *testing.T) {
	c, daemonSide := pipeClient()
	defer c.Close()

	go func() {
		// wait phase
		req, err := wire.ReadRequest(daemonSide)
		if err != nil || req.Op != common.OpWait || len(req.Keys) != 1 || req.Keys[0] != "k" {
			daemonSide.Close()
			return
		}
		if wire.WriteOp(daemonSide, common.OpStopWaiting) != nil {
			return
		}
		// get phase
		req, err = wire.ReadRequest(daemonSide)
		if err != nil || req.Op != common.OpGet || req.Key != "k" {
			daemonSide.Close()
			return
		}
		wire.WriteBytes(daemonSide, []byte("v"))
	}()

	value, err := c.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestWaitRejectsUnexpectedReplyTag(t *testing.T) {
	c, daemonSide := pipeClient()
	defer c.Close()

	go func() {
		if _, err := wire.ReadRequest(daemonSide); err != nil {
			return
		}
		// anything but stop_waiting is a protocol violation
		wire.WriteOp(daemonSide, common.OpSet)
	}()

	err := c.Wait([]string{"k"})
	assert.Equal(t, store.RetCProtocolError, retCode(t, err))
}

func TestWaitSurfacesDaemonShutdown(t *testing.T) {
	c, daemonSide := pipeClient()
	defer c.Close()

	go func() {
		if _, err := wire.ReadRequest(daemonSide); err != nil {
			return
		}
		// daemon terminating closes every member's connection
		daemonSide.Close()
	}()

	err := c.Wait([]string{"k"})
	assert.Equal(t, store.RetCDaemonStopped, retCode(t, err))
}

func TestGetMapsNilSentinelToKeyNotFound(t *testing.T) {
	c, daemonSide := pipeClient()
	defer c.Close()

	go func() {
		if _, err := wire.ReadRequest(daemonSide); err != nil {
			return
		}
		if wire.WriteOp(daemonSide, common.OpStopWaiting) != nil {
			return
		}
		if _, err := wire.ReadRequest(daemonSide); err != nil {
			return
		}
		wire.WriteNilBytes(daemonSide)
	}()

	_, err := c.Get("never-set")
	assert.Equal(t, store.RetCKeyNotFound, retCode(t, err))
}

func TestSetIsFireAndForget(t *testing.T) {
	c, daemonSide := pipeClient()
	defer c.Close()

	received := make(chan wire.Request, 1)
	go func() {
		req, err := wire.ReadRequest(daemonSide)
		if err == nil {
			received <- req
		}
	}()

	require.NoError(t, c.Set("k", []byte("v")))

	select {
	case req := <-received:
		assert.Equal(t, common.OpSet, req.Op)
		assert.Equal(t, "k", req.Key)
		assert.Equal(t, []byte("v"), req.Value)
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon side never received the set request")
	}
}

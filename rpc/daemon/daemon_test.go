package daemon_test

import (
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/rdv/lib/store"
	"github.com/ValentinKolb/rdv/rpc/client"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/ValentinKolb/rdv/rpc/daemon"
	"github.com/ValentinKolb/rdv/rpc/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blockProbe = 150 * time.Millisecond

// startDaemon runs a daemon for worldSize members on a loopback port and
// returns its endpoint plus the channel carrying Serve's terminal error.
func startDaemon(t *testing.T, worldSize int) (*daemon.Daemon, string, chan error) {
	t.Helper()

	d, err := daemon.Listen(common.ServerConfig{
		Endpoint:  "127.0.0.1:0",
		WorldSize: worldSize,
	})
	require.NoError(t, err)

	serveCh := make(chan error, 1)
	go func() {
		serveCh <- d.Serve()
	}()

	t.Cleanup(func() {
		d.Close()
		select {
		case <-d.Done():
		case <-time.After(5 * time.Second):
			t.Errorf("daemon did not terminate")
		}
	})

	return d, d.Addr().String(), serveCh
}

func connect(t *testing.T, endpoint string) store.IGroupStore {
	t.Helper()
	s, err := client.NewGroupStore(common.ClientConfig{Endpoint: endpoint})
	require.NoError(t, err)
	return s
}

// waitAsync runs Wait in the background and reports its result.
func waitAsync(s store.IGroupStore, keys []string) chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- s.Wait(keys)
	}()
	return ch
}

// requireBlocked asserts that a wait result has not arrived yet.
func requireBlocked(t *testing.T, ch chan error) {
	t.Helper()
	select {
	case err := <-ch:
		t.Fatalf("expected wait to block, returned with %v", err)
	case <-time.After(blockProbe):
	}
}

func requireReleased(t *testing.T, ch chan error) {
	t.Helper()
	select {
	case err := <-ch:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("wait did not return after its keys were set")
	}
}

// --------------------------------------------------------------------------
// Rendezvous Behaviour
// --------------------------------------------------------------------------

func TestWaitBlocksUntilSet(t *testing.T) {
	_, endpoint, _ := startDaemon(t, 2)
	setter := connect(t, endpoint)
	waiter := connect(t, endpoint)

	waitCh := waitAsync(waiter, []string{"k"})
	requireBlocked(t, waitCh)

	require.NoError(t, setter.Set("k", []byte("v")))
	requireReleased(t, waitCh)

	value, err := waiter.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestWaitEmptyReturnsImmediately(t *testing.T) {
	_, endpoint, _ := startDaemon(t, 1)
	s := connect(t, endpoint)

	done := waitAsync(s, nil)
	requireReleased(t, done)
}

func TestWaitSubsetAlreadyPresent(t *testing.T) {
	_, endpoint, _ := startDaemon(t, 2)
	setter := connect(t, endpoint)
	waiter := connect(t, endpoint)

	require.NoError(t, setter.Set("a", []byte("1")))
	// the set above has no reply; a get orders the waiter behind it
	_, err := setter.Get("a")
	require.NoError(t, err)

	waitCh := waitAsync(waiter, []string{"a", "b", "c"})
	requireBlocked(t, waitCh)

	// remaining keys may arrive in any order
	require.NoError(t, setter.Set("c", []byte("3")))
	requireBlocked(t, waitCh)

	require.NoError(t, setter.Set("b", []byte("2")))
	requireReleased(t, waitCh)
}

func TestTwoWaitersReleasedBySingleSet(t *testing.T) {
	// group of 3: rank A publishes its address, B and C rendezvous on it
	_, endpoint, _ := startDaemon(t, 3)
	a := connect(t, endpoint)
	b := connect(t, endpoint)
	c := connect(t, endpoint)

	waitB := waitAsync(b, []string{"addr0"})
	waitC := waitAsync(c, []string{"addr0"})
	requireBlocked(t, waitB)
	requireBlocked(t, waitC)

	require.NoError(t, a.Set("addr0", []byte("1.2.3.4:9000")))

	// both must return exactly once, in any relative order
	requireReleased(t, waitB)
	requireReleased(t, waitC)

	valueB, err := b.Get("addr0")
	require.NoError(t, err)
	valueC, err := c.Get("addr0")
	require.NoError(t, err)
	assert.Equal(t, []byte("1.2.3.4:9000"), valueB)
	assert.Equal(t, valueB, valueC)
}

func TestLastWriteWins(t *testing.T) {
	_, endpoint, _ := startDaemon(t, 1)
	s := connect(t, endpoint)

	require.NoError(t, s.Set("k", []byte("v1")))
	require.NoError(t, s.Set("k", []byte("v2")))

	// same connection: stream order guarantees the get sees both sets
	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}

// --------------------------------------------------------------------------
// Failure Policy
// --------------------------------------------------------------------------

func TestMemberCloseStopsWholeGroup(t *testing.T) {
	_, endpoint, serveCh := startDaemon(t, 2)
	leaver := connect(t, endpoint)
	survivor := connect(t, endpoint)

	waitCh := waitAsync(survivor, []string{"never-set"})
	requireBlocked(t, waitCh)

	// a clean close by one member is a group-wide shutdown by design
	require.NoError(t, leaver.Close())

	select {
	case err := <-serveCh:
		assert.NoError(t, err, "member close is a clean daemon stop")
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon kept running after a member left")
	}

	// the survivor's pending wait must fail rather than hang forever
	select {
	case err := <-waitCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("pending wait hung after daemon shutdown")
	}

	// and so must every subsequent operation
	require.Error(t, survivor.Set("k", []byte("v")))
}

func TestDaemonCloseFailsPendingCalls(t *testing.T) {
	d, endpoint, serveCh := startDaemon(t, 1)
	s := connect(t, endpoint)

	waitCh := waitAsync(s, []string{"never-set"})
	requireBlocked(t, waitCh)

	require.NoError(t, d.Close())
	assert.NoError(t, <-serveCh)

	select {
	case err := <-waitCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("pending wait hung after daemon close")
	}
}

// --------------------------------------------------------------------------
// Contract Violations
// --------------------------------------------------------------------------

func TestGetWithoutWaitFailsOnlyTheCaller(t *testing.T) {
	_, endpoint, _ := startDaemon(t, 2)
	wellBehaved := connect(t, endpoint)

	// the second member speaks the raw protocol, skipping the wait a
	// correct client would perform before a get
	raw, err := net.Dial("tcp", endpoint)
	require.NoError(t, err)
	defer raw.Close()

	require.NoError(t, wire.WriteGetRequest(raw, "never-set"))
	_, loaded, err := wire.ReadBytes(raw)
	require.NoError(t, err)
	assert.False(t, loaded, "expected the nil sentinel for an absent key")

	// the daemon and the other member are unaffected
	require.NoError(t, wellBehaved.Set("k", []byte("v")))
	value, err := wellBehaved.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestInvalidRequestTagIsFatal(t *testing.T) {
	_, endpoint, serveCh := startDaemon(t, 1)

	raw, err := net.Dial("tcp", endpoint)
	require.NoError(t, err)
	defer raw.Close()

	// the reply-only stop_waiting code is never a valid request
	require.NoError(t, wire.WriteOp(raw, common.OpStopWaiting))

	select {
	case err := <-serveCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("daemon kept running after a protocol violation")
	}
}

package group

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freePort reserves a loopback port for the daemon of a test group.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestGroupRendezvous(t *testing.T) {
	port := freePort(t)

	// rank 0 hosts the daemon and must join first
	host, err := Join(0, "127.0.0.1", port, 3)
	require.NoError(t, err)
	require.True(t, host.IsHost())

	m1, err := Join(1, "127.0.0.1", port, 3)
	require.NoError(t, err)
	require.False(t, m1.IsHost())

	m2, err := Join(2, "127.0.0.1", port, 3)
	require.NoError(t, err)

	// rank 1 publishes its address, ranks 0 and 2 rendezvous on it
	waitHost := make(chan error, 1)
	go func() {
		waitHost <- host.Wait([]string{"addr1"})
	}()

	require.NoError(t, m1.Set("addr1", []byte("1.2.3.4:9000")))

	require.NoError(t, m2.Wait([]string{"addr1"}))
	require.NoError(t, <-waitHost)

	value, err := m2.Get("addr1")
	require.NoError(t, err)
	assert.Equal(t, []byte("1.2.3.4:9000"), value)

	// a member leaving ends the group; the host joins the daemon cleanly
	require.NoError(t, m1.Close())
	m2.Close()
	assert.NoError(t, host.Close())
}

func TestJoinRejectsInvalidRank(t *testing.T) {
	if _, err := Join(3, "127.0.0.1", freePort(t), 3); err == nil {
		t.Errorf("expected rank outside the group to be rejected")
	}
	if _, err := Join(-1, "127.0.0.1", freePort(t), 2); err == nil {
		t.Errorf("expected negative rank to be rejected")
	}
}

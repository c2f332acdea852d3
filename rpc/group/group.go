package group

import (
	"fmt"
	"net"
	"strconv"

	"github.com/ValentinKolb/rdv/lib/store"
	"github.com/ValentinKolb/rdv/rpc/client"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/ValentinKolb/rdv/rpc/daemon"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("group")

// HostRank is the rank of the member that hosts the coordination daemon.
const HostRank = 0

// --------------------------------------------------------------------------
// Member
// --------------------------------------------------------------------------

// Member is one process's handle on the rendezvous group: its store client
// plus, on the host rank, the daemon it started. Member itself implements
// store.IGroupStore by delegation.
type Member struct {
	rank    int
	store   store.IGroupStore
	daemon  *daemon.Daemon // nil unless rank == HostRank
	serveCh chan error
}

// Join makes the calling process a member of a fixed-size rendezvous
// group. The member with HostRank starts the coordination daemon on the
// given port before connecting; every member (the host included) then
// connects exactly one client to addr:port.
//
// Join blocks until this member's connection is established. Note that the
// daemon only starts servicing requests once all worldSize members have
// connected, so early joiners' first operations block until the group is
// complete.
func Join(rank int, addr string, port int, worldSize int) (*Member, error) {
	if rank < 0 || rank >= worldSize {
		return nil, fmt.Errorf("rank %d outside of group of size %d", rank, worldSize)
	}

	m := &Member{rank: rank}

	if rank == HostRank {
		d, err := daemon.Listen(common.ServerConfig{
			Endpoint:  ":" + strconv.Itoa(port),
			WorldSize: worldSize,
		})
		if err != nil {
			return nil, fmt.Errorf("rank %d: failed to start daemon: %v", rank, err)
		}
		m.daemon = d
		m.serveCh = make(chan error, 1)
		go func() {
			m.serveCh <- d.Serve()
		}()
		Logger.Infof("Rank %d hosting daemon on port %d for %d members", rank, port, worldSize)
	}

	s, err := client.NewGroupStore(common.ClientConfig{
		Endpoint: net.JoinHostPort(addr, strconv.Itoa(port)),
	})
	if err != nil {
		if m.daemon != nil {
			m.daemon.Close()
			<-m.serveCh
		}
		return nil, fmt.Errorf("rank %d: %v", rank, err)
	}
	m.store = s

	Logger.Infof("Rank %d joined group of %d at %s:%d", rank, worldSize, addr, port)
	return m, nil
}

// Rank returns this member's rank.
func (m *Member) Rank() int {
	return m.rank
}

// IsHost reports whether this member hosts the coordination daemon.
func (m *Member) IsHost() bool {
	return m.daemon != nil
}

// Close releases the member's connection. On the host rank it additionally
// joins the daemon, which terminates on its own once it observes the
// closed connection; the daemon's terminal error (nil for the expected
// clean shutdown) is returned.
//
// The close error of the member's own connection is not propagated: when
// the group has already disbanded the connection is gone either way.
func (m *Member) Close() error {
	if err := m.store.Close(); err != nil {
		Logger.Debugf("Rank %d: closing connection: %v", m.rank, err)
	}

	if m.daemon != nil {
		return <-m.serveCh
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see lib/store/interface.go)
// --------------------------------------------------------------------------

func (m *Member) Set(key string, value []byte) error {
	return m.store.Set(key, value)
}

func (m *Member) Get(key string) ([]byte, error) {
	return m.store.Get(key)
}

func (m *Member) Wait(keys []string) error {
	return m.store.Wait(keys)
}

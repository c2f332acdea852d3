package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Socket tuning configuration (shared between daemon and client)
// --------------------------------------------------------------------------

// SocketConf holds the kernel socket buffer sizes. Zero values leave the
// system defaults untouched.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific connection settings applied to every accepted
// and dialed connection.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// Daemon configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the coordination daemon.
type ServerConfig struct {
	// Endpoint is the address the daemon listens on (e.g. 0.0.0.0:29500)
	Endpoint string

	// WorldSize is the fixed number of group members. The daemon accepts
	// exactly this many connections before servicing any request.
	WorldSize int

	// TimeoutSecond bounds connection writes (replies and notifications).
	// Zero disables the deadline. Reads are never bounded: a member may
	// stay silent for an arbitrary time between requests.
	TimeoutSecond int64

	// MetricsEndpoint optionally exposes Prometheus metrics and pprof.
	// Empty disables the endpoint.
	MetricsEndpoint string

	// Logging configuration
	LogLevel string

	Socket SocketConf
	TCP    TCPConf
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Coordination Daemon")
	addField("Endpoint", c.Endpoint)
	addField("World Size", strconv.Itoa(c.WorldSize))
	addField("Write Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	if c.MetricsEndpoint != "" {
		addSection("Metrics")
		addField("Endpoint", c.MetricsEndpoint)
	}

	addSection("Socket")
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCP.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.TCP.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.TCP.TCPLingerSec))
	addField("Write Buffer", strconv.Itoa(c.Socket.WriteBufferSize))
	addField("Read Buffer", strconv.Itoa(c.Socket.ReadBufferSize))

	return sb.String()
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *ServerConfig) Validate() error {
	if c.WorldSize < 1 {
		return fmt.Errorf("world size must be at least 1, got %d", c.WorldSize)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint must not be empty")
	}
	return nil
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of a single member's store client.
type ClientConfig struct {
	// Endpoint is the address of the coordination daemon (host:port)
	Endpoint string

	// TimeoutSecond bounds the dial and every request write. Zero disables
	// the deadlines. The wait reply is deliberately exempt: a Wait blocks
	// until satisfied or until the daemon terminates.
	TimeoutSecond int

	Socket SocketConf
	TCP    TCPConf
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Socket")
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCP.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.TCP.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.TCP.TCPLingerSec))
	addField("Write Buffer", strconv.Itoa(c.Socket.WriteBufferSize))
	addField("Read Buffer", strconv.Itoa(c.Socket.ReadBufferSize))

	return sb.String()
}

// Package common contains the core data structures shared by the RPC layer
// of the group rendezvous store: the single-byte operation tags of the wire
// protocol, the daemon and client configuration structs with their TCP
// tuning options, and the logging utilities used by all rpc subpackages.
//
// Key Components:
//
//   - OpCode: The operation tag starting every request frame (set, get,
//     wait) plus the daemon-to-client stop_waiting reply code.
//
//   - ServerConfig / ClientConfig: All configuration parameters for the
//     coordination daemon and the per-member store client, including the
//     socket level settings applied by UpgradeConn.
//
//   - Logger utilities: A custom logger factory with uniform formatting,
//     registered globally so every package can obtain a named logger.
package common

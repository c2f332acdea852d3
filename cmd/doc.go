// Package cmd implements the command-line interface for the rdv group
// rendezvous store. It provides a hierarchical command structure with
// operations for running the coordination daemon and interacting with it
// as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for rendezvous store operations (set, get, wait, perf)
//   - serve: Commands for starting and configuring the coordination daemon
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See rdv -help for a list of all commands.
package cmd

package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IGroupStore is the generic interface for a member's handle to the group
// rendezvous store. All operations are synchronous and blocking; every
// implementation talks to the coordination daemon over a single connection.
type IGroupStore interface {
	// Set inserts or updates a key-value pair. A later Set on the same key
	// overwrites the value (last write wins). No reply is awaited.
	Set(key string, value []byte) (err error)
	// Get returns the value for a key. It blocks until the key exists
	// (internally waiting on it first), so it never races an absent key.
	Get(key string) (value []byte, err error)
	// Wait blocks until every given key is present in the store.
	// An empty key set returns immediately. There is no timeout and no
	// way to cancel a registered wait.
	Wait(keys []string) (err error)
	// Close releases the member's connection. After Close every other
	// member of the group will observe a connection failure on its next
	// operation (the service is fail-fast by design).
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCProtocolError:
		errorCode = "ProtocolError"
	case RetCConnectionError:
		errorCode = "ConnectionError"
	case RetCKeyNotFound:
		errorCode = "KeyNotFound"
	case RetCDaemonStopped:
		errorCode = "DaemonStopped"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("GroupStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess         RetCode = iota // 0: Operation executed successfully.
	RetCInternalError                  // 1: Operation failed due to an internal error.
	RetCProtocolError                  // 2: Unexpected tag or malformed frame on the wire.
	RetCConnectionError                // 3: The connection to the daemon failed.
	RetCKeyNotFound                    // 4: Get on a key nobody has ever set (contract violation).
	RetCDaemonStopped                  // 5: The daemon has terminated.
)

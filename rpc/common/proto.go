package common

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Operation Tag Definition
// --------------------------------------------------------------------------

// OpCode is the single-byte operation tag that starts every request frame.
// StopWaiting is special: it is a daemon-to-client code only and is never
// valid as a request tag.
type OpCode uint8

const (
	OpSet         OpCode = iota // 0: store a key-value pair
	OpGet                       // 1: read the value for a key
	OpWait                      // 2: block until a set of keys is present
	OpStopWaiting               // 3: reply code: all awaited keys are present
)

// String returns the string representation of an OpCode.
func (op OpCode) String() string {
	switch op {
	case OpSet:
		return "set"
	case OpGet:
		return "get"
	case OpWait:
		return "wait"
	case OpStopWaiting:
		return "stop_waiting"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(op))
	}
}

// IsRequest reports whether the tag is valid at the start of a client
// request. The daemon rejects everything else as a protocol violation.
func (op OpCode) IsRequest() bool {
	switch op {
	case OpSet, OpGet, OpWait:
		return true
	default:
		return false
	}
}

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ValentinKolb/rdv/rpc/common"
)

const (
	// maxFrameSize caps every length prefix read from the wire. A peer
	// announcing more than this is treated as a protocol violation rather
	// than an allocation request.
	maxFrameSize = 512 * 1024 * 1024 // 512 MB

	// nilLength is the reserved length prefix marking a nil blob. It is
	// used by the daemon to answer a Get for a key nobody has ever set
	// without breaking the framing of the stream.
	nilLength = ^uint32(0)
)

// --------------------------------------------------------------------------
// Operation Tags
// --------------------------------------------------------------------------

// WriteOp writes a single-byte operation tag.
func WriteOp(w io.Writer, op common.OpCode) error {
	_, err := w.Write([]byte{byte(op)})
	return err
}

// ReadOp reads a single-byte operation tag. It blocks until the byte is
// available; io.EOF is returned unchanged so callers can tell a closed
// peer from a malformed frame.
func ReadOp(r io.Reader) (common.OpCode, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return common.OpCode(buf[0]), nil
}

// --------------------------------------------------------------------------
// Length-Framed Values
// --------------------------------------------------------------------------

// WriteString writes a length-prefixed string (uint32 big endian length
// followed by the raw bytes).
func WriteString(w io.Writer, s string) error {
	return writeFrame(w, []byte(s))
}

// ReadString reads a length-prefixed string.
func ReadString(r io.Reader) (string, error) {
	data, err := readFrame(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteBytes writes a length-prefixed byte blob. A nil slice is written as
// an empty blob; use WriteNilBytes for the explicit nil sentinel.
func WriteBytes(w io.Writer, b []byte) error {
	return writeFrame(w, b)
}

// WriteNilBytes writes the reserved nil-blob sentinel.
func WriteNilBytes(w io.Writer) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], nilLength)
	_, err := w.Write(header[:])
	return err
}

// ReadBytes reads a length-prefixed byte blob. The boolean return value is
// false if the peer sent the nil sentinel instead of a blob.
func ReadBytes(r io.Reader) ([]byte, bool, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, false, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == nilLength {
		return nil, false, nil
	}
	if length > maxFrameSize {
		return nil, false, fmt.Errorf("frame of %d bytes exceeds limit of %d bytes", length, maxFrameSize)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, false, unexpectedEOF(err)
	}
	return data, true, nil
}

// WriteCount writes the uint64 big endian key count of a wait request.
// The count is always transmitted, zero included.
func WriteCount(w io.Writer, n uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// ReadCount reads the uint64 big endian key count of a wait request.
func ReadCount(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, unexpectedEOF(err)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// writeFrame writes a uint32 big endian length prefix followed by the data.
func writeFrame(w io.Writer, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit of %d bytes", len(data), maxFrameSize)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

// readFrame reads a uint32 big endian length prefix and the data behind it.
// The nil sentinel is rejected here: it is only valid where ReadBytes is
// used.
func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length == nilLength {
		return nil, fmt.Errorf("unexpected nil frame")
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit of %d bytes", length, maxFrameSize)
	}
	if length == 0 {
		return []byte{}, nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, unexpectedEOF(err)
	}
	return data, nil
}

// unexpectedEOF converts a mid-frame EOF into io.ErrUnexpectedEOF so that
// only a clean close between frames surfaces as io.EOF.
func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

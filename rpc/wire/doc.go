// Package wire implements the byte-level framing of the rendezvous
// protocol: reliable, blocking, ordered read/write of operation tags and
// length-framed strings and byte blobs over a connected stream socket.
//
// Frame layout:
//
//   - Operation tag: 1 byte (see common.OpCode)
//   - String / blob: uint32 big endian length followed by the raw bytes
//   - Wait key count: uint64 big endian, always transmitted (zero allowed)
//
// The all-ones uint32 length is reserved as the nil-blob sentinel, used by
// the daemon to answer a contract-violating get without breaking the
// framing of the stream.
//
// Every read blocks until the full frame has been received (io.ReadFull),
// so a successfully returned value is always complete. A clean peer close
// between frames surfaces as io.EOF, a close mid-frame as
// io.ErrUnexpectedEOF.
package wire

package wire

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/rdv/rpc/common"
)

// Request is one fully decoded client request. Which fields are used
// depends on the operation: Key and Value for set, Key for get, Keys for
// wait.
type Request struct {
	Op    common.OpCode
	Key   string
	Value []byte
	Keys  []string
}

// --------------------------------------------------------------------------
// Request Encoding (client side)
// --------------------------------------------------------------------------

// WriteSetRequest encodes a set request: tag, key string, value blob.
func WriteSetRequest(w io.Writer, key string, value []byte) error {
	if err := WriteOp(w, common.OpSet); err != nil {
		return err
	}
	if err := WriteString(w, key); err != nil {
		return err
	}
	return WriteBytes(w, value)
}

// WriteGetRequest encodes a get request: tag, key string.
func WriteGetRequest(w io.Writer, key string) error {
	if err := WriteOp(w, common.OpGet); err != nil {
		return err
	}
	return WriteString(w, key)
}

// WriteWaitRequest encodes a wait request: tag, key count, key strings.
func WriteWaitRequest(w io.Writer, keys []string) error {
	if err := WriteOp(w, common.OpWait); err != nil {
		return err
	}
	if err := WriteCount(w, uint64(len(keys))); err != nil {
		return err
	}
	for _, key := range keys {
		if err := WriteString(w, key); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Request Decoding (daemon side)
// --------------------------------------------------------------------------

// ReadRequest blocks until one complete request frame has been received and
// returns it decoded. A tag that is not a valid request operation (the
// reply-only stop_waiting code included) is a protocol violation. A clean
// close between frames surfaces as io.EOF; a stream dying mid-frame
// surfaces as an error wrapping io.ErrUnexpectedEOF.
func ReadRequest(r io.Reader) (Request, error) {
	op, err := ReadOp(r)
	if err != nil {
		return Request{}, err
	}
	if !op.IsRequest() {
		return Request{}, fmt.Errorf("expected a request tag, got %s", op)
	}

	switch op {
	case common.OpSet:
		key, err := ReadString(r)
		if err != nil {
			return Request{}, fmt.Errorf("set: reading key: %w", err)
		}
		value, _, err := ReadBytes(r)
		if err != nil {
			return Request{}, fmt.Errorf("set: reading value: %w", err)
		}
		return Request{Op: op, Key: key, Value: value}, nil

	case common.OpGet:
		key, err := ReadString(r)
		if err != nil {
			return Request{}, fmt.Errorf("get: reading key: %w", err)
		}
		return Request{Op: op, Key: key}, nil

	case common.OpWait:
		count, err := ReadCount(r)
		if err != nil {
			return Request{}, fmt.Errorf("wait: reading key count: %w", err)
		}
		if count > maxWaitKeys {
			return Request{}, fmt.Errorf("wait: key count %d exceeds limit of %d", count, maxWaitKeys)
		}
		keys := make([]string, count)
		for i := range keys {
			if keys[i], err = ReadString(r); err != nil {
				return Request{}, fmt.Errorf("wait: reading key %d/%d: %w", i+1, count, err)
			}
		}
		return Request{Op: op, Keys: keys}, nil

	default:
		// unreachable, IsRequest is checked above
		return Request{}, fmt.Errorf("expected a request tag, got %s", op)
	}
}

// maxWaitKeys caps the number of keys in a single wait request. The limit
// only guards against a corrupted count field, it is far beyond any
// legitimate rendezvous.
const maxWaitKeys = 1 << 20

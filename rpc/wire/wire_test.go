package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/ValentinKolb/rdv/rpc/common"
)

func TestReadRequestSet(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSetRequest(&buf, "addr0", []byte("1.2.3.4:9000")); err != nil {
		t.Fatalf("encoding set request failed: %v", err)
	}

	req, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("decoding set request failed: %v", err)
	}
	if req.Op != common.OpSet || req.Key != "addr0" || !bytes.Equal(req.Value, []byte("1.2.3.4:9000")) {
		t.Errorf("decoded request does not match: %+v", req)
	}
	if buf.Len() != 0 {
		t.Errorf("expected request to consume the full frame, %d bytes left", buf.Len())
	}
}

func TestReadRequestWait(t *testing.T) {
	var buf bytes.Buffer
	keys := []string{"k1", "k2", "k3"}
	if err := WriteWaitRequest(&buf, keys); err != nil {
		t.Fatalf("encoding wait request failed: %v", err)
	}

	req, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("decoding wait request failed: %v", err)
	}
	if req.Op != common.OpWait || len(req.Keys) != 3 {
		t.Fatalf("decoded request does not match: %+v", req)
	}
	for i, key := range keys {
		if req.Keys[i] != key {
			t.Errorf("key %d: expected %q, got %q", i, key, req.Keys[i])
		}
	}
}

func TestReadRequestWaitEmpty(t *testing.T) {
	// the count is always on the wire, zero included
	var buf bytes.Buffer
	if err := WriteWaitRequest(&buf, nil); err != nil {
		t.Fatalf("encoding empty wait request failed: %v", err)
	}
	if buf.Len() != 1+8 {
		t.Fatalf("expected tag plus count only, got %d bytes", buf.Len())
	}

	req, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("decoding empty wait request failed: %v", err)
	}
	if req.Op != common.OpWait || len(req.Keys) != 0 {
		t.Errorf("decoded request does not match: %+v", req)
	}
}

func TestReadRequestRejectsReplyTag(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOp(&buf, common.OpStopWaiting); err != nil {
		t.Fatalf("writing tag failed: %v", err)
	}

	if _, err := ReadRequest(&buf); err == nil {
		t.Errorf("expected stop_waiting to be rejected as a request tag")
	}
}

func TestReadRequestRejectsUnknownTag(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x7f})
	if _, err := ReadRequest(buf); err == nil {
		t.Errorf("expected unknown tag to be rejected")
	}
}

func TestReadRequestCleanCloseIsEOF(t *testing.T) {
	if _, err := ReadRequest(bytes.NewBuffer(nil)); err != io.EOF {
		t.Errorf("expected io.EOF on a closed peer between frames, got %v", err)
	}
}

func TestTruncatedFrame(t *testing.T) {
	// a stream that dies mid-frame must not surface as a clean close
	var full bytes.Buffer
	if err := WriteSetRequest(&full, "key", []byte("value")); err != nil {
		t.Fatalf("encoding failed: %v", err)
	}

	truncated := full.Bytes()[:full.Len()-2]
	_, err := ReadRequest(bytes.NewBuffer(truncated))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF for truncated frame, got %v", err)
	}
	if errors.Is(err, io.EOF) {
		t.Errorf("truncation must not surface as a clean close, got %v", err)
	}
}

func TestOversizedLengthRejected(t *testing.T) {
	// tag + a length prefix far beyond the frame limit, no payload
	var buf bytes.Buffer
	buf.WriteByte(byte(common.OpGet))
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], maxFrameSize+1)
	buf.Write(header[:])

	if _, err := ReadRequest(&buf); err == nil {
		t.Errorf("expected oversized length prefix to be rejected")
	}
}

func TestNilBytesSentinel(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNilBytes(&buf); err != nil {
		t.Fatalf("writing nil sentinel failed: %v", err)
	}

	value, ok, err := ReadBytes(&buf)
	if err != nil {
		t.Fatalf("reading nil sentinel failed: %v", err)
	}
	if ok || value != nil {
		t.Errorf("expected nil sentinel, got ok=%v value=%v", ok, value)
	}

	// an empty blob is distinct from the nil sentinel
	buf.Reset()
	if err := WriteBytes(&buf, []byte{}); err != nil {
		t.Fatalf("writing empty blob failed: %v", err)
	}
	value, ok, err = ReadBytes(&buf)
	if err != nil {
		t.Fatalf("reading empty blob failed: %v", err)
	}
	if !ok || len(value) != 0 {
		t.Errorf("expected empty blob, got ok=%v value=%v", ok, value)
	}
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteString(&buf, "héllo/世界"); err != nil {
		t.Fatalf("writing string failed: %v", err)
	}
	s, err := ReadString(&buf)
	if err != nil {
		t.Fatalf("reading string failed: %v", err)
	}
	if s != "héllo/世界" {
		t.Errorf("expected string to round-trip, got %q", s)
	}
}

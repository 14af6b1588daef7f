package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/distanthq/distant/common/protocol"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	want := protocol.Envelope{
		Id: "1",
		Payload: protocol.ReadFileRequest{
			Path: "/tmp/foo",
		},
	}
	if err := enc.Encode(want); err != nil {
		t.Fatal(err)
	}

	dec := NewDecoder(&buf)
	got, err := dec.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if got.Id != want.Id {
		t.Fatalf("id: got %q want %q", got.Id, want.Id)
	}
	req, ok := got.Payload.(protocol.ReadFileRequest)
	if !ok {
		t.Fatalf("payload type: got %T", got.Payload)
	}
	if req.Path != "/tmp/foo" {
		t.Fatalf("path: got %q", req.Path)
	}
}

func TestDecodeMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(protocol.Envelope{Id: "x", Payload: protocol.ExistsRequest{Path: "/a"}}); err != nil {
			t.Fatal(err)
		}
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 3; i++ {
		if _, err := dec.Decode(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if _, err := dec.Decode(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated at stream end, got %v", err)
	}
}

func TestDecodeUnknownVariant(t *testing.T) {
	dec := NewDecoder(bytes.NewBufferString(`{"id":"1","payload":{"type":"not_a_real_type"}}` + "\n"))
	_, err := dec.Decode()
	var unknown *protocol.UnknownVariantError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *protocol.UnknownVariantError, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	dec := NewDecoder(bytes.NewBufferString(`{"id":"1","payload":{"type":"read_file","path":123}}` + "\n"))
	_, err := dec.Decode()
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	dec := NewDecoder(bytes.NewBufferString(`{"id":"1","payload":{"type":"read_file"`))
	_, err := dec.Decode()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestDecodeEmptyStreamIsTruncated(t *testing.T) {
	dec := NewDecoder(io.MultiReader())
	if _, err := dec.Decode(); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated on empty stream, got %v", err)
	}
}

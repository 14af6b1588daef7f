// Package codec frames protocol.Envelope values on a byte stream. Each
// frame is one JSON object; framing relies on encoding/json.Decoder's
// ability to read exactly one value and leave the stream positioned at
// the next, the same bufio-backed streaming style the daemon's original
// socket plumbing used for HTTP framing.
package codec

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/distanthq/distant/common/protocol"
)

// ErrTruncated is returned by Decoder.Decode when the stream ends (or the
// underlying connection closes), whether cleanly between frames or in the
// middle of one.
var ErrTruncated = errors.New("codec: truncated frame")

// MalformedError wraps a frame that was read in full but whose payload did
// not match its declared `type`'s schema, distinguishing this from a
// truncated read or an unrecognized discriminant.
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string { return fmt.Sprintf("codec: malformed frame: %s", e.Err) }
func (e *MalformedError) Unwrap() error { return e.Err }

// Decoder reads a sequence of framed Envelopes from a stream.
type Decoder struct {
	json *json.Decoder
}

// NewDecoder wraps r for reading, buffering internally.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{json: json.NewDecoder(bufio.NewReader(r))}
}

// Decode reads the next Envelope from the stream. It never retries
// internally: callers that get ErrTruncated should treat the connection as
// closed, and callers that get a *MalformedError or
// *protocol.UnknownVariantError may choose to skip the frame or tear down
// the session.
func (d *Decoder) Decode() (protocol.Envelope, error) {
	var env protocol.Envelope
	err := d.json.Decode(&env)
	switch {
	case err == nil:
		return env, nil
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return protocol.Envelope{}, ErrTruncated
	default:
		var unknown *protocol.UnknownVariantError
		if errors.As(err, &unknown) {
			return protocol.Envelope{}, err
		}
		return protocol.Envelope{}, &MalformedError{Err: err}
	}
}

// Encoder writes a sequence of framed Envelopes to a stream.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder wraps w for writing, buffering internally. Callers that share
// an Encoder across goroutines must serialize calls to Encode themselves;
// rpc.Client and rpc.Router each hold a mutex around Encode, and auth's
// codec stream writes only before either of them takes over the connection.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one Envelope, flushing immediately so each frame reaches
// the peer without waiting on a buffer to fill.
func (e *Encoder) Encode(env protocol.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(body); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}

// Package auth implements the authentication state machine shared by the
// distant client (Responder) and server (Authenticator): method
// negotiation, the per-method challenge/verification exchange, and the
// Fatal/recoverable error semantics that decide whether negotiation moves
// to the next method or tears down the session.
package auth

import (
	"errors"
	"fmt"
	"io/fs"

	uuid "github.com/satori/go.uuid"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/protocol/codec"
)

// Stream is the minimal duplex needed to run authentication: send one
// Message, receive the next. Both Authenticator and Responder use it
// without caring whether the peer is reachable over a raw connection
// (authentication time) or via the rpc package's multiplexer.
type Stream interface {
	Send(msg protocol.Message) error
	Recv() (protocol.Message, error)
}

// codecStream adapts a codec.Encoder/Decoder pair, run before the session's
// rpc multiplexer exists, into a Stream. Every envelope it sends carries a
// fresh id and no OriginId; authentication is a strict back-and-forth so
// correlation by id is unnecessary until the rpc layer takes over.
type codecStream struct {
	enc *codec.Encoder
	dec *codec.Decoder
}

// NewCodecStream wraps enc/dec, which must be reading from and writing to
// the same connection, as a Stream suitable for Authenticator.Run or
// Responder.Run.
func NewCodecStream(enc *codec.Encoder, dec *codec.Decoder) Stream {
	return &codecStream{enc: enc, dec: dec}
}

func (s *codecStream) Send(msg protocol.Message) error {
	return s.enc.Encode(protocol.Envelope{Id: uuid.NewV4().String(), Payload: msg})
}

func (s *codecStream) Recv() (protocol.Message, error) {
	env, err := s.dec.Decode()
	if err != nil {
		return nil, err
	}
	return env.Payload, nil
}

// FatalError marks an authentication failure that must end the session
// immediately rather than fall through to the next negotiated method.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so the Authenticator reports it as ErrorKindFatal and
// stops trying further methods.
func Fatal(err error) error { return &FatalError{Err: err} }

// ErrAllMethodsFailed is returned by Authenticator.Run when every
// negotiated method was attempted and none succeeded, none of them fatally.
var ErrAllMethodsFailed = errors.New("auth: all negotiated methods failed")

// ErrUnexpectedMessage is returned when a peer sends a message the current
// state does not accept.
var ErrUnexpectedMessage = errors.New("auth: unexpected message for current state")

// RemoteFatalError is returned by Responder.Run when the authenticator
// reported ErrorKindFatal. It matches fs.ErrPermission under errors.Is, so
// a caller sees a fatal authentication failure as permission denied.
type RemoteFatalError struct {
	Text string
}

func (e *RemoteFatalError) Error() string { return "auth: " + e.Text }

// Is reports whether target is fs.ErrPermission.
func (e *RemoteFatalError) Is(target error) bool { return target == fs.ErrPermission }

package auth

import (
	"fmt"

	"github.com/distanthq/distant/common/protocol"
)

// Authenticator drives the authenticating side of the state machine
// against a fixed, ordered set of methods it is willing to offer. Order is
// the authenticator's preference: when Run selects which of the
// responder's chosen methods to try first, it walks its own Methods in
// order and takes the first one the responder also named.
type Authenticator struct {
	Methods []AuthenticatorMethod
}

func (a *Authenticator) byName(name string) AuthenticatorMethod {
	for _, m := range a.Methods {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Run executes a full negotiation over s: advertise methods, read back the
// responder's subset, then try each selected method in the authenticator's
// preference order until one succeeds, a fatal error occurs, or all fail.
func (a *Authenticator) Run(s Stream) error {
	names := make([]string, len(a.Methods))
	for i, m := range a.Methods {
		names[i] = m.Name()
	}
	if err := s.Send(protocol.AuthInitialization{Methods: names}); err != nil {
		return err
	}

	msg, err := s.Recv()
	if err != nil {
		return err
	}
	initResp, ok := msg.(protocol.AuthInitializationResponse)
	if !ok {
		return ErrUnexpectedMessage
	}
	chosen := map[string]bool{}
	for _, n := range initResp.Methods {
		chosen[n] = true
	}

	var attempted bool
	for _, m := range a.Methods {
		if !chosen[m.Name()] {
			continue
		}
		attempted = true
		if err := s.Send(protocol.AuthStartMethod{Method: m.Name()}); err != nil {
			return err
		}

		authErr := m.Authenticate(s)
		if authErr == nil {
			return s.Send(protocol.AuthFinished{})
		}

		fatal, isFatal := asFatal(authErr)
		if isFatal {
			_ = s.Send(protocol.AuthError{Kind: protocol.ErrorKindFatal, Text: fatal.Error()})
			return fatal
		}
		if err := s.Send(protocol.AuthError{Kind: protocol.ErrorKindError, Text: authErr.Error()}); err != nil {
			return err
		}
	}

	if !attempted {
		err := Fatal(fmt.Errorf("auth: responder chose no method from %v", names))
		_ = s.Send(protocol.AuthError{Kind: protocol.ErrorKindFatal, Text: err.Error()})
		return err
	}
	_ = s.Send(protocol.AuthError{Kind: protocol.ErrorKindFatal, Text: ErrAllMethodsFailed.Error()})
	return ErrAllMethodsFailed
}

func asFatal(err error) (*FatalError, bool) {
	f, ok := err.(*FatalError)
	return f, ok
}

// Responder drives the responding side against a fixed, ordered set of
// methods it supports. Order is the responder's own preference among
// whatever subset the authenticator offered.
type Responder struct {
	Methods []ResponderMethod
	// OnInfo, if set, is called for every AuthInfo the authenticator
	// sends during negotiation.
	OnInfo func(text string)
}

func (r *Responder) byName(name string) ResponderMethod {
	for _, m := range r.Methods {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Run executes a full negotiation over s from the responding side,
// returning nil only once AuthFinished is observed.
func (r *Responder) Run(s Stream) error {
	msg, err := s.Recv()
	if err != nil {
		return err
	}
	init, ok := msg.(protocol.AuthInitialization)
	if !ok {
		return ErrUnexpectedMessage
	}

	offered := map[string]bool{}
	for _, n := range init.Methods {
		offered[n] = true
	}
	var selected []string
	for _, m := range r.Methods {
		if offered[m.Name()] {
			selected = append(selected, m.Name())
		}
	}
	if err := s.Send(protocol.AuthInitializationResponse{Methods: selected}); err != nil {
		return err
	}

	for {
		msg, err := s.Recv()
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case protocol.AuthStartMethod:
			method := r.byName(m.Method)
			if method == nil {
				return fmt.Errorf("auth: authenticator started unsupported method %q", m.Method)
			}
			if err := method.Respond(s); err != nil {
				return err
			}
		case protocol.AuthInfo:
			if r.OnInfo != nil {
				r.OnInfo(m.Text)
			}
		case protocol.AuthError:
			if m.IsFatal() {
				return &RemoteFatalError{Text: m.Text}
			}
			// Recoverable: the authenticator will offer another
			// AuthStartMethod or give up with a fatal AuthError.
		case protocol.AuthFinished:
			return nil
		default:
			return ErrUnexpectedMessage
		}
	}
}

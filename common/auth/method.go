package auth

import "github.com/distanthq/distant/common/protocol"

// Method is one negotiable authentication method, named on the wire by
// Name().
type Method interface {
	Name() string
}

// AuthenticatorMethod drives one method's turn from the authenticating
// side (the server in this deployment model). Authenticate
// returns a recoverable error to let the Authenticator try the next
// negotiated method, or an error wrapped with Fatal to end the session.
type AuthenticatorMethod interface {
	Method
	Authenticate(s Stream) error
}

// ResponderMethod drives one method's turn from the responding side (the
// client). Respond must consume exactly the messages this method's
// Authenticate half produces, leaving the stream positioned at the next
// AuthStartMethod, AuthError, or AuthFinished.
type ResponderMethod interface {
	Method
	Respond(s Stream) error
}

// NoneMethod succeeds immediately with no exchange. It exists for local
// or already-trusted transports (e.g. a Unix socket restricted to the
// calling user) where an additional handshake adds nothing.
type NoneMethod struct{}

func (NoneMethod) Name() string            { return "none" }
func (NoneMethod) Authenticate(Stream) error { return nil }
func (NoneMethod) Respond(Stream) error      { return nil }

// ChallengeMethod asks the responder a fixed ordered set of Questions and
// hands the answers to Verify, which returns a recoverable error (wrong
// answer, retry allowed by negotiating the method again) or nil.
type ChallengeMethod struct {
	MethodName string
	Questions  []protocol.Question
	Options    map[string]string
	// Verify checks the responder's answers, in the same order as
	// Questions. It runs only on the authenticating side.
	Verify func(answers []string) error
	// Answer produces answers for the given questions. It runs only on
	// the responding side.
	Answer func(questions []protocol.Question) ([]string, error)
}

func (m *ChallengeMethod) Name() string { return m.MethodName }

func (m *ChallengeMethod) Authenticate(s Stream) error {
	if err := s.Send(protocol.AuthChallenge{Questions: m.Questions, Options: m.Options}); err != nil {
		return err
	}
	msg, err := s.Recv()
	if err != nil {
		return err
	}
	resp, ok := msg.(protocol.AuthChallengeResponse)
	if !ok {
		return ErrUnexpectedMessage
	}
	if len(resp.Answers) != len(m.Questions) {
		return ErrUnexpectedMessage
	}
	return m.Verify(resp.Answers)
}

func (m *ChallengeMethod) Respond(s Stream) error {
	msg, err := s.Recv()
	if err != nil {
		return err
	}
	challenge, ok := msg.(protocol.AuthChallenge)
	if !ok {
		return ErrUnexpectedMessage
	}
	answers, err := m.Answer(challenge.Questions)
	if err != nil {
		return err
	}
	return s.Send(protocol.AuthChallengeResponse{Answers: answers})
}

// VerifyMethod asks the responder to confirm some out-of-band fact (e.g. a
// host key fingerprint the user has not seen before) and reports back a
// boolean, mirroring an SSH-style trust-on-first-use prompt.
type VerifyMethod struct {
	MethodName string
	Kind       protocol.VerificationKind
	Text       string
	// Accept runs on the responding side to decide Valid; typically a
	// terminal prompt.
	Accept func(kind protocol.VerificationKind, text string) (bool, error)
}

func (m *VerifyMethod) Name() string { return m.MethodName }

func (m *VerifyMethod) Authenticate(s Stream) error {
	if err := s.Send(protocol.AuthVerification{Kind: m.Kind, Text: m.Text}); err != nil {
		return err
	}
	msg, err := s.Recv()
	if err != nil {
		return err
	}
	resp, ok := msg.(protocol.AuthVerificationResponse)
	if !ok {
		return ErrUnexpectedMessage
	}
	if !resp.Valid {
		return errVerificationRejected
	}
	return nil
}

func (m *VerifyMethod) Respond(s Stream) error {
	msg, err := s.Recv()
	if err != nil {
		return err
	}
	verification, ok := msg.(protocol.AuthVerification)
	if !ok {
		return ErrUnexpectedMessage
	}
	valid, err := m.Accept(verification.Kind, verification.Text)
	if err != nil {
		return err
	}
	return s.Send(protocol.AuthVerificationResponse{Valid: valid})
}

var errVerificationRejected = &rejectedError{}

type rejectedError struct{}

func (*rejectedError) Error() string { return "auth: verification rejected by responder" }

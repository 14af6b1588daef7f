package auth

import (
	"errors"
	"sync"
	"testing"

	"github.com/distanthq/distant/common/protocol"
)

// chanStream connects two in-process Stream endpoints so Authenticator.Run
// and Responder.Run can be exercised together without a real socket.
type chanStream struct {
	out chan protocol.Message
	in  chan protocol.Message
}

func newChanStreamPair() (Stream, Stream) {
	a := make(chan protocol.Message, 16)
	b := make(chan protocol.Message, 16)
	return &chanStream{out: a, in: b}, &chanStream{out: b, in: a}
}

func (s *chanStream) Send(msg protocol.Message) error {
	s.out <- msg
	return nil
}

func (s *chanStream) Recv() (protocol.Message, error) {
	msg, ok := <-s.in
	if !ok {
		return nil, errors.New("chanStream: closed")
	}
	return msg, nil
}

func TestNegotiateHappyPath(t *testing.T) {
	serverSide, clientSide := newChanStreamPair()

	authenticator := &Authenticator{
		Methods: []AuthenticatorMethod{
			&ChallengeMethod{
				MethodName: "password",
				Questions:  []protocol.Question{protocol.NewQuestion("password?")},
				Verify: func(answers []string) error {
					if answers[0] != "hunter2" {
						return errors.New("wrong password")
					}
					return nil
				},
			},
		},
	}
	responder := &Responder{
		Methods: []ResponderMethod{
			&ChallengeMethod{
				MethodName: "password",
				Answer: func(questions []protocol.Question) ([]string, error) {
					return []string{"hunter2"}, nil
				},
			},
		},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	var serverErr, clientErr error
	go func() { defer wg.Done(); serverErr = authenticator.Run(serverSide) }()
	go func() { defer wg.Done(); clientErr = responder.Run(clientSide) }()
	wg.Wait()

	if serverErr != nil {
		t.Fatalf("authenticator: %v", serverErr)
	}
	if clientErr != nil {
		t.Fatalf("responder: %v", clientErr)
	}
}

func TestNegotiateFatalOnNoSharedMethod(t *testing.T) {
	serverSide, clientSide := newChanStreamPair()

	authenticator := &Authenticator{
		Methods: []AuthenticatorMethod{&fatalCapableMethod{name: "only_server_knows"}},
	}
	responder := &Responder{
		Methods: []ResponderMethod{&fatalCapableMethod{name: "only_client_knows"}},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	var serverErr, clientErr error
	go func() { defer wg.Done(); serverErr = authenticator.Run(serverSide) }()
	go func() { defer wg.Done(); clientErr = responder.Run(clientSide) }()
	wg.Wait()

	if serverErr == nil {
		t.Fatal("expected authenticator to fail when no method is shared")
	}
	var remoteFatal *RemoteFatalError
	if !errors.As(clientErr, &remoteFatal) {
		t.Fatalf("expected responder to observe a RemoteFatalError, got %v", clientErr)
	}
}

func TestNegotiateRejectedVerificationFallsThrough(t *testing.T) {
	serverSide, clientSide := newChanStreamPair()

	authenticator := &Authenticator{
		Methods: []AuthenticatorMethod{
			&VerifyMethod{MethodName: "host", Kind: protocol.VerificationHost, Text: "deadbeef"},
		},
	}
	responder := &Responder{
		Methods: []ResponderMethod{
			&VerifyMethod{MethodName: "host", Accept: func(protocol.VerificationKind, string) (bool, error) {
				return false, nil
			}},
		},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	var serverErr, clientErr error
	go func() { defer wg.Done(); serverErr = authenticator.Run(serverSide) }()
	go func() { defer wg.Done(); clientErr = responder.Run(clientSide) }()
	wg.Wait()

	if !errors.Is(serverErr, ErrAllMethodsFailed) {
		t.Fatalf("expected ErrAllMethodsFailed, got %v", serverErr)
	}
	var remoteFatal *RemoteFatalError
	if !errors.As(clientErr, &remoteFatal) {
		t.Fatalf("expected responder to observe final fatal error, got %v", clientErr)
	}
}

// fatalCapableMethod is a trivial method used only to exercise the
// no-shared-method path; its Authenticate/Respond are unreachable there.
type fatalCapableMethod struct{ name string }

func (m *fatalCapableMethod) Name() string               { return m.name }
func (m *fatalCapableMethod) Authenticate(Stream) error   { return nil }
func (m *fatalCapableMethod) Respond(Stream) error        { return nil }

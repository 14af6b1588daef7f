// Package session holds the dial-authenticate-multiplex sequence shared by
// every distant-client subcommand, generalized from
// daemon/client/client.go's DaemonDialWithTimeout-then-request shape: dial
// the endpoint, run one round of authentication over the raw connection,
// then hand the same connection to rpc.NewClient for the rest of the
// session.
package session

import (
	"fmt"
	"net"

	"github.com/distanthq/distant/common/auth"
	"github.com/distanthq/distant/common/protocol/codec"
	"github.com/distanthq/distant/common/rpc"
	"github.com/distanthq/distant/common/transport"
)

// Session bundles the dialed connection with the rpc.Client multiplexing
// it, so callers can Close both together.
type Session struct {
	Conn   net.Conn
	Client *rpc.Client
}

// Close closes the underlying connection, which unblocks the rpc.Client's
// read loop.
func (s *Session) Close() error {
	return s.Conn.Close()
}

// Dial connects to ep, runs responder against the server's authenticator,
// and returns a Session ready for Send/Subscribe. responder.Methods should
// list every method this client is prepared to answer, in the client's
// preference order; NoneMethod alone is sufficient against a server
// configured with no other methods.
func Dial(ep transport.Endpoint, responder *auth.Responder) (*Session, error) {
	conn, err := transport.Dial(ep)
	if err != nil {
		return nil, err
	}

	dec := codec.NewDecoder(conn)
	enc := codec.NewEncoder(conn)

	stream := auth.NewCodecStream(enc, dec)
	if err := responder.Run(stream); err != nil {
		conn.Close()
		return nil, fmt.Errorf("session: authentication failed: %w", err)
	}

	return &Session{Conn: conn, Client: rpc.NewClient(enc, dec)}, nil
}

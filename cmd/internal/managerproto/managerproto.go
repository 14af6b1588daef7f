// Package managerproto is the small HTTP-over-Unix-socket protocol
// distant-client's "launch" subcommand and distant-manager speak to each
// other, grounded directly on daemon/client/client.go's
// RequestKrdVersionOver (http.NewRequest against a net.Conn, parse with
// http.ReadResponse) and daemon/control/server.go's http.ServeMux handler
// table — generalized from krd's single /version endpoint to /version,
// /launch, and /list.
package managerproto

// LaunchResponse is returned by POST /launch: the manager's own id for the
// server process it just started, and the socket path that process is
// listening on.
type LaunchResponse struct {
	Id       string `json:"id"`
	Endpoint string `json:"endpoint"`
	Pid      int    `json:"pid"`
}

// Session describes one manager-tracked distant-server for GET /list.
type Session struct {
	Id       string `json:"id"`
	Endpoint string `json:"endpoint"`
	Pid      int    `json:"pid"`
}

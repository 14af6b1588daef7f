//go:build !windows
// +build !windows

package transport

import (
	"fmt"
	"net"
	"os"
)

// Listen creates a Unix domain socket at ep.Path, removing any stale
// socket file left behind by an unclean shutdown, and applies ep.Access as
// the file's permission bits.
func Listen(ep Endpoint) (net.Listener, error) {
	_ = os.Remove(ep.Path)
	listener, err := net.Listen("unix", ep.Path)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", ep.Path, err)
	}
	mode, err := ep.Access.Mode()
	if err != nil {
		listener.Close()
		return nil, err
	}
	if err := os.Chmod(ep.Path, os.FileMode(mode)); err != nil {
		listener.Close()
		return nil, fmt.Errorf("transport: chmod %s: %w", ep.Path, err)
	}
	return listener, nil
}

// Dial connects to a Unix domain socket previously created with Listen.
func Dial(ep Endpoint) (net.Conn, error) {
	return dialUnix(ep.Path)
}

//go:build windows
// +build windows

package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	winio "github.com/Microsoft/go-winio"
)

// securityDescriptor returns the SDDL string approximating AccessControl's
// Unix permission bits for a named pipe: owner-only, local-group
// read/write, or world read/write.
func securityDescriptor(a AccessControl) (string, error) {
	switch a {
	case AccessOwner:
		return "D:P(A;;GA;;;OW)", nil
	case AccessGroup:
		return "D:P(A;;GA;;;OW)(A;;GA;;;BU)", nil
	case AccessAnyone:
		return "D:P(A;;GA;;;WD)", nil
	default:
		return "", fmt.Errorf("transport: unknown access control %q", a)
	}
}

// Listen creates a named pipe at ep.Path (conventionally
// \\.\pipe\<name>), restricted per ep.Access.
func Listen(ep Endpoint) (net.Listener, error) {
	sd, err := securityDescriptor(ep.Access)
	if err != nil {
		return nil, err
	}
	listener, err := winio.ListenPipe(ep.Path, &winio.PipeConfig{
		SecurityDescriptor: sd,
		MessageMode:        false,
		InputBufferSize:    65536,
		OutputBufferSize:   65536,
	})
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", ep.Path, err)
	}
	return listener, nil
}

// Dial connects to a named pipe previously created with Listen.
func Dial(ep Endpoint) (net.Conn, error) {
	ctx, cancel := dialContext()
	defer cancel()
	conn, err := winio.DialPipeContext(ctx, ep.Path)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", ep.Path, err)
	}
	return conn, nil
}

func dialContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

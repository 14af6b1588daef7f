// Package shell implements the client-side PTY bridge: the
// single stateful verb that binds a local terminal to a remote spawned
// process over an already-authenticated rpc.Client connection. Sequencing
// (TERM injection, shell selection via system_info, initial PTY sizing,
// raw mode, pump tasks, exit code mapping) is grounded directly on the
// original CLI's client/shell.rs.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/rpc"
)

// ExitError carries a remote process's exit code so cmd/distant-client's
// main can map it onto the process's own exit status.
type ExitError struct {
	Code int32
}

func (e *ExitError) Error() string { return fmt.Sprintf("remote process exited with code %d", e.Code) }

// genericFailureCode is used when a remote process fails without
// reporting a code.
const genericFailureCode = 1

// Spawn runs cmd (or, if empty, a shell chosen via system_info) attached
// to a remote PTY, pumping the local terminal's raw bytes and resize
// events to it and the remote stdout back to local stdout, until the
// remote process exits. It returns nil on a successful exit, *ExitError
// on a nonzero remote exit, or any local/transport error encountered.
func Spawn(ctx context.Context, client *rpc.Client, cmd string, args []string, env protocol.Environment, persist bool) error {
	if env == nil {
		env = protocol.Environment{}
	}
	// Step 1: TERM is always forwarded, defaulted if the caller didn't
	// set one.
	if _, ok := env["TERM"]; !ok {
		env["TERM"] = "xterm-256color"
	}

	// Step 2: an explicit cmd wins; otherwise ask the remote what family
	// it is and pick a shell for it.
	if cmd == "" {
		info, err := systemInfo(ctx, client)
		if err != nil {
			return fmt.Errorf("shell: failed to detect remote operating system: %w", err)
		}
		if info.Family == "windows" {
			cmd = "cmd.exe"
		} else {
			cmd = "/bin/sh"
		}
	}

	// Step 3: measure the local terminal; omit PtySize entirely if
	// stdin isn't a terminal (the server falls back to a default).
	var pty *protocol.PtySize
	if size, ok := localSize(); ok {
		pty = &size
	}

	sub, first, err := client.Subscribe(ctx, protocol.ProcSpawnRequest{
		Cmd:     cmd,
		Args:    args,
		Env:     env,
		Persist: persist,
		Pty:     pty,
	}, 0)
	if err != nil {
		return fmt.Errorf("shell: failed to spawn %s: %w", cmd, err)
	}
	spawned, ok := first.Payload.(protocol.ProcSpawnedResponse)
	if !ok {
		sub.Close()
		return fmt.Errorf("shell: unexpected ack payload %T", first.Payload)
	}
	procID := spawned.Id

	// Step 4: raw mode, scoped so every exit path (including a panic
	// propagating past this function) restores the terminal before the
	// process exits.
	restore, haveRaw := enterRawMode()
	defer func() {
		if haveRaw {
			restore()
		}
		if !persist {
			_, _ = client.Send(context.Background(), protocol.ProcKillRequest{Id: procID})
		}
		sub.Close()
	}()

	pumpCtx, cancelPumps := context.WithCancel(ctx)
	defer cancelPumps()

	// Step 5: pump local keystrokes to the remote stdin and local
	// resize events to proc_resize.
	go pumpStdin(pumpCtx, client, procID)
	stopResize := watchResize(pumpCtx, client, procID)
	defer stopResize()

	// Step 6: forward remote stdout/stderr byte-for-byte, no added
	// framing, until proc_done.
	for {
		select {
		case env, ok := <-sub.C():
			if !ok {
				return fmt.Errorf("shell: connection closed before remote process finished")
			}
			switch r := env.Payload.(type) {
			case protocol.ProcStdoutResponse:
				_, _ = os.Stdout.Write(r.Data)
			case protocol.ProcStderrResponse:
				_, _ = os.Stderr.Write(r.Data)
			case protocol.ProcDoneResponse:
				return exitResult(r)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// exitResult maps a ProcDoneResponse to Spawn's return value.
func exitResult(r protocol.ProcDoneResponse) error {
	if r.Success {
		return nil
	}
	if r.Code != nil {
		return &ExitError{Code: *r.Code}
	}
	return &ExitError{Code: genericFailureCode}
}

func systemInfo(ctx context.Context, client *rpc.Client) (protocol.SystemInfoResponse, error) {
	env, err := client.Send(ctx, protocol.SystemInfoRequest{})
	if err != nil {
		return protocol.SystemInfoResponse{}, err
	}
	info, ok := env.Payload.(protocol.SystemInfoResponse)
	if !ok {
		return protocol.SystemInfoResponse{}, fmt.Errorf("unexpected payload %T", env.Payload)
	}
	return info, nil
}

func localSize() (protocol.PtySize, bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return protocol.PtySize{}, false
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return protocol.PtySize{}, false
	}
	return protocol.PtySize{Rows: uint16(rows), Cols: uint16(cols)}, true
}

// enterRawMode puts stdin into raw mode if it is a terminal, returning a
// no-op restore function otherwise.
func enterRawMode() (restore func(), ok bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, false
	}
	return func() { _ = term.Restore(fd, state) }, true
}

// pumpStdin copies raw bytes read from the local terminal to the remote
// process's stdin until ctx is canceled or stdin closes. Bytes read from a
// terminal already in raw mode are the exact xterm-style escape sequences
// the remote shell expects; no further encoding is needed.
func pumpStdin(ctx context.Context, client *rpc.Client, procID uint32) {
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if _, sendErr := client.Send(ctx, protocol.ProcStdinRequest{Id: procID, Data: data}); sendErr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				return
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

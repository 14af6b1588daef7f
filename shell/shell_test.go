package shell

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/protocol/codec"
	"github.com/distanthq/distant/common/rpc"
)

// TestSpawnForwardsTermAndReportsExitCode exercises Spawn end-to-end over
// an in-memory rpc.Client/Router pair without a real PTY: it asserts that
// TERM is injected when missing and that a nonzero exit is reported as an
// *ExitError carrying the remote code.
func TestSpawnForwardsTermAndReportsExitCode(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	router := rpc.NewRouter()
	var gotEnv protocol.Environment
	router.Handle(protocol.TypeProcSpawn, func(ctx *rpc.Context, req protocol.Message) error {
		r := req.(protocol.ProcSpawnRequest)
		gotEnv = r.Env
		if err := ctx.Reply(protocol.ProcSpawnedResponse{Id: 1}); err != nil {
			return err
		}
		code := int32(7)
		return ctx.Push(protocol.ProcDoneResponse{Id: 1, Success: false, Code: &code})
	})
	router.Handle(protocol.TypeProcKill, func(ctx *rpc.Context, req protocol.Message) error {
		return ctx.Reply(protocol.OkResponse{})
	})
	go router.Serve(context.Background(), codec.NewDecoder(serverConn), codec.NewEncoder(serverConn), nil)

	client := rpc.NewClient(codec.NewEncoder(clientConn), codec.NewDecoder(clientConn))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := Spawn(ctx, client, "/bin/true", nil, protocol.Environment{}, false)
	exitErr, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %v (%T)", err, err)
	}
	if exitErr.Code != 7 {
		t.Fatalf("expected exit code 7, got %d", exitErr.Code)
	}
	if gotEnv["TERM"] != "xterm-256color" {
		t.Fatalf("expected TERM to be defaulted, got %q", gotEnv["TERM"])
	}
}

func TestSpawnSuccessReturnsNil(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	router := rpc.NewRouter()
	router.Handle(protocol.TypeProcSpawn, func(ctx *rpc.Context, req protocol.Message) error {
		if err := ctx.Reply(protocol.ProcSpawnedResponse{Id: 1}); err != nil {
			return err
		}
		return ctx.Push(protocol.ProcDoneResponse{Id: 1, Success: true})
	})
	router.Handle(protocol.TypeProcKill, func(ctx *rpc.Context, req protocol.Message) error {
		return ctx.Reply(protocol.OkResponse{})
	})
	go router.Serve(context.Background(), codec.NewDecoder(serverConn), codec.NewEncoder(serverConn), nil)

	client := rpc.NewClient(codec.NewEncoder(clientConn), codec.NewDecoder(clientConn))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := Spawn(ctx, client, "/bin/true", nil, protocol.Environment{"TERM": "vt100"}, true); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

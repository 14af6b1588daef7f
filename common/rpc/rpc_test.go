package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/protocol/codec"
)

func TestSendRequestResponse(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	router := NewRouter()
	router.Handle(protocol.TypeExists, func(ctx *Context, req protocol.Message) error {
		r := req.(protocol.ExistsRequest)
		return ctx.Reply(protocol.ExistsResponse{Value: r.Path == "/real"})
	})
	go router.Serve(context.Background(), codec.NewDecoder(serverConn), codec.NewEncoder(serverConn), nil)

	client := NewClient(codec.NewEncoder(clientConn), codec.NewDecoder(clientConn))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	env, err := client.Send(ctx, protocol.ExistsRequest{Path: "/real"})
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := env.Payload.(protocol.ExistsResponse)
	if !ok {
		t.Fatalf("unexpected payload type %T", env.Payload)
	}
	if !resp.Value {
		t.Fatal("expected exists=true")
	}
}

func TestSubscribeReceivesStreamedItems(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	router := NewRouter()
	router.Handle(protocol.TypeWatch, func(ctx *Context, req protocol.Message) error {
		if err := ctx.Reply(protocol.OkResponse{}); err != nil {
			return err
		}
		return ctx.Push(protocol.ChangedResponse{Kind: protocol.ChangeModifyData, Paths: []string{"/a/b"}})
	})
	go router.Serve(context.Background(), codec.NewDecoder(serverConn), codec.NewEncoder(serverConn), nil)

	client := NewClient(codec.NewEncoder(clientConn), codec.NewDecoder(clientConn))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sub, first, err := client.Subscribe(ctx, protocol.WatchRequest{Path: "/a", Recursive: false}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := first.Payload.(protocol.OkResponse); !ok {
		t.Fatalf("expected OkResponse ack, got %T", first.Payload)
	}

	select {
	case env := <-sub.C():
		changed, ok := env.Payload.(protocol.ChangedResponse)
		if !ok {
			t.Fatalf("unexpected payload type %T", env.Payload)
		}
		if changed.Paths[0] != "/a/b" {
			t.Fatalf("got %v", changed.Paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for streamed item")
	}
	sub.Close()
}

func TestSubscribeSurfacesErrorResponse(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	router := NewRouter()
	router.Handle(protocol.TypeWatch, func(ctx *Context, req protocol.Message) error {
		return ctx.Reply(protocol.ErrorResponse{Kind: protocol.ErrNotFound, Description: "no such path"})
	})
	go router.Serve(context.Background(), codec.NewDecoder(serverConn), codec.NewEncoder(serverConn), nil)

	client := NewClient(codec.NewEncoder(clientConn), codec.NewDecoder(clientConn))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := client.Subscribe(ctx, protocol.WatchRequest{Path: "/missing"}, 0)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestUnsupportedRequestType(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	router := NewRouter()
	go router.Serve(context.Background(), codec.NewDecoder(serverConn), codec.NewEncoder(serverConn), nil)

	client := NewClient(codec.NewEncoder(clientConn), codec.NewDecoder(clientConn))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	env, err := client.Send(ctx, protocol.CapabilitiesRequest{})
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := env.Payload.(protocol.ErrorResponse)
	if !ok {
		t.Fatalf("expected ErrorResponse, got %T", env.Payload)
	}
	if resp.Kind != protocol.ErrUnsupported {
		t.Fatalf("got kind %q", resp.Kind)
	}
}

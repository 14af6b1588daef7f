package rpc

import (
	"context"
	"sync"

	"github.com/op/go-logging"
	uuid "github.com/satori/go.uuid"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/protocol/codec"
)

// Handler processes one request envelope's payload, using ctx to send the
// acknowledgement and any further stream items under the same OriginId.
// Handlers for one-shot verbs call ctx.Reply once and return; handlers for
// watch/search/proc_spawn call ctx.Reply once with the ack and then
// ctx.Push repeatedly until their stream ends or ctx.Context() is done.
type Handler func(ctx *Context, req protocol.Message) error

// Router dispatches incoming requests by their wire type, spawning one
// goroutine per request so a slow or streaming handler never blocks other
// in-flight requests on the same connection — the same per-request
// goroutine-per-accept shape the daemon's control server used per
// connection, applied here per request.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter returns an empty Router; call Handle to register verbs before
// Serve.
func NewRouter() *Router {
	return &Router{handlers: map[string]Handler{}}
}

// Handle registers h for requests whose payload's MessageType() is typ.
func (r *Router) Handle(typ string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[typ] = h
}

func (r *Router) lookup(typ string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[typ]
	return h, ok
}

// Context is the per-request handle a Handler uses to reply and, for
// streaming verbs, push further envelopes under the same OriginId.
type Context struct {
	ctx      context.Context
	reqID    string
	enc      *codec.Encoder
	encMu    *sync.Mutex
	log      *logging.Logger
}

// Context returns the request-scoped context, canceled when the
// connection this request arrived on ends.
func (c *Context) Context() context.Context { return c.ctx }

// RequestID returns the id of the request this Context was created for.
// A watch is registered under this id, which a later Unwatch references;
// search and process follow-ups reference the server-assigned id sent in
// the first response instead.
func (c *Context) RequestID() string { return c.reqID }

// Reply sends one response envelope correlated to the request.
func (c *Context) Reply(payload protocol.Message) error {
	c.encMu.Lock()
	defer c.encMu.Unlock()
	return c.enc.Encode(protocol.Envelope{Id: uuid.NewV4().String(), OriginId: c.reqID, Payload: payload})
}

// Push is an alias of Reply used by streaming handlers to make call sites
// read as "ack once, then push repeatedly".
func (c *Context) Push(payload protocol.Message) error { return c.Reply(payload) }

// Serve reads framed requests from dec and dispatches each to its
// registered Handler, replying over enc, until dec returns an error (the
// connection closed or a frame could not be decoded) or ctx is canceled.
// Both directions share enc, guarded by an internal mutex, since a
// streaming handler's pushes and the dispatch loop's own error replies can
// run concurrently.
func (r *Router) Serve(ctx context.Context, dec *codec.Decoder, enc *codec.Encoder, log *logging.Logger) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var encMu sync.Mutex
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		env, err := dec.Decode()
		if err != nil {
			return err
		}

		reqCtx := &Context{ctx: connCtx, reqID: env.Id, enc: enc, encMu: &encMu, log: log}
		handler, ok := r.lookup(env.Payload.MessageType())
		if !ok {
			if err := reqCtx.Reply(protocol.ErrorResponse{
				Kind:        protocol.ErrUnsupported,
				Description: "unsupported request type: " + env.Payload.MessageType(),
			}); err != nil {
				return err
			}
			continue
		}

		wg.Add(1)
		go func(env protocol.Envelope) {
			defer wg.Done()
			if err := handler(reqCtx, env.Payload); err != nil {
				if log != nil {
					log.Error("rpc: handler error: " + err.Error())
				}
				_ = reqCtx.Reply(protocol.ErrorResponse{Kind: protocol.ErrOther, Description: err.Error()})
			}
		}(env)
	}
}

// Package rpc multiplexes one-shot requests and long-lived subscriptions
// (watch, search, spawned-process streams) over a single connection, the
// same way the protocol's Envelope.OriginId correlation is meant to be
// used.
package rpc

import (
	"context"
	"errors"
	"sync"

	uuid "github.com/satori/go.uuid"

	"github.com/distanthq/distant/common/protocol"
	"github.com/distanthq/distant/common/protocol/codec"
)

// DefaultSubscriptionBuffer is the high-water mark a lossy Subscription
// (see Client.SubscribeLossy) applies when the caller does not specify
// one. It matches the server.max_stream_buffer default the config package
// loads. Lossless subscriptions (the Subscribe default) never cap their
// queue and ignore this value entirely.
const DefaultSubscriptionBuffer = 256

// ErrClientClosed is returned by any in-flight or future call once the
// underlying connection's read loop has ended.
var ErrClientClosed = errors.New("rpc: client closed")

// Client is the connection-owning side of the multiplexer: it owns one
// background goroutine reading framed Envelopes and routing each by
// OriginId to whichever waiter or Subscription registered for it.
type Client struct {
	enc   *codec.Encoder
	encMu sync.Mutex

	mu      sync.Mutex
	waiters map[string]chan protocol.Envelope
	subs    map[string]*Subscription
	closed  chan struct{}
	closeErr error
}

// NewClient starts reading dec in a background goroutine and returns a
// Client ready to Send and Subscribe over enc. The caller remains
// responsible for closing the underlying connection.
func NewClient(enc *codec.Encoder, dec *codec.Decoder) *Client {
	c := &Client{
		enc:     enc,
		waiters: map[string]chan protocol.Envelope{},
		subs:    map[string]*Subscription{},
		closed:  make(chan struct{}),
	}
	go c.readLoop(dec)
	return c
}

func (c *Client) readLoop(dec *codec.Decoder) {
	for {
		env, err := dec.Decode()
		if err != nil {
			c.shutdown(err)
			return
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env protocol.Envelope) {
	c.mu.Lock()
	if ch, ok := c.waiters[env.OriginId]; ok {
		delete(c.waiters, env.OriginId)
		c.mu.Unlock()
		ch <- env
		return
	}
	sub, ok := c.subs[env.OriginId]
	c.mu.Unlock()
	if ok {
		sub.deliver(env)
	}
	// No registered waiter or subscription: an unsolicited envelope with
	// no live recipient (e.g. arriving after a local Unsubscribe), safe
	// to drop per the best-effort cancel semantics.
}

func (c *Client) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return
	default:
	}
	c.closeErr = err
	for id, ch := range c.waiters {
		close(ch)
		delete(c.waiters, id)
	}
	for id, sub := range c.subs {
		sub.closeLocked()
		delete(c.subs, id)
	}
	close(c.closed)
}

func newID() string { return uuid.NewV4().String() }

// encode writes env under encMu, so concurrent Send and Subscribe calls
// never interleave their frames on the shared connection.
func (c *Client) encode(env protocol.Envelope) error {
	c.encMu.Lock()
	defer c.encMu.Unlock()
	return c.enc.Encode(env)
}

// Send issues a one-shot request and blocks for its single response,
// correlated by OriginId.
func (c *Client) Send(ctx context.Context, payload protocol.Message) (protocol.Envelope, error) {
	id := newID()
	ch := make(chan protocol.Envelope, 1)

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return protocol.Envelope{}, ErrClientClosed
	default:
	}
	c.waiters[id] = ch
	c.mu.Unlock()

	if err := c.encode(protocol.Envelope{Id: id, Payload: payload}); err != nil {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
		return protocol.Envelope{}, err
	}

	select {
	case env, ok := <-ch:
		if !ok {
			return protocol.Envelope{}, c.closeErrOrDefault()
		}
		return env, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
		return protocol.Envelope{}, ctx.Err()
	case <-c.closed:
		return protocol.Envelope{}, c.closeErrOrDefault()
	}
}

func (c *Client) closeErrOrDefault() error {
	if c.closeErr != nil {
		return c.closeErr
	}
	return ErrClientClosed
}

// Subscribe starts a streaming request (watch, search, or proc_spawn) and
// waits for its first response envelope, which is the request's
// acknowledgement (protocol.OkResponse, protocol.SearchStartedResponse,
// protocol.ProcSpawnedResponse, ...) or a protocol.ErrorResponse. On
// success, further envelopes sharing this request's id as OriginId arrive
// on the returned Subscription's channel until Close or the connection
// ends. bufferSize <= 0 uses DefaultSubscriptionBuffer.
//
// The returned Subscription is lossless: a consumer that falls behind the
// high-water mark grows this subscription's own queue rather than dropping
// envelopes, and rather than stalling the shared read loop or any other
// subscription's demux (spec's per-stream-queues-drained-independently
// option). Use SubscribeLossy for streams where dropping is preferable to
// unbounded growth.
func (c *Client) Subscribe(ctx context.Context, payload protocol.Message, bufferSize int) (*Subscription, protocol.Envelope, error) {
	return c.subscribe(ctx, payload, bufferSize, false)
}

// SubscribeLossy is Subscribe with the subscription marked lossy: once its
// high-water mark is exceeded, the oldest buffered envelope is dropped to
// make room for the newest rather than growing the queue further.
func (c *Client) SubscribeLossy(ctx context.Context, payload protocol.Message, bufferSize int) (*Subscription, protocol.Envelope, error) {
	return c.subscribe(ctx, payload, bufferSize, true)
}

func (c *Client) subscribe(ctx context.Context, payload protocol.Message, bufferSize int, lossy bool) (*Subscription, protocol.Envelope, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultSubscriptionBuffer
	}
	id := newID()
	sub := newSubscription(id, c, bufferSize, lossy)

	c.mu.Lock()
	select {
	case <-c.closed:
		c.mu.Unlock()
		return nil, protocol.Envelope{}, ErrClientClosed
	default:
	}
	c.subs[id] = sub
	c.mu.Unlock()

	if err := c.encode(protocol.Envelope{Id: id, Payload: payload}); err != nil {
		c.removeSub(id)
		sub.closeLocked()
		return nil, protocol.Envelope{}, err
	}

	select {
	case first, ok := <-sub.items:
		if !ok {
			return nil, protocol.Envelope{}, c.closeErrOrDefault()
		}
		if errResp, isErr := first.Payload.(protocol.ErrorResponse); isErr {
			c.removeSub(id)
			sub.closeLocked()
			return nil, first, errResp
		}
		return sub, first, nil
	case <-ctx.Done():
		c.removeSub(id)
		sub.closeLocked()
		return nil, protocol.Envelope{}, ctx.Err()
	case <-c.closed:
		sub.closeLocked()
		return nil, protocol.Envelope{}, c.closeErrOrDefault()
	}
}

func (c *Client) removeSub(id string) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

// Subscription is a live stream of envelopes sharing one OriginId. Delivery
// from the shared read loop (deliver) never blocks: it only appends to this
// subscription's own queue. A dedicated forwarder goroutine drains that
// queue into the bounded channel C() returns, so a slow consumer on one
// subscription backs up only that subscription's queue, never the read
// loop's demux of other subscriptions (spec §4.C backpressure).
type Subscription struct {
	id     string
	client *Client
	lossy  bool

	mu      sync.Mutex
	queue   []protocol.Envelope
	notify  chan struct{}
	stop    chan struct{}
	closed  bool
	highMark int

	items chan protocol.Envelope
}

func newSubscription(id string, client *Client, highMark int, lossy bool) *Subscription {
	s := &Subscription{
		id:       id,
		client:   client,
		lossy:    lossy,
		highMark: highMark,
		notify:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		items:    make(chan protocol.Envelope),
	}
	go s.forward()
	return s
}

// Id returns the request id this subscription was established with. An
// Unwatch request names a watch by this id; search and process follow-ups
// (SearchCancel, ProcStdin, ProcResize, ProcKill) use the server-assigned
// id from the first response instead.
func (s *Subscription) Id() string { return s.id }

// C returns the channel of subsequent stream envelopes. It is closed once
// the subscription is closed and every already-queued envelope has been
// forwarded.
func (s *Subscription) C() <-chan protocol.Envelope { return s.items }

// deliver is called only from Client's single read loop; it must never
// block, since blocking here would stall the demux of every other
// subscription sharing the connection.
func (s *Subscription) deliver(env protocol.Envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.lossy && len(s.queue) >= s.highMark {
		// Drop the oldest queued envelope to make room for the newest,
		// rather than growing without bound.
		s.queue = append(s.queue[1:], env)
	} else {
		s.queue = append(s.queue, env)
	}
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// forward drains the queue into items, one envelope at a time, blocking on
// the items channel send only here — never in deliver — so a slow consumer
// backs up this subscription's own queue instead of the shared read loop.
func (s *Subscription) forward() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.mu.Unlock()
			<-s.notify
			s.mu.Lock()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.items)
			return
		}
		env := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		// If the consumer has stopped reading (Close was called without
		// draining C() to its end), stop selects too so this goroutine
		// doesn't block forever on a send nobody will receive.
		select {
		case s.items <- env:
		case <-s.stop:
			close(s.items)
			return
		}
	}
}

func (s *Subscription) closeLocked() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.stop)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Close stops delivering further envelopes to this subscription locally
// once any already-queued ones have drained through C(). It does not
// notify the server; callers that want the server to actually stop
// producing must still send the matching Unwatch/SearchCancel/ProcKill
// request, which may be answered by one more already-in-flight batch.
func (s *Subscription) Close() {
	s.client.removeSub(s.id)
	s.closeLocked()
}

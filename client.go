package linerpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrDuplicateID indicates that a request id was already in flight. Both
// [Client.Call] and [Client.RawCall] take ids from the client's own
// counter, so callers cannot choose a colliding id.
var ErrDuplicateID = errors.New("linerpc: request id already in flight")

// CallResult is the uniform outcome of a client call. It covers success
// and RPC failure alike: Err distinguishes the two, and Result holds the
// result value or the error object respectively, still encoded.
type CallResult struct {
	Result json.RawMessage
	Err    bool
}

// Failed returns true when the server answered with an error object.
func (r *CallResult) Failed() bool {
	return r.Err
}

// RPCError decodes the error object of a failed call. Calling it on a
// successful result is an error.
func (r *CallResult) RPCError() (Error, error) {
	if !r.Err {
		return Error{}, ErrEmptyData
	}

	var e Error
	if err := Unmarshal(r.Result, &e); err != nil {
		return Error{}, err
	}

	return e, nil
}

// Unmarshal decodes the result value into v.
func (r *CallResult) Unmarshal(v any) error {
	if len(r.Result) == 0 {
		return ErrEmptyData
	}

	return Unmarshal(r.Result, v)
}

// Client is a stream client that multiplexes calls over a single
// line-framed connection.
//
// Requests carry ids from a monotonically increasing counter. A reader
// goroutine correlates each incoming response with its in-flight call by
// id, so replies may arrive in any order and calls may be issued from
// any number of goroutines. Use [NewClient] to create instances.
type Client struct {
	// Logger receives events for dropped responses and reader exits.
	// The zero value logs nothing.
	Logger zerolog.Logger

	id atomic.Int64

	writeMu sync.Mutex
	enc     *LineEncoder
	dec     *LineDecoder
	conn    io.Closer

	mu      sync.Mutex
	pending map[string]chan *Response
	err     error // Set once the connection is down; guards new calls.
}

// NewClient returns an unconnected [*Client].
func NewClient() *Client {
	return &Client{Logger: zerolog.Nop(), pending: make(map[string]chan *Response)}
}

// Connect dials host:port and starts the reader goroutine. A client
// connects once; reconnecting requires a new client.
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("linerpc: connect: %w", err)
	}

	c.attach(conn)

	return nil
}

// attach wires an established connection and starts the reader.
func (c *Client) attach(conn net.Conn) {
	c.conn = conn
	c.enc = NewLineEncoder(conn)
	c.dec = NewLineDecoder(conn)

	go c.readLoop()
}

// readLoop delivers each incoming line to the call waiting on its id.
// Responses with unknown or absent ids are dropped; the transport stays
// usable. A read error ends the loop and fails every outstanding call.
func (c *Client) readLoop() {
	for {
		line, err := c.dec.ReadLine(context.Background())
		if err != nil {
			c.fail(err)
			return
		}

		if len(line) == 0 {
			continue
		}

		var resp Response
		if err := Unmarshal(line, &resp); err != nil {
			c.Logger.Warn().Err(err).Msg("dropping undecodable response")
			continue
		}

		key := resp.ID.Key()

		c.mu.Lock()
		ch, ok := c.pending[key]
		if ok {
			delete(c.pending, key)
		}
		c.mu.Unlock()

		if !ok {
			c.Logger.Warn().Str("id", key).Msg("dropping response with unknown id")
			continue
		}

		ch <- &resp
	}
}

// fail marks the client broken and releases every outstanding call.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err == nil {
		c.err = err
	}

	for key, ch := range c.pending {
		delete(c.pending, key)
		close(ch)
	}
}

// register adds a pending slot for key, failing fast when the client is
// already down.
func (c *Client) register(key string) (chan *Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}

	if _, exists := c.pending[key]; exists {
		return nil, ErrDuplicateID
	}

	ch := make(chan *Response, 1)
	c.pending[key] = ch

	return ch, nil
}

func (c *Client) unregister(key string) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
}

// Call invokes method with the given params and waits for the response.
//
// Transport failures and context expiry surface as errors; an RPC-level
// failure is a successful call whose [CallResult.Failed] is true.
func (c *Client) Call(ctx context.Context, method string, params Params) (*CallResult, error) {
	if c.enc == nil {
		return nil, ErrNotConnected
	}

	id := c.id.Add(1)

	req := NewRequestWithParams(id, method, params)

	buf, err := Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return c.roundTrip(ctx, strconv.FormatInt(id, 10), buf)
}

// RawCall sends caller-provided params bytes verbatim inside an
// otherwise ordinary request. The bytes are not validated, so malformed
// input reaches the peer as-is; a peer that cannot attribute its reply
// to this call leaves RawCall waiting for ctx to expire.
func (c *Client) RawCall(ctx context.Context, method string, params json.RawMessage) (*CallResult, error) {
	if c.enc == nil {
		return nil, ErrNotConnected
	}

	id := c.id.Add(1)

	methodJSON, err := Marshal(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	buf := fmt.Appendf(nil, `{"jsonrpc":"2.0","method":%s,"params":%s,"id":%d}`, methodJSON, params, id)

	return c.roundTrip(ctx, strconv.FormatInt(id, 10), buf)
}

// roundTrip registers the pending slot, writes one line, and waits for
// the correlated response.
func (c *Client) roundTrip(ctx context.Context, key string, message json.RawMessage) (*CallResult, error) {
	ch, err := c.register(key)
	if err != nil {
		return nil, err
	}

	if err := c.writeLine(ctx, message); err != nil {
		c.unregister(key)
		return nil, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()

			return nil, fmt.Errorf("linerpc: connection lost: %w", err)
		}

		return newCallResult(resp)
	case <-ctx.Done():
		c.unregister(key)
		return nil, ctx.Err()
	}
}

// writeLine serializes writers so concurrent calls do not interleave
// their frames.
func (c *Client) writeLine(ctx context.Context, message json.RawMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.enc.WriteLine(ctx, message)
}

func newCallResult(resp *Response) (*CallResult, error) {
	if resp.IsError() {
		raw, err := Marshal(&resp.Error)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
		}

		return &CallResult{Err: true, Result: raw}, nil
	}

	return &CallResult{Result: resp.Result.RawMessage()}, nil
}

// Close tears the connection down. Outstanding calls fail with
// [ErrClientClosed]; calling Close on an unconnected client is a no-op.
// A second Close closes the connection again and returns that error.
func (c *Client) Close() error {
	c.fail(ErrClientClosed)

	if c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

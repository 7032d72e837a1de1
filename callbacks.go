package linerpc

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// DefaultOnHandlerPanic logs a recovered handler panic through the
// [zerolog.Logger] attached to the context. It is assigned to
// [Callbacks.OnHandlerPanic] by default when a [Server] is created, so
// panics are visible even without custom callbacks.
var DefaultOnHandlerPanic = func(ctx context.Context, req *Request, rec any) {
	zerolog.Ctx(ctx).Error().
		Str("method", req.Method).
		Str("id", req.ID.Key()).
		Interface("panic_value", rec).
		Msg("panic recovered in rpc handler")
}

// Callbacks holds functions invoked on events in a connection's
// lifecycle. They allow custom logging or monitoring without touching the
// request path. All callbacks must be safe for concurrent use, as every
// connection shares the same set.
//
// Callbacks never modify server state and their return is not waited on
// by the caller's peer; the connection continues according to the event.
type Callbacks struct {
	// OnExit is called when a connection's serve loop is about to
	// return. err holds the reason: nil on a clean close (an empty line
	// or the peer closing the stream), [context.Canceled], or a transport
	// error.
	OnExit func(ctx context.Context, err error)

	// OnDecodingError is called when an incoming line cannot be decoded
	// into a request. raw holds the offending line.
	OnDecodingError func(ctx context.Context, raw json.RawMessage, err error)

	// OnEncodingError is called when a response cannot be encoded or
	// written. value is the response that failed.
	OnEncodingError func(ctx context.Context, value any, err error)

	// OnHandlerPanic is called when a [Handler] panics. The panic is
	// recovered by the server and answered with an internal error;
	// rec is the recovered value. Defaults to [DefaultOnHandlerPanic].
	OnHandlerPanic func(ctx context.Context, req *Request, rec any)
}

func (c *Callbacks) runOnExit(ctx context.Context, e error) {
	if c.OnExit != nil {
		c.OnExit(ctx, e)
	}
}

func (c *Callbacks) runOnDecodingError(ctx context.Context, m json.RawMessage, e error) {
	if c.OnDecodingError != nil {
		c.OnDecodingError(ctx, m, e)
	}
}

func (c *Callbacks) runOnEncodingError(ctx context.Context, d any, e error) {
	if c.OnEncodingError != nil {
		c.OnEncodingError(ctx, d, e)
	}
}

func (c *Callbacks) runOnHandlerPanic(ctx context.Context, r *Request, recovery any) {
	if c.OnHandlerPanic != nil {
		c.OnHandlerPanic(ctx, r, recovery)
	}
}

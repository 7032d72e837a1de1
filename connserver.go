package linerpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/rs/zerolog"
)

// ConnServer serves a single line-framed connection.
//
// Requests are processed strictly in order: the next line is not read
// until the current handler has returned and its response has been
// written. Handler failures answer the request and the loop continues;
// only transport errors, oversize lines, or an empty line end it.
//
// Use [NewConnServer] to create instances. [Server] creates one per
// accepted connection.
type ConnServer struct {
	Callbacks Callbacks
	Handler   Handler
	Logger    zerolog.Logger
	decoder   *LineDecoder
	encoder   *LineEncoder
}

// NewConnServer returns a [*ConnServer] reading requests from rw and
// writing responses back to it. The zero-value logger logs nothing.
func NewConnServer(rw io.ReadWriter, handler Handler) *ConnServer {
	cs := &ConnServer{
		Handler: handler,
		Logger:  zerolog.Nop(),
		decoder: NewLineDecoder(rw),
		encoder: NewLineEncoder(rw),
	}
	cs.Callbacks.OnHandlerPanic = DefaultOnHandlerPanic

	return cs
}

// Close closes the underlying stream. The decoder and encoder share it,
// so one close covers both.
func (cs *ConnServer) Close() error {
	return cs.decoder.Close()
}

// Run serves the connection until ctx is cancelled, the peer closes or
// sends an empty line, or the transport fails. The returned error is nil
// on a clean close.
func (cs *ConnServer) Run(ctx context.Context) (err error) {
	ctx = cs.Logger.WithContext(ctx)

	defer func() {
		err = errors.Join(err, context.Cause(ctx), cs.Close())
		cs.Callbacks.runOnExit(ctx, err)
	}()

	for {
		var line json.RawMessage

		line, err = cs.decoder.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}

			return
		}

		// An empty line is the peer's way of hanging up politely.
		if len(line) == 0 {
			return nil
		}

		resp := serveMessage(ctx, cs.Handler, &cs.Callbacks, line)

		if werr := cs.encoder.WriteLine(ctx, resp); werr != nil {
			cs.Callbacks.runOnEncodingError(ctx, resp, werr)

			err = werr

			return
		}
	}
}

// serveMessage runs one raw message through validation and dispatch and
// returns the response to write. It never returns nil; every message
// gets exactly one reply.
//
// Validation order matters: malformed JSON is answered before shape
// checks, a missing id before the version check, and the version check
// before the method check, so the reply carries the request's own id as
// soon as one is known.
func serveMessage(ctx context.Context, handler Handler, cb *Callbacks, raw json.RawMessage) *Response {
	if !json.Valid(raw) {
		cb.runOnDecodingError(ctx, raw, ErrParse)
		zerolog.Ctx(ctx).Debug().Str("reason", "invalid json").Msg("rejecting request")

		return NewResponseError(ErrParse)
	}

	if KindOf(raw) != KindObject {
		return NewResponseError(ErrInvalidRequest.WithMessage("No id specified"))
	}

	var req Request

	if err := Unmarshal(raw, &req); err != nil {
		cb.runOnDecodingError(ctx, raw, err)
		zerolog.Ctx(ctx).Debug().Err(err).Msg("rejecting undecodable request")

		return NewResponseError(ErrInvalidRequest.WithData(err.Error()))
	}

	if req.ID.IsZero() {
		return NewResponseError(ErrInvalidRequest.WithMessage("No id specified"))
	}

	if !req.Jsonrpc.IsValid() {
		return req.ResponseWithError(ErrInvalidRequest.WithMessage("JSON 2.0 required"))
	}

	if req.Method == "" {
		return req.ResponseWithError(ErrInvalidRequest.WithMessage("No method requested"))
	}

	return invokeHandler(ctx, handler, cb, &req)
}

// invokeHandler calls the handler with panic recovery. A recovered panic
// is reported through the callbacks and answered like any other unknown
// failure; details never reach the peer.
func invokeHandler(ctx context.Context, handler Handler, cb *Callbacks, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			cb.runOnHandlerPanic(ctx, req, r)

			resp = req.ResponseWithError(ErrUnknown)
		}
	}()

	result, err := handler.Handle(ctx, req)
	if err != nil {
		var je Error

		var ip *InvalidParamsError

		if !errors.As(err, &je) && !errors.As(err, &ip) {
			// The peer only sees the masked reply; keep the detail here.
			zerolog.Ctx(ctx).Error().Err(err).Str("method", req.Method).Msg("handler failed")
		}

		return req.ResponseWithError(err)
	}

	if r, ok := result.(*Response); ok {
		return r
	}

	if result == nil {
		result = nullValue
	}

	return req.ResponseWithResult(result)
}

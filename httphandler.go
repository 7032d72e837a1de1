package linerpc

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// HTTPHandler adapts the request engine to [net/http]: one request per
// HTTP body, one response back. It pairs with [HTTPClient] and lets a
// registry be served from an existing [http.Server] alongside other
// routes.
type HTTPHandler struct {
	// Callbacks observes dispatch events, like [ConnServer.Callbacks].
	Callbacks Callbacks

	// Logger receives dispatch events. The zero value logs nothing.
	Logger zerolog.Logger

	// MaxBytes caps the request body. Defaults to [MaxLineLength].
	MaxBytes int64

	handler Handler
}

// NewHTTPHandler returns an [*HTTPHandler] dispatching to handler,
// typically a [*MethodMux].
func NewHTTPHandler(handler Handler) *HTTPHandler {
	h := &HTTPHandler{handler: handler, Logger: zerolog.Nop(), MaxBytes: MaxLineLength}
	h.Callbacks.OnHandlerPanic = DefaultOnHandlerPanic

	return h
}

// ServeHTTP implements [http.Handler].
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Header.Get("Content-Type") != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, h.MaxBytes))
	if err != nil {
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		return
	}

	ctx := h.Logger.WithContext(req.Context())

	resp := serveMessage(ctx, h.handler, &h.Callbacks, body)

	buf, err := Marshal(resp)
	if err != nil {
		h.Callbacks.runOnEncodingError(ctx, resp, err)
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf)
}

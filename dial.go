package linerpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnknownScheme is returned by [Dial] for an unsupported uri scheme.
var ErrUnknownScheme = errors.New("linerpc: unknown scheme in uri")

// Caller is the client surface shared by the stream [Client] and the
// one-shot [HTTPClient]. [Dial] and [ClientPool] work in terms of it.
type Caller interface {
	Call(ctx context.Context, method string, params Params) (*CallResult, error)
	Close() error
}

// Dial connects to the destination uri and returns a client ready for
// making calls.
//
// Supported schemes:
//   - `tcp`, `tcp4`, `tcp6`: a stream [Client] over plain TCP. Address
//     is `host:port`.
//   - `tls`, `tls4`, `tls6`: a stream [Client] over TLS with a default
//     [tls.Config]. Address is `host:port`.
//   - `http`, `https`: an [HTTPClient] issuing one-shot calls.
//
// Examples:
//   - `tcp:127.0.0.1:9090`
//   - `tls:rpc.example.com:9443`
//   - `http://127.0.0.1:8080/`
//
// Returns [ErrUnknownScheme] if the scheme is not supported.
//
//nolint:ireturn //The scheme selects the concrete client type.
func Dial(ctx context.Context, destURI string) (Caller, error) {
	uri, err := url.Parse(destURI)
	if err != nil {
		return nil, fmt.Errorf("linerpc: dial: %w", err)
	}

	switch {
	case strings.HasPrefix(uri.Scheme, "tcp"):
		return dialStream(ctx, streamAddr(uri, destURI), nil)
	case strings.HasPrefix(uri.Scheme, "tls"):
		return dialStream(ctx, streamAddr(uri, destURI), new(tls.Dialer))
	case uri.Scheme == "http", uri.Scheme == "https":
		return dialHTTP(uri)
	}

	return nil, ErrUnknownScheme
}

// streamAddr extracts the host:port from either the `scheme:host:port`
// or the `scheme://host:port` form.
func streamAddr(uri *url.URL, destURI string) string {
	if uri.Host != "" {
		return uri.Host
	}

	return strings.TrimPrefix(destURI, uri.Scheme+":")
}

func dialStream(ctx context.Context, addr string, tlsDialer *tls.Dialer) (*Client, error) {
	var (
		conn net.Conn
		err  error
	)

	if tlsDialer != nil {
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = new(net.Dialer).DialContext(ctx, "tcp", addr)
	}

	if err != nil {
		return nil, fmt.Errorf("linerpc: dial: %w", err)
	}

	c := NewClient()
	c.attach(conn)

	return c, nil
}

func dialHTTP(uri *url.URL) (*HTTPClient, error) {
	host := uri.Hostname()

	port := 80
	if uri.Scheme == "https" {
		port = 443
	}

	if p := uri.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("linerpc: dial: bad port %q", p)
		}

		port = n
	}

	hc := NewHTTPClient(host, port)

	if uri.Scheme == "https" {
		hc.dialContext = new(tls.Dialer).DialContext
	}

	return hc, nil
}

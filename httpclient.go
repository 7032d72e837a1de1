package linerpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	// httpHeaderLimit caps how many header bytes a peer may send before
	// the call is abandoned.
	httpHeaderLimit = 8 * 1024

	// httpHeaderTimeout bounds the wait for the response headers.
	httpHeaderTimeout = 120 * time.Second

	// httpBodyTimeout bounds reading the whole response body.
	httpBodyTimeout = 12 * time.Second

	// httpBodyBlock is the read block size for the response body.
	httpBodyBlock = 4096
)

// ErrHTTPResponse indicates that a peer's HTTP response was rejected:
// wrong status, wrong content type, a negative content length, or
// malformed headers.
var ErrHTTPResponse = errors.New("linerpc: unusable http response")

// HTTPClient issues one-shot calls to a peer speaking JSON-RPC over
// plain HTTP/1.0.
//
// Every call dials a fresh connection, writes a single HTTP request with
// the message as its body, reads a single HTTP response, and closes the
// connection. There is no background reader and no connection reuse, so
// an HTTPClient needs no Close.
type HTTPClient struct {
	// Logger receives call failures. The zero value logs nothing.
	Logger zerolog.Logger

	// Method is the HTTP verb put on the request line. Defaults to POST.
	Method string

	host string
	port int
	id   atomic.Int64

	// dialContext defaults to a plain TCP dial; [Dial] switches it to a
	// TLS dial for https peers.
	dialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewHTTPClient returns an [*HTTPClient] calling host:port.
func NewHTTPClient(host string, port int) *HTTPClient {
	return &HTTPClient{Logger: zerolog.Nop(), Method: http.MethodPost, host: host, port: port}
}

// Call invokes method with the given params over a fresh connection.
// The outcome has the same shape as [Client.Call].
func (hc *HTTPClient) Call(ctx context.Context, method string, params Params) (*CallResult, error) {
	req := NewRequestWithParams(hc.id.Add(1), method, params)

	body, err := Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	raw, err := hc.roundTrip(ctx, body)
	if err != nil {
		hc.Logger.Debug().Err(err).Str("method", method).Msg("http call failed")
		return nil, err
	}

	var resp Response
	if err := Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	return newCallResult(&resp)
}

// Close is a no-op: calls do not share connections, so there is nothing
// to tear down. It exists so an HTTPClient can stand in wherever a
// stream [Client] is expected.
func (hc *HTTPClient) Close() error {
	return nil
}

// roundTrip performs one full HTTP/1.0 exchange and returns the body.
func (hc *HTTPClient) roundTrip(ctx context.Context, body []byte) (json.RawMessage, error) {
	dial := hc.dialContext
	if dial == nil {
		dial = new(net.Dialer).DialContext
	}

	conn, err := dial(ctx, "tcp", net.JoinHostPort(hc.host, strconv.Itoa(hc.port)))
	if err != nil {
		return nil, fmt.Errorf("linerpc: http dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	verb := hc.Method
	if verb == "" {
		verb = http.MethodPost
	}

	head := fmt.Sprintf("%s / HTTP/1.0\r\nDate: %s\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n",
		verb, time.Now().UTC().Format(http.TimeFormat), len(body))

	if _, err := conn.Write(append([]byte(head), body...)); err != nil {
		return nil, fmt.Errorf("linerpc: http write: %w", err)
	}

	length, err := readHTTPHeader(conn)
	if err != nil {
		return nil, err
	}

	return readHTTPBody(conn, length)
}

// readHTTPHeader consumes the status line and headers, validates them,
// and returns the announced content length, or -1 when the peer did not
// announce one.
func readHTTPHeader(conn net.Conn) (int, error) {
	if err := conn.SetReadDeadline(time.Now().Add(httpHeaderTimeout)); err != nil {
		return 0, fmt.Errorf("linerpc: http read: %w", err)
	}

	// One byte at a time keeps the body out of the header read. A
	// one-shot exchange does not care about the syscall count.
	var head []byte

	b := make([]byte, 1)

	for !bytes.HasSuffix(head, []byte("\r\n\r\n")) {
		if len(head) > httpHeaderLimit {
			return 0, fmt.Errorf("%w: headers exceed %d bytes", ErrHTTPResponse, httpHeaderLimit)
		}

		if _, err := conn.Read(b); err != nil {
			return 0, fmt.Errorf("linerpc: http read: %w", err)
		}

		head = append(head, b[0])
	}

	lines := strings.Split(strings.TrimSuffix(string(head), "\r\n\r\n"), "\r\n")

	fields := strings.Fields(lines[0])
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("%w: bad status line %q", ErrHTTPResponse, lines[0])
	}

	if fields[1] != "200" {
		return 0, fmt.Errorf("%w: status %s", ErrHTTPResponse, fields[1])
	}

	length := -1
	contentType := ""

	for _, line := range lines[1:] {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(name)) {
		case "content-type":
			contentType = strings.TrimSpace(value)
		case "content-length":
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: bad content length %q", ErrHTTPResponse, strings.TrimSpace(value))
			}

			length = n
		}
	}

	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return 0, fmt.Errorf("%w: content type %q", ErrHTTPResponse, contentType)
	}

	return length, nil
}

// readHTTPBody reads until the announced length is reached, or until EOF
// when the peer announced none.
func readHTTPBody(conn net.Conn, length int) (json.RawMessage, error) {
	if err := conn.SetReadDeadline(time.Now().Add(httpBodyTimeout)); err != nil {
		return nil, fmt.Errorf("linerpc: http read: %w", err)
	}

	var body []byte

	block := make([]byte, httpBodyBlock)

	for length < 0 || len(body) < length {
		n, err := conn.Read(block)

		body = append(body, block[:n]...)

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("linerpc: http read: %w", err)
		}
	}

	if length >= 0 {
		if len(body) < length {
			return nil, fmt.Errorf("%w: truncated body", ErrHTTPResponse)
		}

		body = body[:length]
	}

	return json.RawMessage(body), nil
}

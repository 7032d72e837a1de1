package linerpc

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineDecoderReadLine(t *testing.T) {
	t.Parallel()

	input := "{\"a\":1}\r\n{\"b\":2}\n"
	dec := NewLineDecoder(strings.NewReader(input))

	line, err := dec.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(line))

	// A bare LF terminator is tolerated on input.
	line, err = dec.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(line))

	_, err = dec.ReadLine(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecoding)
}

func TestLineDecoderEmptyLine(t *testing.T) {
	t.Parallel()

	dec := NewLineDecoder(strings.NewReader("\r\n"))

	line, err := dec.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Empty(t, line)
}

func TestLineDecoderOversized(t *testing.T) {
	t.Parallel()

	dec := NewLineDecoder(strings.NewReader(strings.Repeat("a", 64) + "\r\n"))
	dec.SetLimit(16)

	_, err := dec.ReadLine(context.Background())
	assert.ErrorIs(t, err, ErrOversizedLine)
}

func TestLineDecoderDefaultLimit(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", MaxLineLength+1) + "\r\n"
	dec := NewLineDecoder(strings.NewReader(long))

	_, err := dec.ReadLine(context.Background())
	assert.ErrorIs(t, err, ErrOversizedLine)

	// A limit of zero restores the default.
	short := NewLineDecoder(strings.NewReader(strings.Repeat("a", 64) + "\r\n"))
	short.SetLimit(10)
	short.SetLimit(0)

	line, err := short.ReadLine(context.Background())
	require.NoError(t, err)
	assert.Len(t, line, 64)
}

func TestLineDecoderCancel(t *testing.T) {
	t.Parallel()

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	dec := NewLineDecoder(server)

	_, err := dec.ReadLine(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "cancelled read should surface context.Canceled, got %v", err)
}

func TestLineEncoderWriteLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	enc := NewLineEncoder(&buf)

	err := enc.WriteLine(context.Background(), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\r\n", buf.String())
}

func TestLineCodecRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	enc := NewLineEncoder(&buf)
	require.NoError(t, enc.WriteLine(context.Background(), NewRequest(int64(1), "ping")))
	require.NoError(t, enc.WriteLine(context.Background(), NewRequest(int64(2), "pong")))

	dec := NewLineDecoder(&buf)

	line, err := dec.ReadLine(context.Background())
	require.NoError(t, err)

	var req Request
	require.NoError(t, Unmarshal(line, &req))
	assert.Equal(t, "ping", req.Method)

	line, err = dec.ReadLine(context.Background())
	require.NoError(t, err)
	require.NoError(t, Unmarshal(line, &req))
	assert.Equal(t, "pong", req.Method)
}

package linerpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// MaxLineLength is the per-message cap in bytes, CR LF included. A peer
// sending a longer line has its connection closed.
const MaxLineLength = 128 * 1024

// LineDecoder reads one CR LF terminated JSON message per call from a
// byte stream.
//
// Cancellation depends on the underlying [io.Reader]:
//   - A [DeadlineReader] (like [net.Conn]) has its read deadline moved
//     into the past, interrupting the read without closing the stream.
//   - A plain [io.Closer] is closed to unblock the read.
//   - A reader supporting neither cannot be interrupted.
type LineDecoder struct {
	r   io.Reader
	br  *bufio.Reader
	max int
}

// NewLineDecoder returns a new [*LineDecoder] reading from r with the
// default [MaxLineLength] cap.
func NewLineDecoder(r io.Reader) *LineDecoder {
	return &LineDecoder{r: r, br: bufio.NewReader(r), max: MaxLineLength}
}

// SetLimit overrides the line length cap. A limit of 0 or less restores
// the default.
func (ld *LineDecoder) SetLimit(n int) {
	if n <= 0 {
		ld.max = MaxLineLength
		return
	}

	ld.max = n
}

// ReadLine reads the next line and returns it with the trailing line
// terminator removed. Oversize lines fail with [ErrOversizedLine]; the
// remaining bytes are not consumed and the stream must be abandoned.
func (ld *LineDecoder) ReadLine(ctx context.Context) (json.RawMessage, error) {
	if c, ok := ld.r.(io.Closer); ok {
		return ld.cancelRead(ctx, c)
	}

	return ld.readLine()
}

// cancelRead arms a context watcher around the blocking read, using a
// read deadline when the reader offers one and falling back to closing.
func (ld *LineDecoder) cancelRead(ctx context.Context, cReader io.Closer) (json.RawMessage, error) {
	deadLiner, haveDeadline := cReader.(DeadlineReader)

	if haveDeadline {
		// A zero time clears any deadline left by a previous call.
		if err := deadLiner.SetReadDeadline(time.Time{}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
		}
	}

	dctx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)

	after := context.AfterFunc(dctx, func() {
		defer wg.Done()

		if haveDeadline {
			_ = deadLiner.SetReadDeadline(time.Now())
			return
		}

		_ = cReader.Close()
	})

	line, err := ld.readLine()

	if !after() {
		wg.Wait()
	}

	if cause := context.Cause(ctx); cause != nil {
		return nil, errors.Join(err, cause)
	}

	return line, err
}

func (ld *LineDecoder) readLine() (json.RawMessage, error) {
	var line []byte

	for {
		frag, err := ld.br.ReadSlice('\n')

		line = append(line, frag...)
		if len(line) > ld.max {
			return nil, ErrOversizedLine
		}

		if err == nil {
			break
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
	}

	return json.RawMessage(bytes.TrimRight(line, "\r\n")), nil
}

// Close closes the underlying reader if it implements [io.Closer].
func (ld *LineDecoder) Close() error {
	if c, ok := ld.r.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// LineEncoder writes one JSON message per call, terminated by CR LF, to a
// byte stream. Each message goes out in a single Write so concurrent
// encoders on the same stream do not interleave.
//
// Cancellation mirrors [LineDecoder]: a [DeadlineWriter] is interrupted
// through its write deadline, a plain [io.Closer] by closing.
type LineEncoder struct {
	w io.Writer
}

// NewLineEncoder returns a new [*LineEncoder] writing to w.
func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

// WriteLine marshals v and writes it followed by CR LF.
func (le *LineEncoder) WriteLine(ctx context.Context, v any) error {
	buf, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	buf = append(buf, '\r', '\n')

	if d, ok := le.w.(DeadlineWriter); ok {
		return le.deadlineWrite(ctx, d, buf)
	}

	if c, ok := le.w.(io.Closer); ok {
		return le.closeWrite(ctx, c, buf)
	}

	if _, err := le.w.Write(buf); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return nil
}

func (le *LineEncoder) deadlineWrite(ctx context.Context, dWriter DeadlineWriter, buf []byte) error {
	if err := dWriter.SetWriteDeadline(time.Time{}); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	dctx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)

	after := context.AfterFunc(dctx, func() {
		defer wg.Done()
		_ = dWriter.SetWriteDeadline(time.Now())
	})

	_, err := dWriter.Write(buf)

	if !after() {
		wg.Wait()
	}

	if err != nil {
		return errors.Join(fmt.Errorf("%w: %w", ErrEncoding, err), ctx.Err())
	}

	return ctx.Err()
}

func (le *LineEncoder) closeWrite(ctx context.Context, cWriter io.Closer, buf []byte) error {
	dctx, stop := context.WithCancel(ctx)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)

	after := context.AfterFunc(dctx, func() {
		defer wg.Done()
		_ = cWriter.Close()
	})

	_, err := le.w.Write(buf)

	if !after() {
		wg.Wait()
	}

	if err != nil {
		return errors.Join(fmt.Errorf("%w: %w", ErrEncoding, err), ctx.Err())
	}

	return ctx.Err()
}

// Close closes the underlying writer if it implements [io.Closer].
func (le *LineEncoder) Close() error {
	if c, ok := le.w.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

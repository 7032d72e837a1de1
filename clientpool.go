package linerpc

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jackc/puddle/v2"
)

const (
	// DefaultPoolDialTimeout is the default number of seconds allowed
	// for establishing a new pooled connection.
	DefaultPoolDialTimeout = 30

	// DefaultPoolIdleTimeout is the default number of seconds a pooled
	// connection may sit idle before it is closed.
	DefaultPoolIdleTimeout = 300
)

// ErrRetriesExceeded is returned by [ClientPool.Call] when every attempt
// failed with a transient transport error and the configured retries are
// exhausted. The final attempt's error is joined with it.
var ErrRetriesExceeded = errors.New("linerpc: retries exceeded")

// ClientPoolConfig holds configuration for creating a [ClientPool].
type ClientPoolConfig struct {
	// URI names the target server and transport; see [Dial] for the
	// supported schemes.
	URI string

	// IdleTimeout is the longest a connection may stay idle in the pool
	// before being closed. Defaults to [DefaultPoolIdleTimeout] seconds
	// if zero; negative disables idle reaping.
	IdleTimeout time.Duration

	// DialTimeout bounds establishing one new connection. Defaults to
	// [DefaultPoolDialTimeout] seconds if zero or negative.
	DialTimeout time.Duration

	// Retries is how many times a call is retried on a transient
	// transport error, each time on a freshly dialed connection. The
	// effective minimum is 1.
	Retries int

	// MaxSize caps connections in the pool, idle and in-use combined.
	// Zero or negative defaults to twice the usable CPU count.
	MaxSize int32

	// AcquireOnCreate, if true, establishes one connection up front so
	// a bad URI or unreachable server fails the constructor instead of
	// the first call.
	AcquireOnCreate bool
}

// ClientPool manages reusable client connections to one server, so any
// number of goroutines can make calls without coordinating over a single
// stream. Calls that die with a transient transport error are retried on
// a fresh connection.
//
// Use [NewClientPool] to create instances.
type ClientPool struct {
	pool    *puddle.Pool[Caller]
	idle    *time.Timer
	retries int
	closed  bool
	mu      sync.Mutex
}

// NewClientPool creates a [ClientPool] connecting through [Dial] to the
// configured URI.
//
// Example:
//
//	pool, err := linerpc.NewClientPool(ctx, linerpc.ClientPoolConfig{
//		URI:     "tcp:localhost:9090",
//		MaxSize: 10,
//		Retries: 2,
//	})
func NewClientPool(nctx context.Context, config ClientPoolConfig) (*ClientPool, error) {
	return NewClientPoolWithDialer(nctx, config, Dial)
}

// NewClientPoolWithDialer creates a [ClientPool] using a custom dialer,
// for transports or TLS configurations [Dial] does not cover.
func NewClientPoolWithDialer(nctx context.Context, config ClientPoolConfig, dialFunc func(ctx context.Context, uri string) (Caller, error)) (*ClientPool, error) {
	if config.IdleTimeout == 0 {
		config.IdleTimeout = time.Duration(DefaultPoolIdleTimeout) * time.Second
	}

	if config.DialTimeout <= 0 {
		config.DialTimeout = time.Duration(DefaultPoolDialTimeout) * time.Second
	}

	if config.MaxSize <= 0 {
		//nolint:gosec //How many cpus do you think we have? Puddle requires int32.
		config.MaxSize = int32(min(runtime.NumCPU(), runtime.GOMAXPROCS(-1)) * 2)
	}

	pool, err := puddle.NewPool(&puddle.Config[Caller]{
		Constructor: func(ctx context.Context) (Caller, error) {
			dialCtx, stop := context.WithTimeout(ctx, config.DialTimeout)
			defer stop()

			return dialFunc(dialCtx, config.URI)
		},
		Destructor: func(client Caller) { _ = client.Close() },
		MaxSize:    config.MaxSize,
	})
	if err != nil {
		return nil, err
	}

	if config.AcquireOnCreate {
		res, err := pool.Acquire(nctx)
		if err != nil {
			defer pool.Close()
			return nil, err
		}

		defer res.Release()
	}

	cpool := &ClientPool{pool: pool, retries: max(config.Retries, 1) + 1}

	if config.IdleTimeout > 0 {
		cpool.idle = time.AfterFunc(config.IdleTimeout, func() {
			cpool.mu.Lock()
			defer cpool.mu.Unlock()

			if cpool.closed {
				return
			}

			nextWait := config.IdleTimeout

			for _, res := range cpool.pool.AcquireAllIdle() {
				idleTime := res.IdleDuration()
				if idleTime >= config.IdleTimeout {
					res.Destroy()
				} else {
					res.Release()
					nextWait = min(nextWait, config.IdleTimeout-idleTime)
				}
			}

			cpool.idle.Reset(nextWait)
		})
	}

	return cpool, nil
}

// releaseMaybeRetry decides what to do with an acquired connection after
// a call attempt. Connections are never reused after an error; the
// return value says whether a fresh attempt is worth making.
func releaseMaybeRetry(res *puddle.Resource[Caller], err error) (needsRetry bool) {
	if err != nil {
		// Destroy runs the destructor in the background; close now so the
		// broken connection is gone by the time the call returns.
		_ = res.Value().Close()
		res.Destroy()

		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return false
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
			errors.Is(err, net.ErrClosed), errors.Is(err, os.ErrClosed),
			errors.Is(err, ErrClientClosed):
			return true
		}

		return false
	}

	res.Release()

	return false
}

// Call acquires a connection, performs the call, and returns the
// connection to the pool. Transient transport failures are retried on a
// new connection up to the configured count; exhausting them returns
// [ErrRetriesExceeded] joined with the last error.
func (cp *ClientPool) Call(ctx context.Context, method string, params Params) (result *CallResult, err error) {
	for range cp.retries {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}

		client, cerr := cp.pool.Acquire(ctx)
		if cerr != nil {
			return nil, cerr
		}

		result, err = client.Value().Call(ctx, method, params)

		if needsRetry := releaseMaybeRetry(client, err); needsRetry {
			continue
		}

		return result, err
	}

	return nil, errors.Join(ErrRetriesExceeded, err)
}

// Reset closes all idle connections and marks in-use ones to be closed
// on release, forcing subsequent calls onto fresh connections.
func (cp *ClientPool) Reset() {
	cp.pool.Reset()
}

// Close shuts the pool down, closing idle connections and waiting for
// acquired ones to be released. It is safe to call more than once.
func (cp *ClientPool) Close() {
	cp.mu.Lock()
	if cp.closed {
		cp.mu.Unlock()
		return
	}

	cp.closed = true

	if cp.idle != nil {
		cp.idle.Stop()
	}
	cp.mu.Unlock()

	cp.pool.Close()
}

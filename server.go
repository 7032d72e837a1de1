package linerpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAddressUnresolvable is returned by [NewServer] when none of the
	// given addresses resolves to an endpoint.
	ErrAddressUnresolvable = errors.New("linerpc: address did not resolve to any endpoint")

	// ErrBind is returned by [NewServer] when no resolved endpoint could
	// be bound.
	ErrBind = errors.New("linerpc: could not bind any endpoint")

	// ErrServerRunning is returned by [Server.Start] when the server has
	// already been started.
	ErrServerRunning = errors.New("linerpc: server already started")
)

// Server listens on one or more TCP endpoints and serves each accepted
// connection with a [ConnServer] over the shared method registry.
//
// A host that resolves to several addresses is bound on every one of
// them, so "localhost" listens on both loopbacks where the system has
// them. Binding is partial-failure tolerant: the server starts as long
// as at least one endpoint binds.
type Server struct {
	// Callbacks is copied to every accepted connection.
	Callbacks Callbacks

	// Logger receives connection lifecycle and dispatch events. The zero
	// value logs nothing.
	Logger zerolog.Logger

	// ConfigureConn, when set, is called with every accepted
	// connection's [*ConnServer] before it starts serving.
	ConfigureConn func(ctx context.Context, cs *ConnServer)

	mux       *MethodMux
	listeners []net.Listener

	mu     sync.Mutex
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewServer resolves and binds every endpoint the given addresses name.
// Each address has the form "host:port"; an empty host binds the
// wildcard address.
//
// Resolution yielding no endpoints at all fails with
// [ErrAddressUnresolvable]. Binding failures are tolerated while at
// least one endpoint binds; none binding fails with [ErrBind].
func NewServer(ctx context.Context, addrs ...string) (*Server, error) {
	endpoints := make([]*net.TCPAddr, 0, len(addrs))

	var errs []error

	for _, addr := range addrs {
		eps, err := resolveAddr(ctx, addr)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		endpoints = append(endpoints, eps...)
	}

	if len(endpoints) == 0 {
		return nil, errors.Join(ErrAddressUnresolvable, errors.Join(errs...))
	}

	return NewServerAddrs(ctx, endpoints...)
}

// NewServerHostPort is a convenience wrapper around [NewServer] for a
// single host and numeric port.
func NewServerHostPort(ctx context.Context, host string, port int) (*Server, error) {
	return NewServer(ctx, net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewServerAddrs binds the given pre-resolved endpoints. See [NewServer]
// for the partial-failure rules.
func NewServerAddrs(ctx context.Context, addrs ...*net.TCPAddr) (*Server, error) {
	s := &Server{mux: NewMethodMux(), Logger: zerolog.Nop()}
	s.Callbacks.OnHandlerPanic = DefaultOnHandlerPanic

	var (
		lc   net.ListenConfig
		errs []error
	)

	for _, addr := range addrs {
		ln, err := lc.Listen(ctx, "tcp", addr.String())
		if err != nil {
			errs = append(errs, fmt.Errorf("bind %s: %w", addr, err))
			continue
		}

		s.listeners = append(s.listeners, ln)
	}

	if len(s.listeners) == 0 {
		return nil, errors.Join(ErrBind, errors.Join(errs...))
	}

	return s, nil
}

// resolveAddr expands one "host:port" into the endpoints the host names.
func resolveAddr(ctx context.Context, addr string) ([]*net.TCPAddr, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	port, err := net.DefaultResolver.LookupPort(ctx, "tcp", portStr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	if host == "" {
		return []*net.TCPAddr{{Port: port}}, nil
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}

	endpoints := make([]*net.TCPAddr, 0, len(ips))
	for _, ip := range ips {
		endpoints = append(endpoints, &net.TCPAddr{IP: ip.IP, Zone: ip.Zone, Port: port})
	}

	return endpoints, nil
}

// Register associates handler with method on the server's registry. A
// method registered twice keeps the later handler. Registration is safe
// while the server is running.
func (s *Server) Register(method string, handler Handler) {
	s.mux.Register(method, handler)
}

// Mux returns the server's method registry.
func (s *Server) Mux() *MethodMux {
	return s.mux
}

// Addrs returns the bound listener addresses.
func (s *Server) Addrs() []net.Addr {
	addrs := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		addrs = append(addrs, ln.Addr())
	}

	return addrs
}

// Start launches an accept loop per bound endpoint and returns without
// blocking. Use [Server.Wait] to block until the loops exit, and
// [Server.Stop] or [Server.Close] to end them.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.group != nil {
		return ErrServerRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	group, gctx := errgroup.WithContext(ctx)
	s.group = group

	for _, ln := range s.listeners {
		group.Go(func() error {
			return s.serveListener(gctx, ln)
		})
	}

	context.AfterFunc(gctx, func() {
		for _, ln := range s.listeners {
			_ = ln.Close()
		}
	})

	return nil
}

// serveListener accepts connections until the listener is closed.
func (s *Server) serveListener(ctx context.Context, ln net.Listener) error {
	s.Logger.Info().Str("addr", ln.Addr().String()).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("accept on %s: %w", ln.Addr(), err)
		}

		s.group.Go(func() error {
			s.serveConn(ctx, conn)
			return nil
		})
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	log := s.Logger.With().Str("remote", conn.RemoteAddr().String()).Logger()

	cs := NewConnServer(conn, s.mux)
	cs.Logger = log
	cs.Callbacks = s.Callbacks

	if cs.Callbacks.OnHandlerPanic == nil {
		cs.Callbacks.OnHandlerPanic = DefaultOnHandlerPanic
	}

	if s.ConfigureConn != nil {
		s.ConfigureConn(ctx, cs)
	}

	log.Debug().Msg("connection accepted")

	if err := cs.Run(ctx); err != nil {
		log.Debug().Err(err).Msg("connection ended")
		return
	}

	log.Debug().Msg("connection closed")
}

// Stop closes the listeners and signals every connection to finish. It
// does not wait; pair with [Server.Wait] or use [Server.Close].
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		return
	}

	// Never started; release the listeners directly.
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
}

// Wait blocks until all accept loops and connections have finished.
func (s *Server) Wait() error {
	s.mu.Lock()
	group := s.group
	s.mu.Unlock()

	if group == nil {
		return nil
	}

	return group.Wait()
}

// Close stops the server and waits for all connections to finish.
func (s *Server) Close() error {
	s.Stop()
	return s.Wait()
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/seguridad-en-casa/lanbridge/pkg/log"
)

// The bridge listens on loopback only unless told otherwise.
const (
	DefaultNetwork = "tcp"
	DefaultAddress = "127.0.0.1:47231"
)

var (
	ErrServerRunning      = errors.New("transport: server already running")
	ErrUnsupportedNetwork = errors.New("transport: unsupported network")
	ErrConnectionClosed   = errors.New("transport: connection closed")
)

// ServerConfig configures a Server. Zero values take the defaults above;
// a unix Network requires Address to be the socket path.
type ServerConfig struct {
	Network        string // tcp, tcp4, tcp6 or unix
	Address        string
	MaxMessageSize uint32
	Logger         log.Logger

	OnConnect    func(conn *ServerConn)
	OnDisconnect func(conn *ServerConn)

	// OnMessage runs on the connection's read goroutine, so frames of one
	// connection are handled in order.
	OnMessage func(conn *ServerConn, msg []byte)

	// OnError gets a nil conn for accept errors.
	OnError func(conn *ServerConn, err error)
}

// Server accepts local connections from the application shell.
type Server struct {
	config   ServerConfig
	listener net.Listener

	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer validates config and returns a stopped server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Network == "" {
		config.Network = DefaultNetwork
	}
	switch config.Network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, config.Network)
	}
	if config.Address == "" {
		if config.Network == "unix" {
			return nil, errors.New("transport: unix socket path is required")
		}
		config.Address = DefaultAddress
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Server{
		config: config,
		conns:  make(map[*ServerConn]struct{}),
	}, nil
}

// Start binds the listener and accepts connections in the background
// until Stop. Connection contexts derive from ctx.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	if s.config.Network == "unix" {
		// A stale socket file from an earlier run blocks the bind.
		if fi, err := os.Lstat(s.config.Address); err == nil && fi.Mode()&os.ModeSocket != 0 {
			_ = os.Remove(s.config.Address)
		}
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, s.config.Network, s.config.Address)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", s.config.Network, s.config.Address, err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop closes the listener and every connection, then waits for their
// goroutines. It is a no-op on a stopped server.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr is nil until Start succeeds.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

func (s *Server) Network() string {
	return s.config.Network
}

// ConnectionCount reports the open shell connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(nil, fmt.Errorf("accept: %w", err))
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()
	framer := NewFramer(conn, s.config.MaxMessageSize)
	if s.config.Logger != nil {
		framer.SetLogger(s.config.Logger, connID)
	}

	sconn := &ServerConn{
		conn:       conn,
		framer:     framer,
		server:     s,
		closeCh:    make(chan struct{}),
		remoteAddr: remoteAddrString(conn),
		connID:     connID,
	}

	s.connsMu.Lock()
	if !s.running.Load() {
		s.connsMu.Unlock()
		conn.Close()
		return
	}
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	s.logState(sconn, "", "CONNECTED")
	if s.config.OnConnect != nil {
		s.config.OnConnect(sconn)
	}

	sconn.readLoop()
	sconn.Close()

	s.connsMu.Lock()
	delete(s.conns, sconn)
	s.connsMu.Unlock()

	s.logState(sconn, "CONNECTED", "DISCONNECTED")
	if s.config.OnDisconnect != nil {
		s.config.OnDisconnect(sconn)
	}
}

func (s *Server) logState(c *ServerConn, from, to string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.remoteAddr,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: from,
			NewState: to,
		},
	})
}

// remoteAddrString names the peer. Unix socket peers are usually unnamed.
func remoteAddrString(conn net.Conn) string {
	addr := conn.RemoteAddr()
	if addr == nil || addr.String() == "" {
		return "local"
	}
	return addr.String()
}

// ServerConn is one accepted shell connection.
type ServerConn struct {
	conn       net.Conn
	framer     *Framer
	server     *Server
	closeCh    chan struct{}
	closeOnce  sync.Once
	remoteAddr string
	connID     string
}

// RemoteAddr is "local" for unnamed unix peers.
func (c *ServerConn) RemoteAddr() string {
	return c.remoteAddr
}

// ConnID is a UUID assigned on accept.
func (c *ServerConn) ConnID() string {
	return c.connID
}

// Context is cancelled when the server stops.
func (c *ServerConn) Context() context.Context {
	return c.server.ctx
}

// Send writes one frame. It fails with ErrConnectionClosed after Close.
func (c *ServerConn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Close is idempotent.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

func (c *ServerConn) readLoop() {
	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && c.server.config.OnError != nil && c.server.running.Load() {
				select {
				case <-c.closeCh:
				default:
					c.server.config.OnError(c, err)
				}
			}
			return
		}

		if c.server.config.OnMessage != nil {
			c.server.config.OnMessage(c, data)
		}
	}
}

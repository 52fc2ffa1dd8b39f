package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/transport"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

// DefaultMaxAttempts is how many dials a Session makes before giving up.
const DefaultMaxAttempts = 5

// Session errors.
var (
	ErrSessionClosed = errors.New("session closed")
	ErrUnreachable   = errors.New("bridge unreachable")
)

// State is the session's link state.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc opens a client connection to the bridge.
type DialFunc func(ctx context.Context) (transport.Caller, error)

// Config configures a Session.
type Config struct {
	Network string
	Address string
	Client  transport.ClientConfig
	Backoff BackoffConfig

	// MaxAttempts bounds the dials per Connect. Zero means DefaultMaxAttempts.
	MaxAttempts int

	// Dial replaces transport.Dial. Used by tests.
	Dial DialFunc

	// Logger for reconnect diagnostics. Nil disables logging.
	Logger *slog.Logger

	OnStateChange func(old, new State)
}

// Session is a bridge client that redials after connection loss.
// It is safe for concurrent use; calls are serialized.
type Session struct {
	config  Config
	backoff *Backoff

	// callMu serializes Connect and Invoke.
	callMu sync.Mutex

	mu     sync.Mutex
	state  State
	client transport.Caller
}

// NewSession returns a disconnected Session.
func NewSession(config Config) *Session {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.Dial == nil {
		network, address, cc := config.Network, config.Address, config.Client
		config.Dial = func(ctx context.Context) (transport.Caller, error) {
			client, err := transport.Dial(ctx, network, address, cc)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	}
	return &Session{
		config:  config,
		backoff: NewBackoff(config.Backoff),
	}
}

// State returns the current link state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemoteAddr returns the bridge address, or "" when disconnected.
func (s *Session) RemoteAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return ""
	}
	return s.client.RemoteAddr().String()
}

// Connect dials the bridge if not already connected.
func (s *Session) Connect(ctx context.Context) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()
	_, err := s.connectLocked(ctx)
	return err
}

// Invoke calls method on channel, connecting first if needed. On a
// transport error the connection is dropped and the error returned; the
// next Invoke redials.
func (s *Session) Invoke(ctx context.Context, channel, method string, args any) (*wire.Result, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	client, err := s.connectLocked(ctx)
	if err != nil {
		return nil, err
	}

	res, err := client.Invoke(ctx, channel, method, args)
	if err != nil {
		s.drop(client, err)
		return nil, err
	}
	return res, nil
}

// Close disconnects and stops the session. Calling Close again is a no-op.
func (s *Session) Close() error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	client := s.client
	s.client = nil
	s.mu.Unlock()

	s.setState(StateClosed)
	if client != nil {
		return client.Close()
	}
	return nil
}

func (s *Session) connectLocked(ctx context.Context) (transport.Caller, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.client != nil {
		client := s.client
		s.mu.Unlock()
		return client, nil
	}
	s.mu.Unlock()

	s.setState(StateConnecting)

	var lastErr error
	attempt := 0
	for {
		attempt++
		client, err := s.config.Dial(ctx)
		if err == nil {
			s.mu.Lock()
			s.client = client
			s.mu.Unlock()
			s.backoff.Reset()
			s.setState(StateConnected)
			return client, nil
		}
		lastErr = err

		if attempt >= s.config.MaxAttempts || ctx.Err() != nil {
			break
		}

		delay := s.backoff.Next()
		s.debugLog("dial failed, retrying", "attempt", attempt, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(StateDisconnected)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.backoff.Reset()
	s.setState(StateDisconnected)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrUnreachable, attempt, lastErr)
}

func (s *Session) drop(client transport.Caller, cause error) {
	s.mu.Lock()
	if s.client == client {
		s.client = nil
	}
	s.mu.Unlock()

	client.Close()
	s.debugLog("connection dropped", "error", cause)
	s.setState(StateDisconnected)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	old := s.state
	if old == state || (old == StateClosed && state != StateClosed) {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	if s.config.OnStateChange != nil {
		s.config.OnStateChange(old, state)
	}
}

func (s *Session) debugLog(msg string, args ...any) {
	if s.config.Logger != nil {
		s.config.Logger.Debug(msg, args...)
	}
}

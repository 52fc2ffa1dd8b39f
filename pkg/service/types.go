package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/seguridad-en-casa/lanbridge/pkg/bridge"
	"github.com/seguridad-en-casa/lanbridge/pkg/guard"
	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/transport"
)

// Service errors.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrStopped        = errors.New("service stopped")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ErrorCodeBadRequest answers frames that do not decode as a valid call.
const ErrorCodeBadRequest = "BAD_REQUEST"

// ServiceState represents the service state.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - service is starting up.
	StateStarting

	// StateRunning - service is accepting calls.
	StateRunning

	// StateStopping - service is shutting down.
	StateStopping

	// StateStopped - service has stopped; it cannot be restarted.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Config configures a BridgeService.
type Config struct {
	// Network is the listen network: tcp, tcp4, tcp6 or unix.
	Network string

	// Address is the listen address or unix socket path.
	Address string

	// Channel is the method channel name (default: lan_discovery).
	Channel string

	// PermitTag names the multicast permit (default: mdns_lock).
	PermitTag string

	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives protocol events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Network:        transport.DefaultNetwork,
		Address:        transport.DefaultAddress,
		Channel:        bridge.ChannelName,
		PermitTag:      guard.DefaultTag,
		MaxMessageSize: transport.DefaultMaxMessageSize,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return fmt.Errorf("%w: unsupported network %q", ErrInvalidConfig, c.Network)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidConfig)
	}
	if c.Channel == "" {
		return fmt.Errorf("%w: channel is required", ErrInvalidConfig)
	}
	if c.PermitTag == "" {
		return fmt.Errorf("%w: permit tag is required", ErrInvalidConfig)
	}
	if c.MaxMessageSize > transport.DefaultMaxMessageSize {
		return fmt.Errorf("%w: max message size %d exceeds %d", ErrInvalidConfig, c.MaxMessageSize, transport.DefaultMaxMessageSize)
	}
	return nil
}

// EventType identifies the type of service event.
type EventType uint8

const (
	// EventConnected - a shell connected.
	EventConnected EventType = iota

	// EventDisconnected - a shell disconnected.
	EventDisconnected

	// EventCallHandled - a call was answered.
	EventCallHandled

	// EventPermitChanged - the permit was acquired or released.
	EventPermitChanged
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventCallHandled:
		return "CALL_HANDLED"
	case EventPermitChanged:
		return "PERMIT_CHANGED"
	default:
		return "UNKNOWN"
	}
}

// Event represents a service event.
type Event struct {
	// Type is the event type.
	Type EventType

	// ConnID identifies the connection (connection and call events).
	// Permit events carry none: the permit is shared by all connections.
	ConnID string

	// Method is the called method (call events).
	Method string

	// Result is the answer sent (call events).
	Result string

	// Held is the permit state after the change (permit events).
	Held bool

	// Reason is the guard operation behind a permit event: acquire,
	// release or teardown.
	Reason string
}

// EventHandler handles service events.
type EventHandler func(Event)

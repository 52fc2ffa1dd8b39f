// Package config loads the lanbridge daemon configuration from YAML.
//
// Example file:
//
//	channel: lan_discovery
//	listen:
//	  network: unix
//	  address: /run/lanbridge.sock
//	permit:
//	  tag: mdns_lock
//	  interface: wlan0
//	  ipv6: true
//	log:
//	  level: debug
//	  protocol_log: /var/log/lanbridge/session.mlog
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/seguridad-en-casa/lanbridge/pkg/bridge"
	"github.com/seguridad-en-casa/lanbridge/pkg/guard"
	"github.com/seguridad-en-casa/lanbridge/pkg/transport"
	"gopkg.in/yaml.v3"
)

// Defaults. All but the log level come from the packages that own them.
const (
	DefaultChannel   = bridge.ChannelName
	DefaultNetwork   = transport.DefaultNetwork
	DefaultAddress   = transport.DefaultAddress
	DefaultPermitTag = guard.DefaultTag
	DefaultLogLevel  = "info"
)

// Config is the daemon configuration.
type Config struct {
	Channel string       `yaml:"channel"`
	Listen  ListenConfig `yaml:"listen"`
	Permit  PermitConfig `yaml:"permit"`
	Log     LogConfig    `yaml:"log"`
}

// ListenConfig selects where shells connect.
type ListenConfig struct {
	// Network is tcp, tcp4, tcp6 or unix.
	Network string `yaml:"network"`

	// Address is host:port, or a socket path for unix.
	Address string `yaml:"address"`
}

// PermitConfig configures the multicast permit.
type PermitConfig struct {
	Tag string `yaml:"tag"`

	// Interface restricts group membership to one interface. Empty means
	// every up, multicast-capable interface.
	Interface string `yaml:"interface"`

	// IPv6 also joins the IPv6 mDNS group.
	IPv6 bool `yaml:"ipv6"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// ProtocolLog is an optional .mlog file path for protocol events.
	ProtocolLog string `yaml:"protocol_log"`
}

// LoadError reports a configuration file that could not be used.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the default configuration.
func Default() Config {
	return Config{
		Channel: DefaultChannel,
		Listen: ListenConfig{
			Network: DefaultNetwork,
			Address: DefaultAddress,
		},
		Permit: PermitConfig{
			Tag: DefaultPermitTag,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected. Empty input yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Message: "validation failed", Cause: err}
	}
	return &cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Channel == "" {
		return fmt.Errorf("%w: channel is required", ErrInvalid)
	}
	switch c.Listen.Network {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return fmt.Errorf("%w: listen.network %q is not one of tcp, tcp4, tcp6, unix", ErrInvalid, c.Listen.Network)
	}
	if c.Listen.Address == "" {
		return fmt.Errorf("%w: listen.address is required", ErrInvalid)
	}
	if c.Permit.Tag == "" {
		return fmt.Errorf("%w: permit.tag is required", ErrInvalid)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

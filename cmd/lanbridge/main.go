// Command lanbridge runs the lan_discovery bridge.
//
// The bridge lets a local application shell take and give back the host's
// multicast-reception permit (mDNS group membership) through the
// acquireMulticast and releaseMulticast methods. On SIGINT or SIGTERM the
// listener is closed and a permit still held is released.
//
// Usage:
//
//	lanbridge [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-network string       Listen network: tcp, tcp4, tcp6, unix
//	-listen string        Listen address or unix socket path
//	-interface string     Join the mDNS group on this interface only
//	-ipv6                 Also join the IPv6 mDNS group
//	-tag string           Permit tag
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  Write protocol events to this .mlog file
//
// Flags override values from the configuration file.
//
// Examples:
//
//	# Listen on the default loopback port
//	lanbridge
//
//	# Listen on a unix socket, wlan0 only, with a protocol log
//	lanbridge -network unix -listen /run/lanbridge.sock -interface wlan0 -protocol-log session.mlog
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/seguridad-en-casa/lanbridge/pkg/config"
	"github.com/seguridad-en-casa/lanbridge/pkg/log"
	"github.com/seguridad-en-casa/lanbridge/pkg/permit"
	"github.com/seguridad-en-casa/lanbridge/pkg/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	protocolLogger, closeLog, err := newProtocolLogger(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLog()

	permits := permit.NewMulticastService(permit.Config{
		Interface: cfg.Permit.Interface,
		IPv6:      cfg.Permit.IPv6,
	})

	svcConfig := serviceConfig(cfg)
	svcConfig.Logger = logger
	svcConfig.ProtocolLogger = protocolLogger

	svc, err := service.NewBridgeService(permits, svcConfig)
	if err != nil {
		return fmt.Errorf("failed to create bridge service: %w", err)
	}
	svc.OnEvent(func(e service.Event) {
		if e.Type == service.EventPermitChanged {
			logger.Info("multicast permit changed", "held", e.Held, "reason", e.Reason)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("shutting down", "signal", sig.String())
	return svc.Stop()
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("lanbridge", flag.ContinueOnError)
	configFile := fs.String("config", "", "Configuration file path (YAML)")
	network := fs.String("network", "", "Listen network: tcp, tcp4, tcp6, unix")
	listen := fs.String("listen", "", "Listen address or unix socket path")
	iface := fs.String("interface", "", "Join the mDNS group on this interface only")
	ipv6 := fs.Bool("ipv6", false, "Also join the IPv6 mDNS group")
	tag := fs.String("tag", "", "Permit tag")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	protocolLog := fs.String("protocol-log", "", "Write protocol events to this .mlog file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var cfg *config.Config
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	} else {
		def := config.Default()
		cfg = &def
	}

	// Only flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "network":
			cfg.Listen.Network = *network
		case "listen":
			cfg.Listen.Address = *listen
		case "interface":
			cfg.Permit.Interface = *iface
		case "ipv6":
			cfg.Permit.IPv6 = *ipv6
		case "tag":
			cfg.Permit.Tag = *tag
		case "log-level":
			cfg.Log.Level = *logLevel
		case "protocol-log":
			cfg.Log.ProtocolLog = *protocolLog
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serviceConfig maps the file configuration onto the service.
func serviceConfig(cfg *config.Config) service.Config {
	sc := service.DefaultConfig()
	sc.Network = cfg.Listen.Network
	sc.Address = cfg.Listen.Address
	sc.Channel = cfg.Channel
	sc.PermitTag = cfg.Permit.Tag
	return sc
}

// newProtocolLogger builds the protocol event sink. At debug level events
// are mirrored to the console. It returns nil when nothing would consume
// events.
func newProtocolLogger(cfg *config.Config, logger *slog.Logger) (log.Logger, func(), error) {
	var file log.Logger
	if cfg.Log.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to create protocol logger: %w", err)
		}
		file = fl
		logger.Info("protocol logging enabled", "path", fl.Path())
	}
	var console log.Logger
	if cfg.SlogLevel() <= slog.LevelDebug {
		console = log.NewSlogAdapter(logger)
	}

	sinks := log.NewMultiLogger(file, console)
	closeFn := func() {
		if err := sinks.Close(); err != nil {
			logger.Warn("failed to close protocol log", "error", err)
		}
	}
	if sinks.Len() == 0 {
		return nil, closeFn, nil
	}
	return sinks, closeFn, nil
}

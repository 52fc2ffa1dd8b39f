// Command lanbridge-ctl talks to a running lanbridge.
//
// It plays the application shell's side of the lan_discovery channel,
// which is useful for checking a deployment by hand.
//
// Usage:
//
//	lanbridge-ctl [flags] <command> [args]
//
// Commands:
//
//	acquire         Call acquireMulticast
//	release         Call releaseMulticast
//	status          Call multicastStatus
//	call <method>   Call any method on the channel
//	shell           Interactive session, reconnects if the bridge restarts
//
// Flags:
//
//	-network string   Bridge network (default "tcp")
//	-addr string      Bridge address (default "127.0.0.1:47231")
//	-channel string   Method channel (default "lan_discovery")
//	-timeout duration Per-call timeout (default 5s)
//	-retries int      Dial attempts before giving up (default 5)
//
// A permit acquired by a one-shot command stays held by the bridge until
// it is released or the bridge stops.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/seguridad-en-casa/lanbridge/pkg/bridge"
	"github.com/seguridad-en-casa/lanbridge/pkg/connection"
	"github.com/seguridad-en-casa/lanbridge/pkg/transport"
	"github.com/seguridad-en-casa/lanbridge/pkg/wire"
)

const usage = `lanbridge-ctl - lan_discovery bridge client

Usage:
  lanbridge-ctl [flags] <command> [args]

Commands:
  acquire         Call acquireMulticast
  release         Call releaseMulticast
  status          Call multicastStatus
  call <method>   Call any method on the channel
  shell           Interactive session, reconnects if the bridge restarts

Flags:
`

// options holds the global flags.
type options struct {
	network string
	addr    string
	channel string
	timeout time.Duration
	retries int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lanbridge-ctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.network, "network", transport.DefaultNetwork, "Bridge network: tcp, tcp4, tcp6, unix")
	fs.StringVar(&opts.addr, "addr", transport.DefaultAddress, "Bridge address or unix socket path")
	fs.StringVar(&opts.channel, "channel", bridge.ChannelName, "Method channel")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Second, "Per-call timeout")
	fs.IntVar(&opts.retries, "retries", connection.DefaultMaxAttempts, "Dial attempts before giving up")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	method, ok := methodFor(cmd, cmdArgs)
	if !ok && cmd != "shell" {
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		fs.Usage()
		return 2
	}

	ctx := context.Background()
	session := newSession(opts)
	defer session.Close()

	if cmd == "shell" {
		if err := session.Connect(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		sh, err := newShell(session, opts)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		sh.Run(ctx)
		return 0
	}

	res, err := callMethod(ctx, session, opts, method)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, formatResult(res))
	if !res.IsSuccess() {
		return 1
	}
	return 0
}

// methodFor maps a command to the method it calls.
func methodFor(cmd string, args []string) (string, bool) {
	switch cmd {
	case "acquire":
		return bridge.MethodAcquireMulticast, true
	case "release":
		return bridge.MethodReleaseMulticast, true
	case "status":
		return bridge.MethodMulticastStatus, true
	case "call":
		if len(args) != 1 || args[0] == "" {
			return "", false
		}
		return args[0], true
	default:
		return "", false
	}
}

func newSession(opts options) *connection.Session {
	return connection.NewSession(connection.Config{
		Network:     opts.network,
		Address:     opts.addr,
		Client:      transport.ClientConfig{ConnectTimeout: opts.timeout},
		MaxAttempts: opts.retries,
	})
}

func callMethod(ctx context.Context, session *connection.Session, opts options, method string) (*wire.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	return session.Invoke(ctx, opts.channel, method, nil)
}

// formatResult renders a result on one line.
func formatResult(res *wire.Result) string {
	switch res.Status {
	case wire.StatusSuccess:
		return fmt.Sprintf("ok: %v", res.Payload)
	case wire.StatusNotImplemented:
		return "not implemented"
	default:
		if res.ErrorMessage == "" {
			return fmt.Sprintf("error %s", res.ErrorCode)
		}
		return fmt.Sprintf("error %s: %s", res.ErrorCode, res.ErrorMessage)
	}
}

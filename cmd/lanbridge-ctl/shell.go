package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/seguridad-en-casa/lanbridge/pkg/connection"
)

// shell is the interactive session.
type shell struct {
	session *connection.Session
	opts    options
	rl      *readline.Instance
}

func newShell(session *connection.Session, opts options) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lanbridge> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("acquire"),
			readline.PcItem("release"),
			readline.PcItem("status"),
			readline.PcItem("call"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &shell{session: session, opts: opts, rl: rl}, nil
}

// Run reads commands until EOF or quit.
func (s *shell) Run(ctx context.Context) {
	defer s.rl.Close()

	out := s.rl.Stdout()
	fmt.Fprintf(out, "Connected to %s (%s), channel %s\n", s.session.RemoteAddr(), s.opts.network, s.opts.channel)
	printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return
		}

		if !s.exec(ctx, out, line) {
			return
		}
	}
}

// exec runs one input line and reports whether the session continues.
func (s *shell) exec(ctx context.Context, out io.Writer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	cmd := strings.ToLower(fields[0])
	switch cmd {
	case "help", "?":
		printHelp(out)
		return true
	case "quit", "exit", "q":
		return false
	}

	method, ok := methodFor(cmd, fields[1:])
	if !ok {
		fmt.Fprintf(out, "Unknown command: %s (try help)\n", line)
		return true
	}

	res, err := callMethod(ctx, s.session, s.opts, method)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		if errors.Is(err, connection.ErrSessionClosed) {
			return false
		}
		if s.session.State() != connection.StateConnected {
			fmt.Fprintln(out, "Disconnected, will redial on the next command")
		}
		return true
	}
	fmt.Fprintln(out, formatResult(res))
	return true
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `Commands:
  acquire         Acquire the multicast permit
  release         Release the multicast permit
  status          Show whether the permit is held
  call <method>   Call any method on the channel
  help            Show this help
  quit            Leave the shell
`)
}

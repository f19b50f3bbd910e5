package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// HelpText lists the request grammar.
const HelpText = `Commands:
GET /devices/list
GET /light/[1|2]/[on|off|status]
GET /light/[1|2]/brightness/<0-100>
GET /thermostat/[status|set/<10-30>]
GET /camera/[status|record/start|record/stop]
help - Show commands
exit - Close client`

// Sender sends one request and returns the reply.
type Sender interface {
	Send(ctx context.Context, request string) (string, error)
}

// Shell is an interactive prompt in front of a Sender.
type Shell struct {
	sender Sender
	rl     *readline.Instance
}

// NewShell creates a shell with line editing. historyFile may be empty.
func NewShell(s Sender, historyFile string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "Command: ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{sender: s, rl: rl}, nil
}

// completer offers every request in HelpText plus the shell commands.
func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("GET",
			readline.PcItem("/devices/list"),
			readline.PcItem("/light/1/on"),
			readline.PcItem("/light/1/off"),
			readline.PcItem("/light/1/status"),
			readline.PcItem("/light/1/brightness/"),
			readline.PcItem("/light/2/on"),
			readline.PcItem("/light/2/off"),
			readline.PcItem("/light/2/status"),
			readline.PcItem("/light/2/brightness/"),
			readline.PcItem("/thermostat/status"),
			readline.PcItem("/thermostat/set/"),
			readline.PcItem("/camera/status"),
			readline.PcItem("/camera/record/start"),
			readline.PcItem("/camera/record/stop"),
		),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Run reads commands until exit, EOF, ctx cancellation or a transport
// error. A transport error is returned; the other cases return nil.
func (s *Shell) Run(ctx context.Context) error {
	defer s.rl.Close()

	out := s.rl.Stdout()
	fmt.Fprintln(out, "Connected to server successfully!")
	fmt.Fprintln(out, HelpText)

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if line == "" {
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		quit, err := Exec(ctx, s.sender, out, line)
		if err != nil {
			fmt.Fprintln(s.rl.Stderr(), "Lost connection to server.")
			return err
		}
		if quit {
			return nil
		}
	}
}

// Exec handles one shell line: help, exit, blank, or a request to send.
// It reports whether the shell should stop.
func Exec(ctx context.Context, s Sender, out io.Writer, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false, nil
	case "exit":
		return true, nil
	case "help":
		fmt.Fprintln(out, HelpText)
		return false, nil
	}

	resp, err := s.Send(ctx, line)
	if err != nil {
		return true, err
	}
	fmt.Fprintf(out, "Server: %s\n", resp)
	return false, nil
}

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bit-cook/ClawX/internal/chat"
	"github.com/bit-cook/ClawX/internal/config"
	"github.com/bit-cook/ClawX/internal/gateway"
	"github.com/bit-cook/ClawX/internal/render"

	"github.com/google/shlex"
)

const replHelp = `Commands:
  /help            show this help
  /history [n]     list the transcript, or just its last n messages
  /status          show session state
  /clear           clear the session history on the gateway
  /save [path]     export the transcript as JSON
  /exit            leave the session`

type REPL struct {
	cfg     *config.Config
	client  *gateway.Client
	state   *chat.State
	session *chat.Session
	printer *render.Printer
	reader  *bufio.Reader

	signal      chan struct{}
	unsubscribe func()
}

func newREPL(cfg *config.Config, client *gateway.Client, state *chat.State, session *chat.Session, printer *render.Printer) *REPL {
	r := &REPL{
		cfg:     cfg,
		client:  client,
		state:   state,
		session: session,
		printer: printer,
		reader:  bufio.NewReader(os.Stdin),
		signal:  make(chan struct{}, 1),
	}

	r.unsubscribe = state.Subscribe(func() {
		select {
		case r.signal <- struct{}{}:
		default:
		}
	})

	return r
}

func (r *REPL) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *REPL) Start(ctx context.Context) error {
	fmt.Printf("ClawX session %q connected to %s\n", r.session.SessionKey(), r.cfg.Gateway.URL)
	fmt.Println("Type /help for commands, /exit to quit.")

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-r.client.Done():
			r.printer.Notice("gateway connection closed")
			return nil
		default:
		}

		r.printer.ShowPrompt()
		line, err := r.reader.ReadString('\n')
		r.printer.HidePrompt()
		if err != nil {
			if err == io.EOF {
				fmt.Println()
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.dispatch(ctx, line)
			if err != nil {
				r.printer.Notice("command failed: " + err.Error())
			}
			if quit {
				return nil
			}
			continue
		}

		r.session.Send(ctx, line)
		r.waitForRun(ctx)
	}
}

// dispatch handles one slash command. It reports whether the REPL should
// quit.
func (r *REPL) dispatch(ctx context.Context, line string) (bool, error) {
	parts, err := shlex.Split(strings.TrimPrefix(line, "/"))
	if err != nil {
		return false, fmt.Errorf("parse command: %w", err)
	}
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "exit", "quit":
		return true, nil

	case "help":
		r.printer.Notice(replHelp)

	case "history":
		snap := r.state.Snapshot()
		if len(snap.Messages) == 0 {
			r.printer.Notice("transcript is empty")
			break
		}
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				return false, fmt.Errorf("usage: /history [n]")
			}
			if n < len(snap.Messages) {
				snap.Messages = snap.Messages[len(snap.Messages)-n:]
			}
		}
		r.printer.DumpAll(snap)

	case "status":
		runID, active := r.state.ActiveRun()
		status := fmt.Sprintf("session %s · %d messages · sending=%v", r.session.SessionKey(), r.state.Len(), r.state.Sending())
		if active {
			status += " · run " + runID
		}
		r.printer.Notice(status)

	case "clear":
		r.session.ClearHistory(ctx)
		if r.state.Len() == 0 {
			r.printer.Notice("history cleared")
		} else {
			r.printer.Notice("clear failed, transcript kept")
		}

	case "save":
		path := ""
		if len(parts) > 1 {
			path = parts[1]
		}
		saved, err := writeExport(r.cfg, r.session.SessionKey(), r.state.Snapshot(), path)
		if err != nil {
			return false, err
		}
		r.printer.Notice("transcript saved to " + saved)

	default:
		r.printer.Notice("unknown command: /" + parts[0])
	}

	return false, nil
}

// waitForRun blocks until the in-flight send reaches a terminal state. State
// changes wake it through the subscription signal; a dead connection or a
// shutdown signal ends the wait early.
func (r *REPL) waitForRun(ctx context.Context) {
	for r.state.Sending() {
		select {
		case <-r.signal:
		case <-r.client.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

// =============================================================================
// repl.go - REPL Loop
// =============================================================================
//
// The REPL reads one command per line. Lines starting with a dot are local
// commands (.help, .raw, .quit). Everything else is parsed as a module
// command and sent to the engine. Commands that the engine answers
// (version, status, graminfo) wait for the reply and print it; the others
// are fire-and-forget, and their effect shows up in the notification
// stream.
//
// =============================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julius-go/julius/juliusprotocol"
)

const (
	// prompt is shown before every command.
	prompt = "julius> "

	// replyTimeout bounds how long the REPL waits for a reply record.
	replyTimeout = 5 * time.Second
)

// GO CONCEPT: context.Context for Deadlines
// -----------------------------------------
// The protocol client never times out a request on its own. The REPL
// passes a context with a deadline instead, so a silent engine cannot hang
// the prompt. `defer cancel()` releases the timer as soon as the request
// returns.
//
// Compare with Python: asyncio.wait_for(coro, timeout=5) wraps an
// awaitable with a deadline in the same way.

// runREPL runs the main REPL loop until .quit or end of input.
func runREPL(client *juliusprotocol.Client, editor *LineEditor, out *printer) {
	parser := juliusprotocol.NewCommandParser()

	for {
		line, err := editor.GetLine(prompt)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(line, out); quit {
				return
			}
			continue
		}

		cmd, err := parser.Parse(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		if err := execute(client, cmd, out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// handleDotCommand runs a local command. It returns true when the REPL
// should exit.
func handleDotCommand(line string, out *printer) bool {
	name, topic, _ := strings.Cut(line, " ")
	topic = strings.TrimSpace(topic)

	switch strings.ToLower(name) {
	case ".quit", ".exit":
		return true
	case ".help":
		printHelp(topic)
	case ".raw":
		if out.toggleRaw() {
			out.println("Raw output on")
		} else {
			out.println("Raw output off")
		}
	default:
		fmt.Fprintf(os.Stderr, "Error: Unknown command '%s'. Type .help for available commands.\n", name)
	}
	return false
}

// execute sends cmd. When the engine answers the command, execute waits
// for the reply and prints it.
func execute(client *juliusprotocol.Client, cmd juliusprotocol.Command, out *printer) error {
	kind, hasReply := cmd.Reply()
	if !hasReply {
		if err := client.Send(cmd); err != nil {
			return err
		}
		if cmd.Type == juliusprotocol.CmdDie {
			out.println("Engine shutdown requested")
		}
		return nil
	}

	release := out.expect(kind)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	var (
		reply juliusprotocol.Notification
		err   error
	)
	switch cmd.Type {
	case juliusprotocol.CmdVersion:
		reply, err = client.EngineInfo(ctx)
	case juliusprotocol.CmdStatus:
		reply, err = client.SystemInfo(ctx)
	case juliusprotocol.CmdGrammarInfo:
		reply, err = client.GrammarInfo(ctx)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no reply to %s within %s", cmd.Format(), replyTimeout)
		}
		return err
	}

	out.println(formatNotification(reply))
	return nil
}

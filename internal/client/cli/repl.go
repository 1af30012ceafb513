package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	NewEntry(ctx context.Context) error
	OpenDraft(ctx context.Context) error
	EditEntry(ctx context.Context) error
	Preview(ctx context.Context) error
	Submit(ctx context.Context) error
	Status(ctx context.Context) error
	Retry(ctx context.Context) error
	Discard(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the herdlog CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands:
//
//	Not signed in:
//	  - help           — show available commands
//	  - login          — store an access token
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - new            — open a fresh entry
//	  - open           — resume the saved draft of the current entry
//	  - edit           — edit the open entry's fields
//	  - preview        — show the retrieval query the analysis would use
//	  - submit         — validate and submit the open entry
//	  - status         — show analysis state and progress
//	  - retry          — retry a failed or timed-out analysis
//	  - discard        — discard the open entry's draft
//	  - logout         — forget the access token
//	  - exit | quit    — leave the program
//
// Any errors returned by command handlers are printed by the handlers
// themselves; the loop stays resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("herdlog %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: new, open, edit, preview, submit, status, retry, discard, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "new":
			_ = a.NewEntry(ctx)

		case "open":
			_ = a.OpenDraft(ctx)

		case "edit":
			_ = a.EditEntry(ctx)

		case "preview":
			_ = a.Preview(ctx)

		case "submit":
			_ = a.Submit(ctx)

		case "status":
			_ = a.Status(ctx)

		case "retry":
			_ = a.Retry(ctx)

		case "discard":
			_ = a.Discard(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

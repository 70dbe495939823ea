package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	signedIn() bool
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Status(ctx context.Context) error
	Passwd(ctx context.Context) error
	Forget(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the sessionkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF or when the user types "exit" or "quit".
//
//	Signed out:
//	  - help           — show available commands
//	  - signin         — authenticate
//	  - status         — show session and connectivity state
//	  - forget         — wipe the remembered identifier
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - whoami         — ask the server who the session belongs to
//	  - status         — show session and connectivity state
//	  - passwd         — change the password
//	  - signout        — end the session
//	  - exit | quit    — leave the program
//
// Errors returned by command handlers are printed and otherwise ignored, so
// a failing command never ends the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sk %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.signedIn() {
				printlnFn("Available commands: whoami, status, passwd, signout, exit")
			} else {
				printlnFn("Available commands: signin, status, forget, exit")
			}

		case "signin", "login":
			cmdErr = a.SignIn(ctx)

		case "signout", "logout":
			cmdErr = a.SignOut(ctx)

		case "whoami":
			cmdErr = a.WhoAmI(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "passwd":
			cmdErr = a.Passwd(ctx)

		case "forget":
			cmdErr = a.Forget(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		var shown errShown
		if cmdErr != nil && !errors.As(cmdErr, &shown) {
			printlnFn("Error:", userMessage(cmdErr))
		}
	}
}

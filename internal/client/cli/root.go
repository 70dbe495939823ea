package cli

import (
	"context"
	"fmt"
)

// getStatus renders the prompt suffix, e.g. "(ann@example.com online)".
func (a *App) getStatus() string {
	s := ""
	if u := a.authService.Session().User; u != nil {
		s = u.DisplayName() + " "
	}
	if m := a.currentMode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores the session, starts the connectivity watcher and runs the
// REPL until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to sessionkeeper (type 'help' for commands)")

	a.checkOnline(ctx)

	snap := a.authService.Bootstrap(ctx)
	if snap.Authenticated() {
		printlnFn(fmt.Sprintf("Signed in as %s.", snap.User.DisplayName()))
	} else {
		printlnFn("Not signed in. Type 'signin' to start.")
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(wctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

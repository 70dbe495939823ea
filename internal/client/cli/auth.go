package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotSignedIn = errors.New("not signed in, type 'signin' first")

// SignIn prompts for an email (prefilled with the last identifier) and a
// password and authenticates. The password is wiped before returning.
func (a *App) SignIn(ctx context.Context) error {
	last, err := a.authService.LastIdentifier(ctx)
	if err != nil {
		a.logger.Warn(ctx, "could not read last identifier", "error", err)
	}

	prompt := "Enter email"
	if last != "" {
		prompt = fmt.Sprintf("Enter email [%s]", last)
	}
	email, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return err
	}
	if email == "" {
		email = last
	}
	if email == "" {
		return errors.New("email is required")
	}

	password, err := getPassword(a.out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Signed in as %s.", user.DisplayName()))
	return nil
}

// SignOut ends the session. Local state is reset even if the server call
// fails.
func (a *App) SignOut(ctx context.Context) error {
	if !a.signedIn() {
		return errNotSignedIn
	}
	err := a.authService.SignOut(ctx)
	printlnFn("Signed out.")
	return err
}

// WhoAmI asks the server who the current session belongs to. An expired
// access credential is refreshed transparently on the way.
func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.authService.WhoAmI(ctx)
	if err != nil {
		return err
	}
	line := fmt.Sprintf("%s <%s> id=%s", user.DisplayName(), user.Email, user.ID)
	if user.Role != "" {
		line += " role=" + user.Role
	}
	printlnFn(line)
	return nil
}

// Status prints the local view of the session without calling the server.
func (a *App) Status(ctx context.Context) error {
	snap := a.authService.Session()
	printlnFn("session:", string(snap.Status))
	if snap.User != nil {
		printlnFn("user:", snap.User.DisplayName())
	}
	if snap.FailureReason != "" {
		printlnFn("reason:", snap.FailureReason)
	}
	if m := a.currentMode(); m != "" {
		printlnFn("server:", string(m))
	}
	return nil
}

// Forget wipes the remembered identifier and other local metadata.
func (a *App) Forget(ctx context.Context) error {
	if err := a.authService.ClearLocalData(ctx); err != nil {
		return err
	}
	printlnFn("Local data cleared.")
	return nil
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		return client.ErrSessionExpired.Error()
	case errors.Is(err, client.ErrUnavailable) && client.StatusOf(err) == 0:
		return "server unavailable"
	}
	return client.UserMessage(err)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/rotation"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/strength"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// Passwd runs the interactive password rotation:
//
//	current/new/confirm -> request code -> enter code -> commit
//
// At the code prompt "resend" asks for a new code and "cancel" aborts. A
// rejected commit keeps the entered passwords so only the code is asked
// again. Notices from the coordinator are printed by the board.
func (a *App) Passwd(ctx context.Context) error {
	if !a.signedIn() {
		return errNotSignedIn
	}

	r := a.authService.NewRotation()
	defer r.Cancel()

	if err := a.readSecret("Current password: ", r.SetCurrentPassword); err != nil {
		return err
	}
	var res strength.Result
	if err := a.readSecret("New password: ", func(v string) { res = r.SetNewPassword(v) }); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Strength: %d/%d", res.Score, strength.MaxScore))
	if err := a.readSecret("Confirm new password: ", r.SetConfirmPassword); err != nil {
		return err
	}

	if err := r.RequestOTP(ctx); err != nil {
		return quiet(err)
	}

	otpLen := a.config.OTPLength
	for {
		code, err := getSimpleText(a.reader, fmt.Sprintf("Enter the %d-character code from your email ('resend' or 'cancel')", otpLen), a.out)
		if err != nil {
			return err
		}

		switch strings.ToLower(code) {
		case "cancel":
			r.Cancel()
			printlnFn("Password change cancelled.")
			return nil
		case "resend":
			if err := r.RequestOTP(ctx); errors.Is(err, client.ErrSessionExpired) {
				return quiet(err)
			}
			continue
		}

		r.SetOTP(code)
		if !r.CanCommit() {
			printlnFn(fmt.Sprintf("The code must be exactly %d characters.", otpLen))
			continue
		}

		err = r.Commit(ctx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, rotation.ErrCancelled):
			return err
		case errors.Is(err, client.ErrSessionExpired), errors.Is(err, rotation.ErrValidation):
			return quiet(err)
		}
	}
}

func (a *App) readSecret(prompt string, set func(string)) error {
	b, err := getPassword(a.out, prompt)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(b)
	set(string(b))
	return nil
}

// errShown marks an error whose message the notice board already printed.
type errShown struct{ err error }

func (e errShown) Error() string { return e.err.Error() }
func (e errShown) Unwrap() error { return e.err }

// quiet wraps rotation errors the board has already surfaced so the REPL
// does not print them twice.
func quiet(err error) error {
	return errShown{err}
}

package rotation

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrBusy       = errors.New("another rotation step is in progress")
	ErrWrongPhase = errors.New("request a verification code first")
	ErrOTPLength  = errors.New("verification code has the wrong length")
	ErrCancelled  = errors.New("rotation was cancelled")
	ErrRejected   = errors.New("request rejected by server")
)

// Validation messages, shown to the user as-is.
const (
	MsgCurrentTooShort = "current password is too short"
	MsgMismatch        = "passwords do not match"
	MsgTooWeak         = "new password is too weak"
)

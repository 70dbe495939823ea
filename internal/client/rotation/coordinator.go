package rotation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/strength"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// API is the subset of the auth facade the coordinator needs.
type API interface {
	RequestPasswordOTP(ctx context.Context, currentPassword string) (*client.Result, error)
	CommitPasswordUpdate(ctx context.Context, currentPassword, newPassword, otp string) (*client.Result, error)
}

// Notifier shows transient messages; *notice.Board implements it.
type Notifier interface {
	Success(text string)
	Error(text string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Coordinator drives one rotation form. It is safe for concurrent use;
// network calls are made without holding the lock.
type Coordinator struct {
	api        API
	scorer     strength.Scorer
	notifier   Notifier
	policy     Policy
	userInputs []string
	logger     logging.Logger

	mu    sync.Mutex
	state State
	// gen is bumped on Cancel and on every completed step so that a
	// response arriving after Cancel is discarded.
	gen uint64
}

type Option func(*Coordinator)

func WithScorer(s strength.Scorer) Option {
	return func(c *Coordinator) { c.scorer = s }
}

func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

func WithPolicy(p Policy) Option {
	return func(c *Coordinator) { c.policy = p }
}

// WithUserInputs adds strings (email, display name) the scorer treats as
// easily guessable.
func WithUserInputs(inputs ...string) Option {
	return func(c *Coordinator) { c.userInputs = append(c.userInputs, inputs...) }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

func NewCoordinator(api API, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:      api,
		scorer:   strength.NewScorer(),
		notifier: nopNotifier{},
		policy:   DefaultPolicy(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "password_rotation")
	c.state = State{Phase: PhaseIdle, Strength: c.scorer.Score("", c.userInputs...)}
	return c
}

// Snapshot returns a copy of the current state for rendering.
func (c *Coordinator) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

func (c *Coordinator) SetCurrentPassword(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CurrentPassword = v
}

// SetNewPassword stores the candidate and recomputes its strength.
func (c *Coordinator) SetNewPassword(v string) strength.Result {
	res := c.scorer.Score(v, c.userInputs...)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.NewPassword = v
	c.state.Strength = res
	return res
}

func (c *Coordinator) SetConfirmPassword(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ConfirmPassword = v
}

func (c *Coordinator) SetOTP(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.OTP = strings.TrimSpace(v)
}

// Validate runs every local check, records all failures in the state and
// surfaces the first one.
func (c *Coordinator) Validate() []string {
	c.mu.Lock()
	errs := c.validateLocked()
	c.mu.Unlock()

	if len(errs) > 0 {
		c.notifier.Error(errs[0])
	}
	return errs
}

func (c *Coordinator) validateLocked() []string {
	s := &c.state
	var errs []string

	if utf8.RuneCountInString(s.CurrentPassword) < c.policy.MinCurrentPasswordLen {
		errs = append(errs, MsgCurrentTooShort)
	}
	if s.NewPassword != s.ConfirmPassword {
		errs = append(errs, MsgMismatch)
	}

	s.Strength = c.scorer.Score(s.NewPassword, c.userInputs...)
	if s.Strength.Score < c.policy.MinStrengthScore {
		msg := s.Strength.Message()
		if msg == "" {
			msg = MsgTooWeak
		}
		errs = append(errs, msg)
	}

	s.Errors = errs
	return append([]string(nil), errs...)
}

// RequestOTP validates the form and asks the server to send a verification
// code. Only the current password is sent. Calling it again while in
// PhaseOTPRequested re-sends the code.
func (c *Coordinator) RequestOTP(ctx context.Context) error {
	c.mu.Lock()
	if c.state.RequestingOTP || c.state.Committing || c.state.Phase == PhaseCommitting {
		c.mu.Unlock()
		return ErrBusy
	}
	if errs := c.validateLocked(); len(errs) > 0 {
		c.mu.Unlock()
		c.notifier.Error(errs[0])
		return fmt.Errorf("%w: %s", ErrValidation, errs[0])
	}
	c.state.RequestingOTP = true
	gen := c.gen
	current := c.state.CurrentPassword
	c.mu.Unlock()

	c.logger.Debug(ctx, "requesting verification code")
	res, err := c.api.RequestPasswordOTP(ctx, current)
	err = outcome(res, err)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug(ctx, "discarding verification code response after cancel")
		return ErrCancelled
	}
	c.state.RequestingOTP = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Info(ctx, "verification code request failed", "error", err)
		c.notifier.Error(client.UserMessage(err))
		return err
	}
	c.gen++
	c.state.Phase = PhaseOTPRequested
	c.state.OTP = ""
	c.state.Errors = nil
	c.mu.Unlock()

	c.notifier.Success(messageOr(res, "verification code sent"))
	return nil
}

// CanCommit reports whether Commit would be attempted.
func (c *Coordinator) CanCommit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Phase == PhaseOTPRequested &&
		!c.state.RequestingOTP && !c.state.Committing &&
		utf8.RuneCountInString(c.state.OTP) == c.policy.OTPLength
}

// Commit sends current password, new password and OTP together. On success
// the form resets to idle; on failure it stays in PhaseOTPRequested with
// everything but the OTP preserved.
func (c *Coordinator) Commit(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state.Phase == PhaseIdle:
		c.mu.Unlock()
		return ErrWrongPhase
	case c.state.RequestingOTP || c.state.Committing || c.state.Phase == PhaseCommitting:
		c.mu.Unlock()
		return ErrBusy
	}
	if n := utf8.RuneCountInString(c.state.OTP); n != c.policy.OTPLength {
		c.mu.Unlock()
		msg := fmt.Sprintf("verification code must be %d characters", c.policy.OTPLength)
		c.notifier.Error(msg)
		return fmt.Errorf("%w: got %d, want %d", ErrOTPLength, n, c.policy.OTPLength)
	}
	if errs := c.validateLocked(); len(errs) > 0 {
		c.mu.Unlock()
		c.notifier.Error(errs[0])
		return fmt.Errorf("%w: %s", ErrValidation, errs[0])
	}
	c.state.Phase = PhaseCommitting
	c.state.Committing = true
	gen := c.gen
	current, next, otp := c.state.CurrentPassword, c.state.NewPassword, c.state.OTP
	c.mu.Unlock()

	c.logger.Debug(ctx, "committing password update")
	res, err := c.api.CommitPasswordUpdate(ctx, current, next, otp)
	err = outcome(res, err)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug(ctx, "discarding commit response after cancel")
		return ErrCancelled
	}
	c.state.Committing = false
	if err != nil {
		c.state.Phase = PhaseOTPRequested
		c.state.OTP = ""
		c.mu.Unlock()
		c.logger.Info(ctx, "password update rejected", "error", err)
		c.notifier.Error(client.UserMessage(err))
		return err
	}
	c.resetLocked()
	c.mu.Unlock()

	c.logger.Info(ctx, "password updated")
	c.notifier.Success(messageOr(res, "password updated"))
	return nil
}

// Cancel returns to idle from any phase and clears every field. A call
// already in flight is not aborted; its outcome is discarded.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Coordinator) resetLocked() {
	c.gen++
	c.state = State{Phase: PhaseIdle, Strength: c.scorer.Score("", c.userInputs...)}
}

// outcome folds a success=false payload into an error carrying the server
// message.
func outcome(res *client.Result, err error) error {
	if err != nil {
		return err
	}
	if res != nil && !res.Success {
		if res.Message != "" {
			return &client.StatusError{Status: 200, Message: res.Message}
		}
		return ErrRejected
	}
	return nil
}

func messageOr(res *client.Result, fallback string) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	return fallback
}

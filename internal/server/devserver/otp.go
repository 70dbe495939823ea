package devserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/time/rate"
)

const maxOTPAttempts = 5

// Mailer delivers a verification code to the account owner.
type Mailer interface {
	Deliver(ctx context.Context, email, code string) error
}

// logMailer stands in for an email transport: the code is written to the
// server log, which is where a developer running the dev server reads it.
type logMailer struct {
	logger logging.Logger
}

func (m logMailer) Deliver(ctx context.Context, email, code string) error {
	m.logger.Info(ctx, "verification code issued", "email", email, "code", code)
	return nil
}

type pendingCode struct {
	secret   string
	issuedAt time.Time
	attempts int
}

// otpIssuer hands out single-use rotation codes. Each request gets its own
// TOTP secret; the code is the TOTP value at issue time and stays valid for
// one period from then on. Requests are throttled per user.
type otpIssuer struct {
	mu       sync.Mutex
	pending  map[string]*pendingCode
	limiters map[string]*rate.Limiter
	period   time.Duration
	every    time.Duration
	burst    int
	now      func() time.Time
}

func newOTPIssuer(period, every time.Duration, burst int, now func() time.Time) *otpIssuer {
	return &otpIssuer{
		pending:  make(map[string]*pendingCode),
		limiters: make(map[string]*rate.Limiter),
		period:   period,
		every:    every,
		burst:    burst,
		now:      now,
	}
}

func (o *otpIssuer) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(o.period / time.Second),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Allow consumes one token from the user's limiter.
func (o *otpIssuer) Allow(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	limiter, ok := o.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(o.every), o.burst)
		o.limiters[userID] = limiter
	}
	return limiter.AllowN(o.now(), 1)
}

// Issue creates a fresh code for userID, replacing any pending one.
func (o *otpIssuer) Issue(userID, account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "sessionkeeper",
		AccountName: account,
		Period:      uint(o.period / time.Second),
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("generate otp secret: %w", err)
	}

	now := o.now()
	code, err := totp.GenerateCodeCustom(key.Secret(), now, o.validateOpts())
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}

	o.mu.Lock()
	o.pending[userID] = &pendingCode{secret: key.Secret(), issuedAt: now}
	o.mu.Unlock()

	return code, nil
}

// Verify checks code against the pending code of userID. A matching code is
// consumed. Too many wrong guesses or an elapsed period discard the pending
// code, so the user has to request a new one.
func (o *otpIssuer) Verify(userID, code string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	p, ok := o.pending[userID]
	if !ok {
		return false
	}

	if o.now().Sub(p.issuedAt) > o.period {
		delete(o.pending, userID)
		return false
	}

	valid, err := totp.ValidateCustom(code, p.secret, p.issuedAt, o.validateOpts())
	if err != nil || !valid {
		p.attempts++
		if p.attempts >= maxOTPAttempts {
			delete(o.pending, userID)
		}
		return false
	}

	delete(o.pending, userID)
	return true
}

// Package devserver is a small HTTP auth server speaking the same wire
// contract the client expects: cookie credentials with refresh, sign-in and
// sign-out, identity, and OTP-confirmed password rotation.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/strength"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/refreshtokens"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/users"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address       string
	users         *users.Service
	codes         *otpIssuer
	mailer        Mailer
	scorer        strength.Scorer
	minScore      int
	expiredStatus int
	refreshTTL    time.Duration
	logger        logging.Logger
}

type Option func(*options)

type options struct {
	now    func() time.Time
	mailer Mailer
}

// WithClock replaces the time source for credentials, codes and throttling.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithMailer replaces the log-only code delivery.
func WithMailer(m Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// New builds a server from cfg and registers the configured seed users.
func New(ctx context.Context, cfg *config.Config, l logging.Logger, opts ...Option) (*Server, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	logger := l.With("module", "devserver")
	if o.mailer == nil {
		o.mailer = logMailer{logger: logger}
	}

	issuer := auth.NewIssuer([]byte(cfg.SecretKey), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	issuer.SetNow(o.now)

	us := users.NewService(users.NewMemoryRepository(), refreshtokens.NewMemoryRepository(o.now), issuer)
	for _, u := range cfg.Users {
		if _, err := us.Register(ctx, u.Email, u.Name, u.Role, []byte(u.Password)); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	return &Server{
		address:       cfg.Addr,
		users:         us,
		codes:         newOTPIssuer(cfg.OTPPeriod, cfg.OTPInterval, cfg.OTPBurst, o.now),
		mailer:        o.mailer,
		scorer:        strength.NewScorer(),
		minScore:      cfg.MinStrengthScore,
		expiredStatus: cfg.ExpiredStatus,
		refreshTTL:    cfg.RefreshTokenTTL,
		logger:        logger,
	}, nil
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(common.PathHealth, allowMethod(http.MethodGet, s.handleHealth))
	mux.HandleFunc(common.PathSignIn, allowMethod(http.MethodPost, s.handleSignIn))
	mux.HandleFunc(common.PathSignOut, allowMethod(http.MethodPost, s.handleSignOut))
	mux.HandleFunc(common.PathRefresh, allowMethod(http.MethodPost, s.handleRefresh))
	mux.HandleFunc(common.PathCurrentUser, allowMethod(http.MethodGet, s.handleCurrentUser))
	mux.HandleFunc(common.PathPasswordOTP, allowMethod(http.MethodPost, s.handleRequestOTP))
	mux.HandleFunc(common.PathPasswordCommit, allowMethod(http.MethodPut, s.handleCommitPassword))
	return s.loggingMiddleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

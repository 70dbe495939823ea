// Package services contains application services for the sessionkeeper
// client. This file defines the authentication service: sign-in/out,
// session bootstrap, password rotation and housekeeping of local metadata.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/rotation"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/session"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// ReasonSignedOut is recorded on the session after an explicit sign-out.
const ReasonSignedOut = "signed out"

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - SignIn: authenticate against the server and remember the identifier locally.
//   - SignOut: end the server session; local session state is reset even if the call fails.
//   - Bootstrap: run the one-time "who am I" check.
//   - WhoAmI: ask the server for the current user and refresh the session store.
//   - LastIdentifier: the identifier of the last successful sign-in, for prompt prefill.
//   - NewRotation: a password rotation coordinator bound to this session.
//   - Ping: check server liveness.
//   - Close: release the local database.
//   - ClearLocalData: wipe locally cached metadata.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	SignIn(ctx context.Context, email string, password []byte) (*models.User, error)
	SignOut(ctx context.Context) error
	Bootstrap(ctx context.Context) session.Snapshot
	WhoAmI(ctx context.Context) (*models.User, error)
	Session() session.Snapshot
	LastIdentifier(ctx context.Context) (string, error)
	NewRotation(opts ...rotation.Option) *rotation.Coordinator
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ClearLocalData(ctx context.Context) error
}

type authService struct {
	client       client.Client
	db           *sql.DB
	store        *session.Store
	bootstrapper *session.Bootstrapper
	notifier     rotation.Notifier
	policy       rotation.Policy
	logger       logging.Logger
	now          func() time.Time
}

type Option func(*authService)

// WithNotifier sets where rotation coordinators surface their messages.
func WithNotifier(n rotation.Notifier) Option {
	return func(a *authService) { a.notifier = n }
}

func WithPolicy(p rotation.Policy) Option {
	return func(a *authService) { a.policy = p }
}

func WithLogger(l logging.Logger) Option {
	return func(a *authService) { a.logger = l }
}

// NewAuthService constructs an AuthService bound to the API client, the
// local database and the process-wide session store.
func NewAuthService(c client.Client, db *sql.DB, store *session.Store, opts ...Option) AuthService {
	a := &authService{
		client: c,
		db:     db,
		store:  store,
		policy: rotation.DefaultPolicy(),
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("module", "auth_service")
	a.bootstrapper = session.NewBootstrapper(store, c, a.logger)
	return a
}

// SignIn authenticates against the server, records the user in the session
// store and remembers the identifier. Failing to persist the identifier does
// not fail the sign-in.
func (a *authService) SignIn(ctx context.Context, email string, password []byte) (*models.User, error) {
	user, err := a.client.SignIn(ctx, email, string(password))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	a.store.SignedIn(user)
	a.logger.Info(ctx, "signed in", "user_id", user.ID)

	if err := a.rememberIdentifier(ctx, email); err != nil {
		a.logger.Warn(ctx, "could not save last identifier", "error", err)
	}
	return user, nil
}

func (a *authService) rememberIdentifier(ctx context.Context, email string) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.KeyLastIdentifier, []byte(email)); err != nil {
			return err
		}
		stamp := a.now().UTC().Format(time.RFC3339)
		return repo.Set(ctx, metadata.KeyLastSignInAt, []byte(stamp))
	})
}

// SignOut ends the server session. The local session is reset regardless of
// the server outcome; the server error is still returned.
func (a *authService) SignOut(ctx context.Context) error {
	err := a.client.SignOut(ctx)
	a.store.Reset(ReasonSignedOut)
	if err != nil {
		a.logger.Warn(ctx, "server sign-out failed", "error", err)
		return fmt.Errorf("sign out: %w", err)
	}
	a.logger.Info(ctx, "signed out")
	return nil
}

func (a *authService) Bootstrap(ctx context.Context) session.Snapshot {
	return a.bootstrapper.Run(ctx)
}

// WhoAmI queries the protected identity endpoint. Unlike Bootstrap it
// reports errors and may run any number of times.
func (a *authService) WhoAmI(ctx context.Context) (*models.User, error) {
	user, err := a.client.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		a.store.Reset(session.ReasonNoUser)
		return nil, client.ErrUnauthorized
	}
	a.store.SignedIn(user)
	return user, nil
}

func (a *authService) Session() session.Snapshot {
	return a.store.Snapshot()
}

// LastIdentifier returns the remembered identifier or "" when none is
// stored.
func (a *authService) LastIdentifier(ctx context.Context) (string, error) {
	v, err := metadata.NewSQLiteRepository(a.db).Get(ctx, metadata.KeyLastIdentifier)
	if errors.Is(err, common.ErrorNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", client.ErrLocalDataNotAvailable, err)
	}
	return string(v), nil
}

// NewRotation returns a coordinator wired to the API client, the configured
// policy and notifier. The signed-in user's email and name count as
// guessable inputs for the strength check.
func (a *authService) NewRotation(opts ...rotation.Option) *rotation.Coordinator {
	base := []rotation.Option{
		rotation.WithPolicy(a.policy),
		rotation.WithLogger(a.logger),
	}
	if a.notifier != nil {
		base = append(base, rotation.WithNotifier(a.notifier))
	}
	if u := a.store.Snapshot().User; u != nil {
		var inputs []string
		for _, s := range []string{u.Email, u.Name} {
			if s != "" {
				inputs = append(inputs, s)
			}
		}
		base = append(base, rotation.WithUserInputs(inputs...))
	}
	return rotation.NewCoordinator(a.client, append(base, opts...)...)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases the local database.
func (a *authService) Close(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// ClearLocalData wipes locally cached metadata.
func (a *authService) ClearLocalData(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Clear(ctx)
}

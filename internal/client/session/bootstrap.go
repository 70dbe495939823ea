package session

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// ReasonNoUser is recorded when the identity check succeeds without a
// usable user payload.
const ReasonNoUser = "no active session"

// IdentityChecker is the "who am I" call the bootstrapper depends on.
type IdentityChecker interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
}

// Bootstrapper decides once per process whether a stored credential still
// identifies a user.
type Bootstrapper struct {
	store   *Store
	checker IdentityChecker
	logger  logging.Logger
	ran     atomic.Bool
}

func NewBootstrapper(store *Store, checker IdentityChecker, logger logging.Logger) *Bootstrapper {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bootstrapper{
		store:   store,
		checker: checker,
		logger:  logger.With("module", "bootstrapper"),
	}
}

// Run performs the identity check at most once and only while no user is
// present. It never fails: errors are logged and recorded as the failure
// reason of the returned snapshot.
func (b *Bootstrapper) Run(ctx context.Context) Snapshot {
	if b.store.Snapshot().User != nil {
		return b.store.Snapshot()
	}
	if !b.ran.CompareAndSwap(false, true) {
		return b.store.Snapshot()
	}
	if !b.store.beginCheck() {
		return b.store.Snapshot()
	}

	user, err := b.checker.GetCurrentUser(ctx)

	reason := ""
	switch {
	case err != nil:
		user = nil
		reason = err.Error()
		if errors.Is(err, context.Canceled) {
			reason = "check cancelled"
		}
		b.logger.Warn(ctx, "session check failed", "error", err)
	case !user.Valid():
		reason = ReasonNoUser
		b.logger.Info(ctx, "no active session")
	default:
		b.logger.Info(ctx, "session restored", "user_id", user.ID)
	}

	if !b.store.finishCheck(user, reason) {
		b.logger.Debug(ctx, "session check result discarded, state changed meanwhile")
	}
	return b.store.Snapshot()
}

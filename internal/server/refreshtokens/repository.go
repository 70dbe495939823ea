// Package refreshtokens tracks refresh credentials that were revoked before
// their natural expiry, such as on sign-out.
package refreshtokens

import (
	"context"
	"time"
)

type Repository interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

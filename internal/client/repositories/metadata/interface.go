// Package metadata stores small key/value facts about the local client,
// such as the identifier used for the last successful sign-in. Credentials
// are never written here.
package metadata

import (
	"context"
)

// Key names a metadata entry.
type Key string

const (
	KeyLastIdentifier Key = "last_identifier"
	KeyLastSignInAt   Key = "last_sign_in_at"
)

// Repository is the metadata storage contract. Get returns
// common.ErrorNotFound for a missing key.
type Repository interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, key Key) error
	List(ctx context.Context) (map[Key][]byte, error)
	Clear(ctx context.Context) error
}

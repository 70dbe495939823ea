package client

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
)

// Result is the structured outcome of a password-rotation step.
type Result struct {
	Success bool
	Message string
}

// Client is the auth facade: each method is a thin call through an Executor
// to a fixed path.
type Client interface {
	GetCurrentUser(ctx context.Context) (*models.User, error)
	RefreshToken(ctx context.Context) error
	RequestPasswordOTP(ctx context.Context, currentPassword string) (*Result, error)
	CommitPasswordUpdate(ctx context.Context, currentPassword, newPassword, otp string) (*Result, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Package common defines shared constants and sentinel errors used across
// the client and dev-server layers of sessionkeeper. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed credential).
	ErrInvalidToken = errors.New("invalid token")

	// Credential lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Password rotation errors.
	ErrInvalidOTP      = errors.New("invalid or expired verification code")
	ErrWeakPassword    = errors.New("new password is too weak")
	ErrTooManyRequests = errors.New("too many requests, try again later")
)

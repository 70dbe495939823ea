package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/refreshtokens"
)

// TokenPair holds freshly minted credentials. RefreshToken is empty when only
// the access credential was renewed.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	repo             Repository
	refreshTokenRepo refreshtokens.Repository
	issuer           *auth.Issuer
}

func NewService(repo Repository, refreshTokenRepo refreshtokens.Repository, issuer *auth.Issuer) *Service {
	return &Service{
		repo:             repo,
		refreshTokenRepo: refreshTokenRepo,
		issuer:           issuer,
	}
}

func normalizeLogin(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, email, name, role string, password []byte) (*User, error) {
	salt, verifier, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = "user"
	}

	user, err := s.repo.Create(ctx, &User{
		Email:    normalizeLogin(email),
		Name:     name,
		Role:     role,
		Salt:     salt,
		Verifier: verifier,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

func (s *Service) issue(user *User, withRefresh bool) (*TokenPair, error) {
	access, err := s.issuer.Generate(user.ID, auth.KindAccess, user.Version)
	if err != nil {
		return nil, common.ErrorInternal
	}

	pair := &TokenPair{AccessToken: access}
	if withRefresh {
		pair.RefreshToken, err = s.issuer.Generate(user.ID, auth.KindRefresh, user.Version)
		if err != nil {
			return nil, common.ErrorInternal
		}
	}

	return pair, nil
}

// Login checks the password and returns a full credential pair.
func (s *Service) Login(ctx context.Context, email string, password []byte) (*User, *TokenPair, error) {
	user, err := s.repo.GetUserByLogin(ctx, normalizeLogin(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}

	if !s.CheckPassword(user, password) {
		return nil, nil, common.ErrorUnauthorized
	}

	tokens, err := s.issue(user, true)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

func (s *Service) CheckPassword(user *User, password []byte) bool {
	return cryptox.CheckPassword(password, user.Salt, user.Verifier)
}

// lookup resolves the owner of a parsed credential and rejects credentials
// minted before the last password change.
func (s *Service) lookup(ctx context.Context, claims *auth.Claims) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrorInternal
	}

	if user.Version != claims.Version {
		return nil, common.ErrInvalidToken
	}

	return user, nil
}

// Authenticate resolves the user behind an access credential. Expiry is
// reported as common.ErrTokenExpired so callers can tell it apart from a
// credential that is missing or forged.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.issuer.Parse(accessToken, auth.KindAccess)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, claims)
}

// Refresh exchanges a refresh credential for a new access credential. The
// refresh credential itself is left as is and can be presented again until
// it expires or is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*User, *TokenPair, error) {
	claims, err := s.issuer.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.refreshTokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}
	if revoked {
		return nil, nil, common.ErrInvalidToken
	}

	user, err := s.lookup(ctx, claims)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.issue(user, false)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Logout revokes the refresh credential when it is still valid. Unknown or
// expired credentials are not an error: the caller is signed out either way.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.Parse(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil
	}
	if err := s.refreshTokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// ChangePassword stores a new verifier and bumps the user's credential
// version, which invalidates every credential issued before. The returned
// pair keeps the calling client signed in.
func (s *Service) ChangePassword(ctx context.Context, userID string, newPassword []byte) (*User, *TokenPair, error) {
	salt, verifier, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	user, err := s.repo.UpdateVerifier(ctx, userID, salt, verifier)
	if err != nil {
		return nil, nil, fmt.Errorf("error updating password: %w", err)
	}

	tokens, err := s.issue(user, true)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

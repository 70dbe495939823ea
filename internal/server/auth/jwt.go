// Package auth mints and parses the signed credentials the dev server hands
// out as cookies.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind separates access credentials from refresh credentials so one can
// never be presented in place of the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims holds the registered claims plus the user, the credential kind and
// the user's credential version at the time of issue.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid"`
	Kind    Kind   `json:"kind"`
	Version int    `json:"ver"`
}

// Issuer signs and verifies HS256 credentials.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// SetNow replaces the time source used for both issuing and validation.
func (i *Issuer) SetNow(now func() time.Time) {
	i.now = now
}

// TTL returns the lifetime of credentials of the given kind.
func (i *Issuer) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return i.refreshTTL
	}
	return i.accessTTL
}

// Generate returns a signed credential of the given kind.
func (i *Issuer) Generate(userID string, kind Kind, version int) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL(kind))),
		},
		UserID:  userID,
		Kind:    kind,
		Version: version,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Parse verifies tokenString and returns its claims.
//
// An expired credential yields common.ErrTokenExpired for access kinds and
// common.ErrRefreshTokenExpired for refresh kinds. Anything else wrong with
// the token (signature, format, kind) yields common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			if kind == KindRefresh {
				return nil, common.ErrRefreshTokenExpired
			}
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Kind != kind || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

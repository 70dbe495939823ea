package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	i := NewIssuer([]byte("super-secret"), time.Minute, time.Hour)

	tok, err := i.Generate("user-123", KindAccess, 2)
	require.NoError(t, err)

	claims, err := i.Parse(tok, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, 2, claims.Version)
	assert.NotEmpty(t, claims.ID)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	i := NewIssuer([]byte("secret"), time.Minute, time.Hour)
	i.SetNow(func() time.Time { return now })

	access, err := i.Generate("u1", KindAccess, 0)
	require.NoError(t, err)
	refresh, err := i.Generate("u1", KindRefresh, 0)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = i.Parse(access, KindAccess)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	_, err = i.Parse(refresh, KindRefresh)
	require.NoError(t, err, "refresh credential outlives the access one")

	now = now.Add(time.Hour)
	_, err = i.Parse(refresh, KindRefresh)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestParse_WrongKind(t *testing.T) {
	t.Parallel()

	i := NewIssuer([]byte("secret"), time.Minute, time.Hour)
	refresh, err := i.Generate("u1", KindRefresh, 0)
	require.NoError(t, err)

	_, err = i.Parse(refresh, KindAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer([]byte("right-secret"), time.Minute, time.Hour).Generate("u2", KindAccess, 0)
	require.NoError(t, err)

	_, err = NewIssuer([]byte("wrong-secret"), time.Minute, time.Hour).Parse(tok, KindAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer([]byte("k"), time.Minute, time.Hour).Parse("not.a.jwt", KindAccess)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

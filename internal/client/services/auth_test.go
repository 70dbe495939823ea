package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/rotation"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := client.InitDatabase(context.Background(), dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getMeta(t *testing.T, db *sql.DB, k string) string {
	t.Helper()
	var v []byte
	require.NoError(t, db.QueryRow(`SELECT value FROM metadata WHERE key=?`, k).Scan(&v))
	return string(v)
}

// ---- fake client ----

type fakeClient struct {
	User       *models.User
	SignInErr  error
	SignOutErr error
	PingErr    error
	CurrentErr error

	OTPResult    *client.Result
	CommitResult *client.Result

	LastEmail    string
	LastPassword string
	OTPCalls     int
	CurrentCalls int
}

func (f *fakeClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	f.CurrentCalls++
	return f.User, f.CurrentErr
}

func (f *fakeClient) RefreshToken(ctx context.Context) error { return nil }

func (f *fakeClient) RequestPasswordOTP(ctx context.Context, current string) (*client.Result, error) {
	f.OTPCalls++
	return f.OTPResult, nil
}

func (f *fakeClient) CommitPasswordUpdate(ctx context.Context, current, next, otp string) (*client.Result, error) {
	return f.CommitResult, nil
}

func (f *fakeClient) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	f.LastEmail, f.LastPassword = email, password
	return f.User, f.SignInErr
}

func (f *fakeClient) SignOut(ctx context.Context) error { return f.SignOutErr }

func (f *fakeClient) Ping(ctx context.Context) error { return f.PingErr }

// ---- tests ----

func TestSignIn_StoresUserAndRemembersIdentifier(t *testing.T) {
	db := setupDB(t)
	store := session.NewStore()
	fc := &fakeClient{User: &models.User{ID: "u1", Email: "ann@example.com"}}
	svc := NewAuthService(fc, db, store).(*authService)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	u, err := svc.SignIn(context.Background(), "ann@example.com", []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "secret", fc.LastPassword)

	assert.True(t, store.Snapshot().Authenticated())
	assert.Equal(t, "ann@example.com", getMeta(t, db, "last_identifier"))
	assert.Equal(t, "2026-01-02T03:04:05Z", getMeta(t, db, "last_sign_in_at"))

	id, err := svc.LastIdentifier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", id)
}

func TestSignIn_ErrorLeavesSessionUntouched(t *testing.T) {
	db := setupDB(t)
	store := session.NewStore()
	fc := &fakeClient{SignInErr: client.ErrUnauthorized}
	svc := NewAuthService(fc, db, store)

	_, err := svc.SignIn(context.Background(), "ann@example.com", []byte("bad"))
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, session.StatusUnauthenticated, store.Snapshot().Status)

	id, err := svc.LastIdentifier(context.Background())
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSignOut_ResetsEvenOnServerError(t *testing.T) {
	db := setupDB(t)
	store := session.NewStore()
	store.SignedIn(&models.User{ID: "u1"})
	fc := &fakeClient{SignOutErr: errors.New("down")}
	svc := NewAuthService(fc, db, store)

	err := svc.SignOut(context.Background())
	require.Error(t, err)

	snap := store.Snapshot()
	assert.Equal(t, session.StatusUnauthenticated, snap.Status)
	assert.Equal(t, ReasonSignedOut, snap.FailureReason)
}

func TestBootstrap_RunsOnce(t *testing.T) {
	db := setupDB(t)
	store := session.NewStore()
	fc := &fakeClient{User: &models.User{ID: "u1"}}
	svc := NewAuthService(fc, db, store)

	snap := svc.Bootstrap(context.Background())
	assert.True(t, snap.Authenticated())
	svc.Bootstrap(context.Background())
	assert.Equal(t, 1, fc.CurrentCalls)
	assert.Equal(t, snap, svc.Session())
}

func TestNewRotation_UsesClientAndPolicy(t *testing.T) {
	db := setupDB(t)
	store := session.NewStore()
	fc := &fakeClient{OTPResult: &client.Result{Success: true}}
	policy := rotation.DefaultPolicy()
	policy.MinCurrentPasswordLen = 4
	svc := NewAuthService(fc, db, store, WithPolicy(policy))

	r := svc.NewRotation()
	r.SetCurrentPassword("abcd")
	r.SetNewPassword("Tr0ub4dor&9!xQ")
	r.SetConfirmPassword("Tr0ub4dor&9!xQ")

	require.NoError(t, r.RequestOTP(context.Background()))
	assert.Equal(t, 1, fc.OTPCalls)
	assert.Equal(t, rotation.PhaseOTPRequested, r.Snapshot().Phase)
}

func TestPing_ErrorPropagates(t *testing.T) {
	svc := NewAuthService(&fakeClient{PingErr: client.ErrUnavailable}, setupDB(t), session.NewStore())
	assert.ErrorIs(t, svc.Ping(context.Background()), client.ErrUnavailable)
}

func TestClearLocalData(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{User: &models.User{ID: "u1"}}
	svc := NewAuthService(fc, db, session.NewStore())
	_, err := svc.SignIn(context.Background(), "ann@example.com", []byte("pw"))
	require.NoError(t, err)

	require.NoError(t, svc.ClearLocalData(context.Background()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	assert.Zero(t, n)
}

func TestClose_ClosesDatabase(t *testing.T) {
	db := setupDB(t)
	svc := NewAuthService(&fakeClient{}, db, session.NewStore())

	require.NoError(t, svc.Close(context.Background()))
	assert.Error(t, db.Ping())
}

func TestWhoAmI(t *testing.T) {
	store := session.NewStore()
	fc := &fakeClient{User: &models.User{ID: "u1", Name: "Ann"}}
	svc := NewAuthService(fc, setupDB(t), store)

	u, err := svc.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.True(t, store.Snapshot().Authenticated())

	fc.User = nil
	_, err = svc.WhoAmI(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, session.StatusUnauthenticated, store.Snapshot().Status)

	fc.CurrentErr = client.ErrSessionExpired
	_, err = svc.WhoAmI(context.Background())
	assert.ErrorIs(t, err, client.ErrSessionExpired)
	assert.Equal(t, 3, fc.CurrentCalls)
}

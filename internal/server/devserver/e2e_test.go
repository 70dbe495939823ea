package devserver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/rotation"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingExecutor counts refresh calls on their way to the wire.
type countingExecutor struct {
	next      client.Executor
	refreshes atomic.Int32
}

func (c *countingExecutor) Execute(ctx context.Context, req client.Request) (*client.Response, error) {
	if req.Path == common.PathRefresh {
		c.refreshes.Add(1)
	}
	return c.next.Execute(ctx, req)
}

type clientStack struct {
	api     *client.HTTPClient
	counter *countingExecutor
	lost    atomic.Int32
}

func (e *testEnv) newClientStack(t *testing.T, mode client.RefreshMode) *clientStack {
	t.Helper()

	exec, err := client.NewHTTPExecutor(e.ts.URL)
	require.NoError(t, err)

	s := &clientStack{counter: &countingExecutor{next: exec}}
	ic := client.NewRefreshInterceptor(s.counter,
		client.WithRefreshMode(mode),
		client.WithExpiredStatus(e.cfg.ExpiredStatus),
		client.WithSessionLostHandler(func(context.Context, error) { s.lost.Add(1) }),
	)
	s.api = client.NewHTTPClient(ic)
	return s
}

func TestClient_RefreshesExpiredAccessTransparently(t *testing.T) {
	env := newTestEnv(t)
	s := env.newClientStack(t, client.RefreshIndependent)
	ctx := context.Background()

	u, err := s.api.SignIn(ctx, demoEmail, demoPassword)
	require.NoError(t, err)
	assert.Equal(t, demoEmail, u.Email)

	env.clock.Advance(2 * time.Minute)

	me, err := s.api.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
	assert.EqualValues(t, 1, s.counter.refreshes.Load())
	assert.Zero(t, s.lost.Load())

	_, err = s.api.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.counter.refreshes.Load(), "fresh credential needs no refresh")
}

func TestClient_ConcurrentExpiredRequests(t *testing.T) {
	for _, mode := range []client.RefreshMode{client.RefreshIndependent, client.RefreshCoalesce} {
		t.Run(string(mode), func(t *testing.T) {
			env := newTestEnv(t)
			s := env.newClientStack(t, mode)
			ctx := context.Background()

			_, err := s.api.SignIn(ctx, demoEmail, demoPassword)
			require.NoError(t, err)
			env.clock.Advance(2 * time.Minute)

			const n = 5
			var wg sync.WaitGroup
			errs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = s.api.GetCurrentUser(ctx)
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				assert.NoError(t, err)
			}
			got := s.counter.refreshes.Load()
			assert.GreaterOrEqual(t, got, int32(1))
			assert.LessOrEqual(t, got, int32(n))
			assert.Zero(t, s.lost.Load())
		})
	}
}

func TestClient_SessionLostWhenRefreshExpires(t *testing.T) {
	env := newTestEnv(t)
	s := env.newClientStack(t, client.RefreshIndependent)
	ctx := context.Background()

	_, err := s.api.SignIn(ctx, demoEmail, demoPassword)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)

	_, err = s.api.GetCurrentUser(ctx)
	require.ErrorIs(t, err, client.ErrSessionExpired)

	var se *client.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, common.PathRefresh, se.Path)
	assert.Equal(t, "refresh token expired", se.Message)
	assert.EqualValues(t, 1, s.lost.Load())
}

func TestClient_SignedOutIsNotSessionLoss(t *testing.T) {
	env := newTestEnv(t)
	s := env.newClientStack(t, client.RefreshIndependent)
	ctx := context.Background()

	_, err := s.api.SignIn(ctx, demoEmail, demoPassword)
	require.NoError(t, err)
	require.NoError(t, s.api.SignOut(ctx))

	_, err = s.api.GetCurrentUser(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.False(t, errors.Is(err, client.ErrSessionExpired))
	assert.Zero(t, s.lost.Load())
	assert.Zero(t, s.counter.refreshes.Load(), "401 does not trigger a refresh")
}

func TestRotation_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	s := env.newClientStack(t, client.RefreshIndependent)
	ctx := context.Background()

	_, err := s.api.SignIn(ctx, demoEmail, demoPassword)
	require.NoError(t, err)

	const strong = "violet-harbor-sextant-91"
	c := rotation.NewCoordinator(s.api, rotation.WithUserInputs(demoEmail, "Ann"))
	c.SetCurrentPassword(demoPassword)
	res := c.SetNewPassword(strong)
	require.GreaterOrEqual(t, res.Score, rotation.DefaultPolicy().MinStrengthScore)
	c.SetConfirmPassword(strong)

	// The access credential expires between the two steps; the interceptor
	// refreshes under the hood.
	env.clock.Advance(2 * time.Minute)
	require.NoError(t, c.RequestOTP(ctx))
	assert.Equal(t, rotation.PhaseOTPRequested, c.Snapshot().Phase)

	wrong := "000000"
	code := env.mailer.Code(demoEmail)
	if wrong == code {
		wrong = "111111"
	}
	c.SetOTP(wrong)
	err = c.Commit(ctx)
	require.Error(t, err)
	assert.Equal(t, common.ErrInvalidOTP.Error(), client.UserMessage(err))
	st := c.Snapshot()
	assert.Equal(t, rotation.PhaseOTPRequested, st.Phase)
	assert.Empty(t, st.OTP)
	assert.Equal(t, strong, st.NewPassword)

	c.SetOTP(code)
	require.True(t, c.CanCommit())
	require.NoError(t, c.Commit(ctx))
	assert.Equal(t, rotation.PhaseIdle, c.Snapshot().Phase)

	_, err = s.api.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Zero(t, s.lost.Load())

	fresh := env.newClientStack(t, client.RefreshIndependent)
	_, err = fresh.api.SignIn(ctx, demoEmail, demoPassword)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	_, err = fresh.api.SignIn(ctx, demoEmail, strong)
	assert.NoError(t, err)
}

func TestRotation_ThrottledCodeRequestSurfacesServerMessage(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.OTPBurst = 1 })
	s := env.newClientStack(t, client.RefreshIndependent)
	ctx := context.Background()

	_, err := s.api.SignIn(ctx, demoEmail, demoPassword)
	require.NoError(t, err)

	_, err = s.api.RequestPasswordOTP(ctx, demoPassword)
	require.NoError(t, err)

	_, err = s.api.RequestPasswordOTP(ctx, demoPassword)
	require.Error(t, err)
	assert.Equal(t, 429, client.StatusOf(err))
	assert.Equal(t, common.ErrTooManyRequests.Error(), client.UserMessage(err))
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userData(t *testing.T, u models.User) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(u)
	require.NoError(t, err)
	return b
}

func TestHTTPClient_GetCurrentUser(t *testing.T) {
	u := models.User{ID: "u1", Email: "ann@example.com", Name: "Ann"}
	fe := newFakeExecutor().on(common.PathCurrentUser, outcome{resp: &Response{Status: 200, Success: true, Data: userData(t, u)}})

	got, err := NewHTTPClient(fe).GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u, *got)
	assert.Equal(t, http.MethodGet, fe.calls[0].Method)
}

func TestHTTPClient_GetCurrentUser_NoPayload(t *testing.T) {
	tests := []struct {
		name string
		data json.RawMessage
	}{
		{"empty", nil},
		{"null", json.RawMessage("null")},
		{"no id", json.RawMessage(`{"email":"a@b.c"}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := newFakeExecutor().on(common.PathCurrentUser, outcome{resp: &Response{Status: 200, Success: true, Data: tt.data}})
			got, err := NewHTTPClient(fe).GetCurrentUser(context.Background())
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{"unauthorized", &StatusError{Status: 401, Message: "no"}, ErrUnauthorized, 401},
		{"forbidden", &StatusError{Status: 403}, ErrUnauthorized, 403},
		{"server error", &StatusError{Status: 502}, ErrUnavailable, 502},
		{"network", errors.New("dial tcp: refused"), ErrUnavailable, 0},
		{"session expired", ErrSessionExpired, ErrSessionExpired, 0},
		{"cancelled", context.Canceled, context.Canceled, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := newFakeExecutor().on(common.PathCurrentUser, outcome{err: tt.err})
			_, err := NewHTTPClient(fe).GetCurrentUser(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestHTTPClient_DomainErrorKeepsServerMessage(t *testing.T) {
	fe := newFakeExecutor().on(common.PathPasswordOTP, outcome{err: &StatusError{Status: 400, Message: "current password is incorrect"}})

	_, err := NewHTTPClient(fe).RequestPasswordOTP(context.Background(), "old")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "current password is incorrect", UserMessage(err))
}

func TestHTTPClient_RequestPasswordOTP_SendsOnlyCurrentPassword(t *testing.T) {
	fe := newFakeExecutor().on(common.PathPasswordOTP, outcome{resp: &Response{Status: 200, Success: true, Message: "code sent"}})

	res, err := NewHTTPClient(fe).RequestPasswordOTP(context.Background(), "old-secret")
	require.NoError(t, err)
	assert.Equal(t, &Result{Success: true, Message: "code sent"}, res)

	req := fe.calls[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, map[string]any{"current_password": "old-secret"}, body)
}

func TestHTTPClient_CommitPasswordUpdate_SendsAllFields(t *testing.T) {
	fe := newFakeExecutor().on(common.PathPasswordCommit, outcome{resp: &Response{Status: 200, Success: true, Message: "password updated"}})

	res, err := NewHTTPClient(fe).CommitPasswordUpdate(context.Background(), "old", "Tr0ub4dor&9!xQ", "123456")
	require.NoError(t, err)
	assert.True(t, res.Success)

	req := fe.calls[0]
	assert.Equal(t, http.MethodPut, req.Method)

	var body commitRequest
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, commitRequest{CurrentPassword: "old", NewPassword: "Tr0ub4dor&9!xQ", OTP: "123456"}, body)
}

func TestHTTPClient_RefreshTokenIsMarkedRetried(t *testing.T) {
	fe := newFakeExecutor()
	require.NoError(t, NewHTTPClient(fe).RefreshToken(context.Background()))

	require.Len(t, fe.calls, 1)
	assert.Equal(t, common.PathRefresh, fe.calls[0].Path)
	assert.True(t, fe.calls[0].Retried)
}

func TestHTTPClient_SignIn(t *testing.T) {
	u := models.User{ID: "u1", Email: "ann@example.com"}
	fe := newFakeExecutor().on(common.PathSignIn, outcome{resp: &Response{Status: 200, Success: true, Data: userData(t, u)}})

	got, err := NewHTTPClient(fe).SignIn(context.Background(), "ann@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	var body signInRequest
	require.NoError(t, json.Unmarshal(fe.calls[0].Body, &body))
	assert.Equal(t, signInRequest{Email: "ann@example.com", Password: "pw"}, body)
}

func TestHTTPClient_SignIn_NoUser(t *testing.T) {
	fe := newFakeExecutor().on(common.PathSignIn, outcome{resp: &Response{Status: 200, Success: true}})

	_, err := NewHTTPClient(fe).SignIn(context.Background(), "a@b.c", "pw")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_SignOutAndPing(t *testing.T) {
	fe := newFakeExecutor()
	c := NewHTTPClient(fe)

	require.NoError(t, c.SignOut(context.Background()))
	require.NoError(t, c.Ping(context.Background()))

	require.Len(t, fe.calls, 2)
	assert.Equal(t, common.PathSignOut, fe.calls[0].Path)
	assert.Equal(t, common.PathHealth, fe.calls[1].Path)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, ErrSessionExpired.Error(), UserMessage(errors.Join(ErrSessionExpired, &StatusError{Message: "x"})))
	assert.Equal(t, "bad otp", UserMessage(&StatusError{Status: 400, Message: "bad otp"}))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

// HTTPClient implements Client over an Executor, normally a
// RefreshInterceptor wrapping an HTTPExecutor.
type HTTPClient struct {
	exec Executor
}

func NewHTTPClient(exec Executor) *HTTPClient {
	return &HTTPClient{exec: exec}
}

type otpRequest struct {
	CurrentPassword string `json:"current_password"`
}

type commitRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	OTP             string `json:"otp"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetCurrentUser asks "who am I". A success without a usable user payload
// yields (nil, nil).
func (c *HTTPClient) GetCurrentUser(ctx context.Context) (*models.User, error) {
	resp, err := c.exec.Execute(ctx, Request{Method: http.MethodGet, Path: common.PathCurrentUser})
	if err != nil {
		return nil, c.mapError(err)
	}
	return decodeUser(resp)
}

// RefreshToken calls the refresh endpoint directly. The request is marked
// retried so an interceptor never tries to refresh the refresh call.
func (c *HTTPClient) RefreshToken(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, Request{Method: http.MethodPost, Path: common.PathRefresh, Retried: true})
	return c.mapError(err)
}

// RequestPasswordOTP sends only the current password; the new password never
// leaves the client at this step.
func (c *HTTPClient) RequestPasswordOTP(ctx context.Context, currentPassword string) (*Result, error) {
	return c.call(ctx, http.MethodPost, common.PathPasswordOTP, otpRequest{CurrentPassword: currentPassword})
}

// CommitPasswordUpdate sends all three values together so the server can
// verify them atomically.
func (c *HTTPClient) CommitPasswordUpdate(ctx context.Context, currentPassword, newPassword, otp string) (*Result, error) {
	return c.call(ctx, http.MethodPut, common.PathPasswordCommit, commitRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
		OTP:             otp,
	})
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	req, err := NewJSONRequest(http.MethodPost, common.PathSignIn, signInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}
	user, err := decodeUser(resp)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("sign-in response carries no user: %w", ErrUnauthorized)
	}
	return user, nil
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, Request{Method: http.MethodPost, Path: common.PathSignOut})
	return c.mapError(err)
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	_, err := c.exec.Execute(ctx, Request{Method: http.MethodGet, Path: common.PathHealth})
	return c.mapError(err)
}

func (c *HTTPClient) call(ctx context.Context, method, path string, body any) (*Result, error) {
	req, err := NewJSONRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}
	return &Result{Success: resp.Success, Message: resp.Message}, nil
}

func decodeUser(resp *Response) (*models.User, error) {
	if resp == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(resp.Data, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if !u.Valid() {
		return nil, nil
	}
	return &u, nil
}

// mapError attaches sentinels while keeping the *StatusError reachable with
// errors.As, so domain messages still reach the user verbatim.
func (c *HTTPClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSessionExpired) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *StatusError
	if !errors.As(err, &se) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch {
	case se.Status == http.StatusUnauthorized, se.Status == http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case se.Status >= 500:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	default:
		return err
	}
}

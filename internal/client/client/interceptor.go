package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"golang.org/x/sync/singleflight"
)

// RefreshMode selects how concurrent refreshes behave.
type RefreshMode string

const (
	// RefreshIndependent lets every failing request run its own refresh call.
	RefreshIndependent RefreshMode = "independent"
	// RefreshCoalesce shares one in-flight refresh among concurrent callers.
	RefreshCoalesce RefreshMode = "coalesce"
)

// ParseRefreshMode validates a configured mode name.
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch RefreshMode(s) {
	case RefreshIndependent, RefreshCoalesce:
		return RefreshMode(s), nil
	case "":
		return RefreshIndependent, nil
	}
	return "", fmt.Errorf("unknown refresh mode %q", s)
}

// SessionLostHandler is called once per failed refresh call, however many
// requests were waiting on it. It must reset all session-derived state and
// send the user back to sign-in. It is not called when the refresh stopped
// because a context was cancelled or timed out.
type SessionLostHandler func(ctx context.Context, err error)

// RefreshInterceptor wraps an Executor. When a request fails with the
// expired-credential status and has not been retried yet, it refreshes the
// credential once and replays the request. It never retries a request twice.
type RefreshInterceptor struct {
	next          Executor
	refreshPath   string
	expiredStatus int
	mode          RefreshMode
	onSessionLost SessionLostHandler
	group         singleflight.Group
	logger        logging.Logger
}

type InterceptorOption func(*RefreshInterceptor)

func WithRefreshPath(p string) InterceptorOption {
	return func(i *RefreshInterceptor) { i.refreshPath = p }
}

func WithExpiredStatus(status int) InterceptorOption {
	return func(i *RefreshInterceptor) { i.expiredStatus = status }
}

func WithRefreshMode(m RefreshMode) InterceptorOption {
	return func(i *RefreshInterceptor) { i.mode = m }
}

func WithSessionLostHandler(h SessionLostHandler) InterceptorOption {
	return func(i *RefreshInterceptor) { i.onSessionLost = h }
}

func WithInterceptorLogger(l logging.Logger) InterceptorOption {
	return func(i *RefreshInterceptor) { i.logger = l }
}

func NewRefreshInterceptor(next Executor, opts ...InterceptorOption) *RefreshInterceptor {
	i := &RefreshInterceptor{
		next:          next,
		refreshPath:   common.PathRefresh,
		expiredStatus: http.StatusForbidden,
		mode:          RefreshIndependent,
		logger:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("module", "refresh_interceptor")
	return i
}

func (i *RefreshInterceptor) Execute(ctx context.Context, req Request) (*Response, error) {
	resp, err := i.next.Execute(ctx, req)
	if err == nil {
		return resp, nil
	}
	if req.Retried || req.Path == i.refreshPath || StatusOf(err) != i.expiredStatus {
		return nil, err
	}

	retry := req.WithRetried()

	i.logger.Debug(ctx, "credential expired, refreshing", "method", req.Method, "path", req.Path)

	if rerr := i.refresh(ctx); rerr != nil {
		if isContextErr(rerr) {
			return nil, fmt.Errorf("refresh credential: %w", rerr)
		}
		return nil, fmt.Errorf("%w: %w", ErrSessionExpired, rerr)
	}

	return i.next.Execute(ctx, retry)
}

// refresh runs a refresh call for one caller. In coalesce mode the shared
// call is detached from the caller that started it, and every caller stops
// waiting as soon as its own ctx is done.
func (i *RefreshInterceptor) refresh(ctx context.Context) error {
	if i.mode != RefreshCoalesce {
		return i.refreshOnce(ctx)
	}

	ch := i.group.DoChan(i.refreshPath, func() (any, error) {
		return nil, i.refreshOnce(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Shared {
			i.logger.Debug(ctx, "joined in-flight refresh")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *RefreshInterceptor) refreshOnce(ctx context.Context) error {
	_, err := i.next.Execute(ctx, Request{Method: http.MethodPost, Path: i.refreshPath, Retried: true})
	if err == nil || isContextErr(err) {
		return err
	}
	i.logger.Warn(ctx, "credential refresh failed, session lost", "error", err)
	if i.onSessionLost != nil {
		i.onSessionLost(ctx, err)
	}
	return err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

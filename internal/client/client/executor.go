package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"golang.org/x/net/publicsuffix"
)

// maxResponseBody caps how much of a response body is read into memory.
const maxResponseBody = 1 << 20

// envelope is the body shape every endpoint answers with.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPExecutor sends Requests to a fixed base URL. Credentials travel only as
// cookies held by the client's jar; the executor never inspects them.
type HTTPExecutor struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  logging.Logger
}

type ExecutorOption func(*HTTPExecutor)

// WithHTTPClient replaces the underlying http.Client. If it has no cookie
// jar, one is installed.
func WithHTTPClient(c *http.Client) ExecutorOption {
	return func(e *HTTPExecutor) { e.http = c }
}

// WithTimeout bounds each call. Zero (the default) applies no client-side
// deadline beyond the caller's context.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *HTTPExecutor) { e.timeout = d }
}

func WithExecutorLogger(l logging.Logger) ExecutorOption {
	return func(e *HTTPExecutor) { e.logger = l }
}

func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func NewHTTPExecutor(baseURL string, opts ...ExecutorOption) (*HTTPExecutor, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	e := &HTTPExecutor{
		baseURL: strings.TrimRight(u.String(), "/"),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.http == nil {
		e.http = &http.Client{}
	}
	if e.http.Jar == nil {
		jar, err := NewCookieJar()
		if err != nil {
			return nil, err
		}
		e.http.Jar = jar
	}
	e.logger = e.logger.With("module", "executor")
	return e, nil
}

func (e *HTTPExecutor) Execute(ctx context.Context, req Request) (*Response, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, e.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, req.Path, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if len(req.Body) > 0 && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := e.http.Do(httpReq)
	if err != nil {
		e.logger.Debug(ctx, "request failed", "method", method, "path", req.Path, "retried", req.Retried, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, req.Path, err)
	}

	resp := decodeResponse(httpResp.StatusCode, raw)
	resp.Header = httpResp.Header

	e.logger.Debug(ctx, "request done", "method", method, "path", req.Path, "status", resp.Status, "retried", req.Retried)

	if resp.Status >= 300 || !resp.Success {
		return nil, &StatusError{Method: method, Path: req.Path, Status: resp.Status, Message: resp.Message}
	}
	return resp, nil
}

// decodeResponse accepts the JSON envelope, plain JSON without an envelope
// and non-JSON bodies (whose text becomes the message).
func decodeResponse(status int, raw []byte) *Response {
	resp := &Response{Status: status, Success: status < 300}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return resp
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil || trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			resp.Message = string(trimmed)
			return resp
		}
		resp.Data = json.RawMessage(trimmed)
		return resp
	}

	if env.Success == nil && env.Message == "" && env.Data == nil {
		resp.Data = json.RawMessage(trimmed)
		return resp
	}
	if env.Success != nil {
		resp.Success = *env.Success && status < 300
	}
	resp.Message = env.Message
	resp.Data = env.Data
	return resp
}

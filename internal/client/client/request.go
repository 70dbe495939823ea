package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Request describes one logical outbound call. It is treated as immutable:
// the retry path derives a copy through WithRetried instead of mutating the
// caller's value, so the retry marker is scoped to this request only.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Header  http.Header
	Retried bool
}

// WithRetried returns a copy of r marked as already retried.
func (r Request) WithRetried() Request {
	c := r
	c.Header = r.Header.Clone()
	if r.Body != nil {
		c.Body = append([]byte(nil), r.Body...)
	}
	c.Retried = true
	return c
}

// NewJSONRequest marshals body into a Request with a JSON content type.
func NewJSONRequest(method, path string, body any) (Request, error) {
	req := Request{Method: method, Path: path}
	if body == nil {
		return req, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return Request{}, err
	}
	req.Body = b
	req.Header = http.Header{"Content-Type": []string{"application/json"}}
	return req, nil
}

// Response is a successful outcome. Data is the raw "data" member of the
// response envelope.
type Response struct {
	Status  int
	Success bool
	Message string
	Data    json.RawMessage
	Header  http.Header
}

// Executor is the single entry point all outbound calls funnel through.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Response, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, req Request) (*Response, error)

func (f ExecutorFunc) Execute(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

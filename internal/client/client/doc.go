// Package client contains the transport-side building blocks of the session
// manager.
//
// # Overview
//
//  1. Request/Response/Executor: the uniform request-execution interface every
//     component funnels through. Requests are immutable values; bodies are
//     byte slices so a request can be replayed unchanged.
//  2. HTTPExecutor: sends requests to a base URL with a cookie jar. The
//     credential is an HTTP-only cookie and is never read or stored here.
//  3. RefreshInterceptor: on the expired-credential status it refreshes once
//     and replays the original request; a failed refresh calls the
//     SessionLostHandler and surfaces ErrSessionExpired.
//  4. Client / HTTPClient: the auth facade (who-am-I, refresh, password OTP,
//     password commit, sign-in/out, ping).
//  5. InitDatabase, RunMigrations: local SQLite bootstrap for the CLI.
//
// # Error Handling
//
// Non-2xx outcomes are *StatusError values carrying the server message.
// HTTPClient additionally wraps them with ErrUnauthorized or ErrUnavailable;
// both the sentinel (errors.Is) and the *StatusError (errors.As) stay
// reachable. Domain failures (4xx other than 401/403) are returned as-is.
//
// Concurrency & Contexts
//
// HTTPExecutor, RefreshInterceptor and HTTPClient are safe for concurrent
// use. All operations accept a context.Context and honor cancellation.
package client

// Package cli provides the interactive sessionkeeper command-line client.
//
// It wires configuration, local storage, the HTTP transport with its refresh
// interceptor, and an interactive REPL. Typical flow: restore the session
// with a one-time "who am I" check, start a background connectivity
// watcher, and execute user commands.
//
// Key features:
//   - signin / signout
//   - whoami / status
//   - passwd: password rotation guarded by a strength check and an emailed code
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli

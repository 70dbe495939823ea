package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/rotation"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/session"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// ---- output capture ----

type outputRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (o *outputRecorder) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.lines, "\n")
}

func captureOutput(t *testing.T) *outputRecorder {
	t.Helper()
	rec := &outputRecorder{}
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.lines = append(rec.lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return rec
}

// stubInputs replaces the interactive helpers: text answers and passwords
// are consumed in order.
func stubInputs(t *testing.T, texts []string, passwords []string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			return "", io.EOF
		}
		v := texts[0]
		texts = texts[1:]
		return v, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, io.EOF
		}
		v := passwords[0]
		passwords = passwords[1:]
		return []byte(v), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
}

// ---- fake rotation API ----

type fakeRotationAPI struct {
	otpErr     error
	commitErrs []error

	otpCalls    int
	commitCalls []string
}

func (f *fakeRotationAPI) RequestPasswordOTP(ctx context.Context, current string) (*client.Result, error) {
	f.otpCalls++
	if f.otpErr != nil {
		return nil, f.otpErr
	}
	return &client.Result{Success: true, Message: "code sent"}, nil
}

func (f *fakeRotationAPI) CommitPasswordUpdate(ctx context.Context, current, next, otp string) (*client.Result, error) {
	f.commitCalls = append(f.commitCalls, otp)
	if len(f.commitErrs) > 0 {
		err := f.commitErrs[0]
		f.commitErrs = f.commitErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &client.Result{Success: true, Message: "password updated"}, nil
}

// ---- fake auth service ----

type fakeAuth struct {
	store *session.Store
	api   *fakeRotationAPI

	lastIdentifier string
	signInEmail    string
	signInPass     string
	signInErr      error
	signOutErr     error
	whoErr         error
	pingErr        error
	clearCalled    bool

	notices *recordingNotifier
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingNotifier) Success(text string) { r.add("ok: " + text) }
func (r *recordingNotifier) Error(text string)   { r.add("error: " + text) }
func (r *recordingNotifier) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, s)
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{store: session.NewStore(), api: &fakeRotationAPI{}, notices: &recordingNotifier{}}
}

func (f *fakeAuth) signIn(u *models.User) *fakeAuth {
	f.store.SignedIn(u)
	return f
}

func (f *fakeAuth) SignIn(_ context.Context, email string, password []byte) (*models.User, error) {
	f.signInEmail, f.signInPass = email, string(password)
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	u := &models.User{ID: "u1", Email: email}
	f.store.SignedIn(u)
	return u, nil
}

func (f *fakeAuth) SignOut(context.Context) error {
	f.store.Reset("signed out")
	return f.signOutErr
}

func (f *fakeAuth) Bootstrap(context.Context) session.Snapshot { return f.store.Snapshot() }

func (f *fakeAuth) WhoAmI(context.Context) (*models.User, error) {
	if f.whoErr != nil {
		return nil, f.whoErr
	}
	return f.store.Snapshot().User, nil
}

func (f *fakeAuth) Session() session.Snapshot { return f.store.Snapshot() }

func (f *fakeAuth) LastIdentifier(context.Context) (string, error) { return f.lastIdentifier, nil }

func (f *fakeAuth) NewRotation(opts ...rotation.Option) *rotation.Coordinator {
	return rotation.NewCoordinator(f.api, append([]rotation.Option{rotation.WithNotifier(f.notices)}, opts...)...)
}

func (f *fakeAuth) Ping(context.Context) error { return f.pingErr }

func (f *fakeAuth) Close(context.Context) error { return nil }

func (f *fakeAuth) ClearLocalData(context.Context) error {
	f.clearCalled = true
	return nil
}

func newTestApp(f *fakeAuth) *App {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return &App{
		config:      cfg,
		authService: f,
		logger:      logging.Nop(),
		reader:      bufio.NewReader(strings.NewReader("")),
		out:         io.Discard,
	}
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/client"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/notice"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/session"
	"github.com/dmitrijs2005/sessionkeeper/internal/filex"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	board       *notice.Board
	logger      logging.Logger
	reader      *bufio.Reader
	out         io.Writer

	mu   sync.Mutex
	mode Mode
}

// NewApp wires the transport stack bottom-up:
//
//	HTTPExecutor -> RefreshInterceptor -> HTTPClient -> AuthService
//
// The interceptor's session-lost hook resets the session store and tells the
// user to sign in again.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, fmt.Errorf("prepare local database directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init local database: %w", err)
	}

	exec, err := client.NewHTTPExecutor(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithExecutorLogger(logger),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	mode, err := client.ParseRefreshMode(c.RefreshMode)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := session.NewStore()
	a := &App{
		config: c,
		logger: logger.With("module", "cli"),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	interceptor := client.NewRefreshInterceptor(exec,
		client.WithRefreshPath(c.RefreshPath),
		client.WithExpiredStatus(c.ExpiredStatus),
		client.WithRefreshMode(mode),
		client.WithInterceptorLogger(logger),
		client.WithSessionLostHandler(a.sessionLost(store)),
	)

	a.board = notice.NewBoard(
		notice.WithTTL(c.NoticeTTL),
		notice.WithOnChange(printNotice),
	)

	a.authService = services.NewAuthService(client.NewHTTPClient(interceptor), db, store,
		services.WithNotifier(a.board),
		services.WithPolicy(c.Policy()),
		services.WithLogger(logger),
	)
	return a, nil
}

// sessionLost is the explicit replacement for a hard redirect: all
// session-derived state is dropped and the user is sent back to sign-in.
func (a *App) sessionLost(store *session.Store) client.SessionLostHandler {
	return func(ctx context.Context, err error) {
		store.Reset(client.ErrSessionExpired.Error())
		a.logger.Warn(ctx, "session lost", "error", err)
		printlnFn("Your session has expired. Type 'signin' to sign in again.")
	}
}

func printNotice(n *notice.Notice) {
	if n == nil {
		return
	}
	printlnFn(fmt.Sprintf("[%s] %s", n.Kind, n.Text))
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.board != nil {
			a.board.Close()
		}
		_ = a.authService.Close(ctx)
	}()
	a.Root(ctx)
}

func (a *App) signedIn() bool {
	return a.authService.Session().Authenticated()
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// connectivity mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(pctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

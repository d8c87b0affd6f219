package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/internal/secret"
	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/browser/chrome"
	"github.com/jmylchreest/xscrape/pkg/cookiestore"
	"github.com/jmylchreest/xscrape/pkg/scraper"
	"github.com/jmylchreest/xscrape/pkg/session"
)

// app holds the objects a browsing command needs.
type app struct {
	driver  browser.Driver
	store   *cookiestore.Store
	auth    *session.Authenticator
	scraper *scraper.Scraper
}

// newDriver starts the browser. Tests replace it.
var newDriver = func(c chrome.Config) (browser.Driver, error) {
	d, err := chrome.New(c)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// owner is the cookie file key for the configured account.
func owner() string {
	if cfg.Account.Handle != "" {
		return cfg.Account.Handle
	}
	return cfg.Account.Identifier
}

func newStore() *cookiestore.Store {
	return cookiestore.New(cfg.CookieDir, owner(), cookiestore.WithFs(afero.NewOsFs()))
}

// resolveSecret fills the account secret from the keyring when it was not
// provided in config or the environment. A missing secret is only a warning
// because saved cookies may be enough.
func resolveSecret() {
	if cfg.Account.Secret != "" || cfg.Account.Identifier == "" {
		return
	}
	s, err := secret.New().Get(cfg.Account.Identifier)
	switch {
	case err == nil:
		cfg.Account.Secret = s
	case errors.Is(err, secret.ErrNotFound):
		logger.Warn("no account secret configured; login will rely on saved cookies",
			"account", cfg.Account.Identifier)
	default:
		logger.Warn("keyring unavailable", "error", err)
	}
}

// newApp launches Chrome and wires the session and scraper.
func newApp(responder session.ChallengeResponder) (*app, error) {
	if _, err := requireAccount(); err != nil {
		return nil, err
	}
	resolveSecret()

	driver, err := newDriver(cfg.Chrome())
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}

	store := newStore()
	auth := session.New(driver, store, cfg.Credentials(),
		session.WithConfig(cfg.Session()),
		session.WithResponder(responder),
		session.WithTransitionHook(func(from, to session.State, err error) {
			if err != nil {
				logger.Debug("session transition", "from", from, "to", to, "error", err)
			}
		}),
	)

	return &app{
		driver: driver,
		store:  store,
		auth:   auth,
		scraper: scraper.New(driver, auth,
			scraper.WithRateLimit(cfg.Limit(), cfg.Rate.Burst),
		),
	}, nil
}

func (a *app) Close() {
	if err := a.driver.Close(); err != nil {
		logger.Debug("close browser", "error", err)
	}
}

// interactiveResponder prompts on the terminal for verification codes.
func interactiveResponder() session.ChallengeResponder {
	return session.PromptResponder{In: os.Stdin, Out: os.Stderr}
}

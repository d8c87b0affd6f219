// Package session logs in to the site through a browser.Driver and keeps the
// resulting session alive across runs through a cookie store.
//
// The Authenticator first tries to restore stored cookies. When that does not
// yield an authenticated page it walks the login form step by step:
//
//	Unauthenticated -> CookieRestoreAttempted -> Authenticated
//	Unauthenticated -> Identifying -> ChallengeOptional -> Authenticating
//	    -> TwoFactorOptional -> Verifying -> Authenticated
//
// Any step may end in Failed. An anti-bot challenge is always fatal.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/jmylchreest/xscrape/internal/fsutil"
	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/cookiestore"
	"github.com/jmylchreest/xscrape/pkg/extract"
)

// Error types for login failures.
// Check with errors.Is(err, session.ErrChallenge).
var (
	// ErrChallenge indicates an anti-bot challenge. Never retried.
	ErrChallenge = errors.New("anti-bot challenge detected")
	// ErrFieldNotFound indicates a required form field never rendered.
	ErrFieldNotFound = errors.New("login field not found")
	// ErrMissingHandle indicates the site asked to confirm the account handle
	// but none was configured.
	ErrMissingHandle = errors.New("identity confirmation requested but no handle configured")
	// ErrNoResponder indicates a verification code was requested without a responder.
	ErrNoResponder = errors.New("verification code requested but no responder configured")
	// ErrEmptyCode indicates the responder returned an empty code.
	ErrEmptyCode = errors.New("empty verification code")
	// ErrNotVerified indicates no authenticated marker appeared in time.
	ErrNotVerified = errors.New("login could not be verified")
)

// CookieStore is the persistence the Authenticator needs.
// *cookiestore.Store satisfies it.
type CookieStore interface {
	Save(cookies []browser.Cookie) error
	Load() cookiestore.CookieSet
	HasValidCookies() bool
	Clear() error
}

// Config tunes the login flow.
type Config struct {
	Origin    string
	LoginURL  string
	HomeURL   string
	LogoutURL string
	Selectors Selectors

	FieldTimeout   time.Duration // wait for a required field, per attempt
	FieldAttempts  int
	RetryBackoff   time.Duration
	ProbeTimeout   time.Duration // single wait for an optional step
	VerifyTimeout  time.Duration
	RestoreTimeout time.Duration // marker wait after cookie restoration

	DisableTwoFactor bool
	ScreenshotDir    string // debug screenshot on failure when set
}

// DefaultConfig returns the settings for x.com.
func DefaultConfig() Config {
	return Config{
		Origin:         "https://x.com",
		LoginURL:       "https://x.com/i/flow/login",
		HomeURL:        "https://x.com/home",
		LogoutURL:      "https://x.com/logout",
		Selectors:      DefaultSelectors(),
		FieldTimeout:   10 * time.Second,
		FieldAttempts:  3,
		RetryBackoff:   2 * time.Second,
		ProbeTimeout:   3 * time.Second,
		VerifyTimeout:  30 * time.Second,
		RestoreTimeout: 10 * time.Second,
	}
}

// Authenticator owns one browser session and its SessionState.
// Calls are serialised; it is not meant to be shared between accounts.
type Authenticator struct {
	driver    browser.Driver
	store     CookieStore
	creds     Credentials
	responder ChallengeResponder
	cfg       Config
	x         *extract.Extractor
	log       *slog.Logger

	onTransition func(from, to State, err error)
	sleep        func(ctx context.Context, d time.Duration) error
	now          func() time.Time
	fs           afero.Fs

	// run serialises EnsureLoggedIn and Logout. Only the goroutine holding
	// it writes the fields below, and it does so under mu.
	run     sync.Mutex
	mu      sync.RWMutex
	state   State
	session SessionState
	lastErr error
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(a *Authenticator) {
		a.cfg = cfg
	}
}

// WithResponder sets the source of verification codes.
func WithResponder(r ChallengeResponder) Option {
	return func(a *Authenticator) {
		a.responder = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		a.log = l
	}
}

// WithTransitionHook registers fn to observe every state change.
func WithTransitionHook(fn func(from, to State, err error)) Option {
	return func(a *Authenticator) {
		a.onTransition = fn
	}
}

// WithFs sets the filesystem failure screenshots are written to.
func WithFs(fs afero.Fs) Option {
	return func(a *Authenticator) {
		a.fs = fs
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// WithSleep replaces the retry backoff sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Authenticator) {
		a.sleep = fn
	}
}

// New creates an Authenticator in StateUnauthenticated.
func New(driver browser.Driver, store CookieStore, creds Credentials, opts ...Option) *Authenticator {
	a := &Authenticator{
		driver: driver,
		store:  store,
		creds:  creds,
		cfg:    DefaultConfig(),
		sleep:  sleepContext,
		now:    time.Now,
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.With("component", "session")
	}
	if a.cfg.FieldAttempts < 1 {
		a.cfg.FieldAttempts = 1
	}
	a.x = extract.New(extract.WithLogger(a.log))
	return a
}

// State returns the current state.
func (a *Authenticator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Session returns a copy of the session state.
func (a *Authenticator) Session() SessionState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// LastError returns the reason for the most recent failure, or nil.
func (a *Authenticator) LastError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// EnsureLoggedIn makes sure the driver holds an authenticated session,
// restoring cookies or logging in as needed. It reports success only after an
// authenticated-only marker has been observed. LastError explains a false result.
func (a *Authenticator) EnsureLoggedIn(ctx context.Context) bool {
	a.run.Lock()
	defer a.run.Unlock()

	if a.state == StateAuthenticated && a.session.IsAuthenticated {
		if a.x.Present(ctx, a.driver, a.cfg.Selectors.Authenticated) {
			return true
		}
		a.log.Info("session no longer authenticated, logging in again")
	}

	a.reset()
	if err := a.login(ctx); err != nil {
		a.fail(ctx, err)
		return false
	}
	return true
}

func (a *Authenticator) login(ctx context.Context) error {
	if a.store.HasValidCookies() {
		a.transition(StateCookieRestoreAttempted, nil)
		ok, err := a.restore(ctx)
		if err != nil {
			return err
		}
		if ok {
			a.succeed(ctx)
			return nil
		}
		a.log.Info("stored cookies did not restore the session, logging in with credentials")
		if err := a.driver.DeleteAllCookies(ctx); err != nil {
			a.log.Debug("failed to clear browser cookies", "error", err)
		}
	} else if !a.store.Load().Empty() {
		a.log.Info("stored cookies expired, removing them")
		if err := a.store.Clear(); err != nil {
			a.log.Warn("failed to clear expired cookies", "error", err)
		}
	}

	return a.manual(ctx)
}

// restore injects the stored cookies and checks for an authenticated page.
// A challenge is returned as an error; any other miss is (false, nil).
func (a *Authenticator) restore(ctx context.Context) (bool, error) {
	set := a.store.Load()

	if err := a.driver.Navigate(ctx, a.cfg.Origin); err != nil {
		a.log.Warn("failed to open origin for cookie restore", "error", err)
		return false, nil
	}

	added := 0
	for _, c := range set.Cookies {
		if err := a.driver.AddCookie(ctx, c); err != nil {
			a.log.Debug("failed to add cookie", "name", c.Name, "error", err)
			continue
		}
		added++
	}
	if added == 0 {
		return false, nil
	}

	if err := a.driver.Navigate(ctx, a.cfg.HomeURL); err != nil {
		a.log.Warn("failed to open home page after cookie restore", "error", err)
		return false, nil
	}

	ok, err := a.verify(ctx, a.cfg.RestoreTimeout)
	if err != nil {
		return false, err
	}
	a.log.Debug("cookie restore checked", "cookies", added, "authenticated", ok)
	return ok, nil
}

// manual walks the login form.
func (a *Authenticator) manual(ctx context.Context) error {
	sel := a.cfg.Selectors

	a.transition(StateIdentifying, nil)
	if err := a.driver.Navigate(ctx, a.cfg.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if kind := a.detectChallenge(ctx, false); kind != "" {
		return fmt.Errorf("%w: %s", ErrChallenge, kind)
	}
	field, err := a.waitField(ctx, sel.Identifier)
	if err != nil {
		return err
	}
	if err := a.submit(ctx, field, a.creds.Identifier); err != nil {
		return fmt.Errorf("submit identifier: %w", err)
	}

	a.transition(StateChallengeOptional, nil)
	if field, ok := a.probe(ctx, sel.ConfirmIdentity); ok {
		if a.creds.Handle == "" {
			return ErrMissingHandle
		}
		a.log.Info("site asked to confirm account handle")
		if err := a.submit(ctx, field, a.creds.Handle); err != nil {
			return fmt.Errorf("submit handle: %w", err)
		}
	}

	a.transition(StateAuthenticating, nil)
	field, err = a.waitField(ctx, sel.Secret)
	if err != nil {
		return err
	}
	if err := a.submit(ctx, field, a.creds.Secret); err != nil {
		return fmt.Errorf("submit password: %w", err)
	}

	a.transition(StateTwoFactorOptional, nil)
	if !a.cfg.DisableTwoFactor {
		if err := a.twoFactor(ctx); err != nil {
			return err
		}
	}

	a.transition(StateVerifying, nil)
	ok, err := a.verify(ctx, a.cfg.VerifyTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotVerified
	}

	a.succeed(ctx)
	return nil
}

// twoFactor answers a verification code prompt if one appears.
func (a *Authenticator) twoFactor(ctx context.Context) error {
	field, loc, ok := a.probeWithLocator(ctx, a.cfg.Selectors.verificationCode())
	if !ok {
		return nil
	}
	if a.responder == nil {
		return ErrNoResponder
	}

	cc := ChallengeContext{Kind: ChallengeOneTimeCode, Account: a.creds.User()}
	if a.cfg.Selectors.isEmailConfirmation(loc) {
		cc.Kind = ChallengeEmailConfirmation
	}
	cc.URL, _ = a.driver.CurrentURL(ctx)

	a.log.Info("verification code requested", "kind", cc.Kind)
	code, err := a.responder.ProvideCode(ctx, cc)
	if err != nil {
		return fmt.Errorf("obtain verification code: %w", err)
	}
	if code == "" {
		return ErrEmptyCode
	}
	if err := a.submit(ctx, field, code); err != nil {
		return fmt.Errorf("submit verification code: %w", err)
	}
	return nil
}

// verify waits for an authenticated-only marker. A challenge marker seen
// before or during the wait is returned as ErrChallenge. The page source is
// only scanned once the wait has failed.
func (a *Authenticator) verify(ctx context.Context, timeout time.Duration) (bool, error) {
	if kind := a.detectChallenge(ctx, false); kind != "" {
		return false, fmt.Errorf("%w: %s", ErrChallenge, kind)
	}

	var challenge string
	ok := a.driver.WaitUntil(ctx, func(ctx context.Context) bool {
		if kind := a.detectChallenge(ctx, false); kind != "" {
			challenge = kind
			return true
		}
		return a.x.Present(ctx, a.driver, a.cfg.Selectors.Authenticated)
	}, timeout)

	if challenge != "" {
		return false, fmt.Errorf("%w: %s", ErrChallenge, challenge)
	}
	if !ok {
		if kind := a.detectChallenge(ctx, true); kind != "" {
			return false, fmt.Errorf("%w: %s", ErrChallenge, kind)
		}
	}
	return ok, nil
}

// waitField waits for a required field, retrying with backoff.
func (a *Authenticator) waitField(ctx context.Context, q extract.Query) (browser.Element, error) {
	attempts := a.cfg.FieldAttempts
	for attempt := 1; attempt <= attempts; attempt++ {
		if kind := a.detectChallenge(ctx, false); kind != "" {
			return nil, fmt.Errorf("%w: %s", ErrChallenge, kind)
		}

		found := a.driver.WaitUntil(ctx, func(ctx context.Context) bool {
			return a.x.Present(ctx, a.driver, q)
		}, a.cfg.FieldTimeout)
		if found {
			if el, _, ok := a.x.First(ctx, a.driver, q); ok {
				return el, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a.log.Warn("field not rendered yet", "field", q.Field, "attempt", attempt, "of", attempts)
		if attempt < attempts {
			if err := a.sleep(ctx, a.cfg.RetryBackoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrFieldNotFound, q.Field, attempts)
}

// probe makes a single bounded check for an optional field.
func (a *Authenticator) probe(ctx context.Context, q extract.Query) (browser.Element, bool) {
	el, _, ok := a.probeWithLocator(ctx, q)
	return el, ok
}

func (a *Authenticator) probeWithLocator(ctx context.Context, q extract.Query) (browser.Element, browser.Locator, bool) {
	if !a.driver.WaitUntil(ctx, func(ctx context.Context) bool {
		return a.x.Present(ctx, a.driver, q)
	}, a.cfg.ProbeTimeout) {
		return nil, browser.Locator{}, false
	}
	return a.x.First(ctx, a.driver, q)
}

// submit types value into field and advances the form, preferring a visible
// Next/Login button and falling back to the return key.
func (a *Authenticator) submit(ctx context.Context, field browser.Element, value string) error {
	if err := field.Clear(ctx); err != nil {
		return err
	}
	if err := field.SendKeys(ctx, value); err != nil {
		return err
	}
	if btn, _, ok := a.x.First(ctx, a.driver, a.cfg.Selectors.Next); ok {
		if err := btn.Click(ctx); err == nil {
			return nil
		}
	}
	return field.SendKeys(ctx, browser.KeyEnter)
}

// succeed persists the driver cookies and marks the session authenticated.
// A persistence failure is logged and does not undo the login.
func (a *Authenticator) succeed(ctx context.Context) {
	cookies, err := a.driver.Cookies(ctx)
	switch {
	case err != nil:
		a.log.Warn("failed to read browser cookies", "error", err)
	default:
		if err := a.store.Save(cookies); err != nil {
			a.log.Warn("failed to persist session cookies", "error", err)
		}
	}

	st := SessionState{
		IsAuthenticated: true,
		CurrentUser:     a.creds.User(),
		AuthenticatedAt: a.now(),
	}
	if set := a.store.Load(); !set.Empty() {
		st.Cookies = &set
	}
	a.setSession(st, nil)
	a.transition(StateAuthenticated, nil)
	a.log.Info("authenticated", "user", st.CurrentUser)
}

func (a *Authenticator) fail(ctx context.Context, err error) {
	from := a.state
	a.setSession(SessionState{}, err)
	a.transition(StateFailed, err)
	a.log.Error("login failed", "step", from.String(), "error", err)

	if a.cfg.ScreenshotDir == "" {
		return
	}
	if mkErr := a.fs.MkdirAll(a.cfg.ScreenshotDir, 0o755); mkErr != nil {
		a.log.Debug("cannot create screenshot dir", "error", mkErr)
		return
	}
	name := fsutil.SafeFilename(fmt.Sprintf("login-failed-%s-%d", from, a.now().Unix()), 0) + ".png"
	if shotErr := a.driver.Screenshot(ctx, filepath.Join(a.cfg.ScreenshotDir, name)); shotErr != nil {
		a.log.Debug("debug screenshot not captured", "error", shotErr)
	}
}

// Logout ends the session on the site, clears the browser cookies and always
// clears the cookie store. It never fails; problems are logged.
func (a *Authenticator) Logout(ctx context.Context) {
	a.run.Lock()
	defer a.run.Unlock()

	if a.cfg.LogoutURL != "" {
		if err := a.driver.Navigate(ctx, a.cfg.LogoutURL); err != nil {
			a.log.Warn("logout navigation failed", "error", err)
		}
	}
	if err := a.driver.DeleteAllCookies(ctx); err != nil {
		a.log.Warn("failed to delete browser cookies", "error", err)
	}
	if err := a.store.Clear(); err != nil {
		a.log.Warn("failed to clear cookie store", "error", err)
	}

	a.setSession(SessionState{}, nil)
	a.transition(StateUnauthenticated, nil)
	a.log.Info("logged out")
}

func (a *Authenticator) reset() {
	a.setSession(SessionState{}, nil)
	if a.state != StateUnauthenticated {
		a.transition(StateUnauthenticated, nil)
	}
}

func (a *Authenticator) setSession(st SessionState, err error) {
	a.mu.Lock()
	a.session = st
	a.lastErr = err
	a.mu.Unlock()
}

// transition records the new state and then calls the hook with no lock on
// the state held, so the hook may read State, Session and LastError.
func (a *Authenticator) transition(to State, err error) {
	a.mu.Lock()
	from := a.state
	a.state = to
	a.mu.Unlock()

	a.log.Debug("session transition", "from", from.String(), "to", to.String())
	if a.onTransition != nil {
		a.onTransition(from, to, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package chrome

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/pkg/browser"
)

// Driver drives one Chrome tab through chromedp.
type Driver struct {
	config        Config
	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
}

var (
	_ browser.Driver   = (*Driver)(nil)
	_ browser.Scroller = (*Driver)(nil)
)

// New launches Chrome and opens a tab.
func New(cfg Config) (*Driver, error) {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = def.ActionTimeout
	}
	if cfg.WindowWidth == 0 || cfg.WindowHeight == 0 {
		cfg.WindowWidth, cfg.WindowHeight = def.WindowWidth, def.WindowHeight
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
		chromedp.UserAgent(cfg.UserAgent),
	)

	execPath := cfg.ExecPath
	if execPath == "" {
		execPath = FindChromePath()
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}
	if cfg.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(cfg.ProxyURL))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	// Run with no actions starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug("chrome driver started",
		"headless", cfg.Headless,
		"proxy", cfg.ProxyURL != "",
		"action_timeout", cfg.ActionTimeout)

	return &Driver{
		config:        cfg,
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
	}, nil
}

// run executes actions on the tab, bounded by ActionTimeout and by ctx.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.browserCtx, d.config.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the body to be ready.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	logger.Debug("chrome navigate", "url", url)
	if err := d.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the tab location.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	err := d.run(ctx, chromedp.Location(&loc))
	return loc, err
}

// Title returns the document title.
func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.run(ctx, chromedp.Title(&title))
	return title, err
}

// PageSource returns the serialized document.
func (d *Driver) PageSource(ctx context.Context) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// FindFirst implements browser.Scope.
func (d *Driver) FindFirst(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return first(d.FindAll(ctx, loc))
}

// FindAll implements browser.Scope.
func (d *Driver) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	return d.query(ctx, nil, loc)
}

// query looks up loc in the document, or below parent when set. Queries
// never wait for matches to appear; callers poll with WaitUntil.
func (d *Driver) query(ctx context.Context, parent *cdp.Node, loc browser.Locator) ([]browser.Element, error) {
	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	switch loc.Strategy {
	case browser.StrategyCSS:
		opts = append(opts, chromedp.ByQueryAll)
		if parent != nil {
			opts = append(opts, chromedp.FromNode(parent))
		}
	case browser.StrategyXPath:
		if parent != nil {
			return nil, fmt.Errorf("scoped xpath: %w", browser.ErrUnsupported)
		}
		opts = append(opts, chromedp.BySearch)
	default:
		return nil, fmt.Errorf("%s locator: %w", loc.Strategy, browser.ErrUnsupported)
	}

	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(loc.Value, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}

	out := make([]browser.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &Element{d: d, node: n})
	}
	return out, nil
}

// Cookies returns every cookie visible to the tab.
func (d *Driver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	var raw []*network.Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}

	out := make([]browser.Cookie, 0, len(raw))
	for _, c := range raw {
		bc := browser.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		}
		if !c.Session && c.Expires > 0 {
			exp := int64(c.Expires)
			bc.Expiry = &exp
		}
		out = append(out, bc)
	}
	return out, nil
}

// AddCookie sets c in the browser cookie store.
func (d *Driver) AddCookie(ctx context.Context, c browser.Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		p := network.SetCookie(c.Name, c.Value).
			WithDomain(c.Domain).
			WithPath(path).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HTTPOnly)
		if exp, ok := c.ExpiresAt(); ok {
			t := cdp.TimeSinceEpoch(exp)
			p = p.WithExpires(&t)
		}
		if err := p.Do(ctx); err != nil {
			return fmt.Errorf("set cookie %s: %w", c.Name, err)
		}
		return nil
	}))
}

// DeleteAllCookies clears the browser cookie store.
func (d *Driver) DeleteAllCookies(ctx context.Context) error {
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	}))
}

// WaitUntil polls cond until it holds or timeout elapses.
func (d *Driver) WaitUntil(ctx context.Context, cond func(context.Context) bool, timeout time.Duration) bool {
	return browser.Poll(ctx, browser.DefaultPollInterval, timeout, cond)
}

// Screenshot writes a PNG of the viewport to path.
func (d *Driver) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	logger.Debug("screenshot saved", "path", path)
	return nil
}

// ScrollBy scrolls the viewport vertically.
func (d *Driver) ScrollBy(ctx context.Context, pixels int) error {
	return d.run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", pixels), nil))
}

// Close shuts the tab and the browser.
func (d *Driver) Close() error {
	if d.cancelBrowser != nil {
		d.cancelBrowser()
	}
	if d.cancelAlloc != nil {
		d.cancelAlloc()
	}
	return nil
}

func first(els []browser.Element, err error) (browser.Element, error) {
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return els[0], nil
}

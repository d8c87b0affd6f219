// Package static implements browser.Driver on top of colly and goquery.
//
// It fetches pages without running JavaScript and evaluates CSS locators
// against the parsed document. Form input is simulated on the in-memory DOM
// only; Click and Screenshot are unsupported. It is useful for anonymous
// pages, saved HTML and tests.
package static

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/pkg/browser"
)

// Config holds configuration for the static driver.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: defaultUserAgent,
		Timeout:   30 * time.Second,
	}
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Driver is a read-mostly browser.Driver backed by colly and goquery.
type Driver struct {
	config Config

	mu      sync.RWMutex
	doc     *goquery.Document
	url     string
	cookies []browser.Cookie
}

// New creates a static driver.
func New(cfg Config) *Driver {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Driver{config: cfg}
}

// Load replaces the current document with html as if it had been fetched
// from pageURL.
func (d *Driver) Load(html, pageURL string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	d.mu.Lock()
	d.doc = doc
	d.url = pageURL
	d.mu.Unlock()
	return nil
}

// Navigate fetches targetURL with colly, sending the stored cookies.
func (d *Driver) Navigate(ctx context.Context, targetURL string) error {
	logger.Debug("static navigate", "url", targetURL)

	c := colly.NewCollector(
		colly.UserAgent(d.config.UserAgent),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(d.config.Timeout)

	d.mu.RLock()
	stored := append([]browser.Cookie(nil), d.cookies...)
	d.mu.RUnlock()
	if len(stored) > 0 {
		if err := c.SetCookies(targetURL, toHTTP(stored)); err != nil {
			return fmt.Errorf("failed to set cookies: %w", err)
		}
	}

	var (
		body     []byte
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		logger.Debug("static response received", "status", r.StatusCode, "body_size", len(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch error (status %d): %w", status, err)
	})

	if err := c.Visit(targetURL); err != nil {
		return fmt.Errorf("failed to visit URL: %w", err)
	}
	if fetchErr != nil {
		return fetchErr
	}

	if err := d.Load(string(body), targetURL); err != nil {
		return err
	}
	d.mergeCookies(targetURL, c.Cookies(targetURL))
	return nil
}

// mergeCookies records cookies the server set during a visit.
func (d *Driver) mergeCookies(pageURL string, got []*http.Cookie) {
	host := ""
	if u, err := url.Parse(pageURL); err == nil {
		host = u.Hostname()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, hc := range got {
		c := browser.Cookie{Name: hc.Name, Value: hc.Value, Domain: host, Path: "/"}
		d.cookies = upsert(d.cookies, c)
	}
}

// CurrentURL returns the URL of the loaded document.
func (d *Driver) CurrentURL(context.Context) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url, nil
}

// Title returns the document title.
func (d *Driver) Title(context.Context) (string, error) {
	doc := d.document()
	if doc == nil {
		return "", nil
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

// PageSource returns the serialized document.
func (d *Driver) PageSource(context.Context) (string, error) {
	doc := d.document()
	if doc == nil {
		return "", nil
	}
	return doc.Html()
}

// FindFirst implements browser.Scope.
func (d *Driver) FindFirst(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	doc := d.document()
	if doc == nil {
		return nil, browser.ErrNoSuchElement
	}
	return findFirst(doc.Selection, loc)
}

// FindAll implements browser.Scope.
func (d *Driver) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	doc := d.document()
	if doc == nil {
		return nil, nil
	}
	return findAll(doc.Selection, loc)
}

// Cookies returns the stored cookies.
func (d *Driver) Cookies(context.Context) ([]browser.Cookie, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]browser.Cookie(nil), d.cookies...), nil
}

// AddCookie stores c, replacing any cookie with the same name, domain and path.
func (d *Driver) AddCookie(_ context.Context, c browser.Cookie) error {
	if c.Path == "" {
		c.Path = "/"
	}
	d.mu.Lock()
	d.cookies = upsert(d.cookies, c)
	d.mu.Unlock()
	return nil
}

// DeleteAllCookies forgets every stored cookie.
func (d *Driver) DeleteAllCookies(context.Context) error {
	d.mu.Lock()
	d.cookies = nil
	d.mu.Unlock()
	return nil
}

// WaitUntil polls cond against the current document.
func (d *Driver) WaitUntil(ctx context.Context, cond func(context.Context) bool, timeout time.Duration) bool {
	return browser.Poll(ctx, browser.DefaultPollInterval, timeout, cond)
}

// Screenshot is not available without a renderer.
func (d *Driver) Screenshot(context.Context, string) error {
	return fmt.Errorf("screenshot: %w", browser.ErrUnsupported)
}

// Close releases resources.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) document() *goquery.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc
}

func upsert(cookies []browser.Cookie, c browser.Cookie) []browser.Cookie {
	for i := range cookies {
		if cookies[i].Name == c.Name && cookies[i].Domain == c.Domain && cookies[i].Path == c.Path {
			cookies[i] = c
			return cookies
		}
	}
	return append(cookies, c)
}

func toHTTP(cookies []browser.Cookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if exp, ok := c.ExpiresAt(); ok {
			hc.Expires = exp
		}
		out = append(out, hc)
	}
	return out
}

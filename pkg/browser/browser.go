// Package browser defines the narrow driver contract the session and
// extraction layers consume. Implement Driver to plug in a different
// automation backend; see the chrome and static subpackages.
package browser

import (
	"context"
	"errors"
	"time"
)

// Strategy identifies how a Locator value is interpreted.
type Strategy string

const (
	StrategyCSS   Strategy = "css"
	StrategyXPath Strategy = "xpath"
)

// Locator is a single way of finding elements.
type Locator struct {
	Strategy Strategy
	Value    string
}

// CSS returns a CSS selector locator.
func CSS(selector string) Locator {
	return Locator{Strategy: StrategyCSS, Value: selector}
}

// XPath returns an XPath locator.
func XPath(expr string) Locator {
	return Locator{Strategy: StrategyXPath, Value: expr}
}

func (l Locator) String() string {
	return string(l.Strategy) + ":" + l.Value
}

// Scope is something elements can be searched within: the whole document or
// a single element.
type Scope interface {
	// FindFirst returns the first match, or ErrNoSuchElement.
	FindFirst(ctx context.Context, loc Locator) (Element, error)

	// FindAll returns every match. No match is an empty slice, not an error.
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
}

// Element is a handle on a node in the current page.
type Element interface {
	Scope

	Clear(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Click(ctx context.Context) error
	Text(ctx context.Context) (string, error)

	// Attribute returns the attribute value and whether it was present.
	Attribute(ctx context.Context, name string) (string, bool, error)
}

// Driver is a browser session.
type Driver interface {
	Scope

	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)

	Cookies(ctx context.Context) ([]Cookie, error)
	AddCookie(ctx context.Context, c Cookie) error
	DeleteAllCookies(ctx context.Context) error

	// WaitUntil blocks until cond reports true or timeout elapses.
	WaitUntil(ctx context.Context, cond func(context.Context) bool, timeout time.Duration) bool

	// Screenshot writes a PNG of the current viewport to path.
	Screenshot(ctx context.Context, path string) error

	// Close releases the browser session.
	Close() error
}

// Scroller is implemented by drivers that can scroll the viewport.
type Scroller interface {
	ScrollBy(ctx context.Context, pixels int) error
}

// KeyEnter submits a focused form field when sent with SendKeys.
const KeyEnter = "\r"

// Cookie is a browser cookie as persisted by the cookie store.
// A nil Expiry marks a session cookie.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	Expiry   *int64 `json:"expiry,omitempty"`
}

// ExpiresAt returns the cookie expiry and whether it has one.
func (c Cookie) ExpiresAt() (time.Time, bool) {
	if c.Expiry == nil {
		return time.Time{}, false
	}
	return time.Unix(*c.Expiry, 0), true
}

// Error types for driver failures.
// Check with errors.Is(err, browser.ErrNoSuchElement).
var (
	// ErrNoSuchElement indicates a locator matched nothing.
	ErrNoSuchElement = errors.New("no such element")
	// ErrUnsupported indicates the driver cannot perform the operation.
	ErrUnsupported = errors.New("operation not supported by driver")
)

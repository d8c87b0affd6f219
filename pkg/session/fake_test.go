package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/cookiestore"
)

// fakeDriver is a scripted browser.Driver. Elements exist while their
// locator value is marked present; submitting a field (return key) runs the
// matching entry in onSubmit to move the page along.
type fakeDriver struct {
	present  map[string]bool
	onSubmit map[string]func(d *fakeDriver)
	title    string
	source   string
	cookies  []browser.Cookie

	navigations []string
	queries     []string
	typed       map[string]string
	added       []browser.Cookie
	cleared     int
	shots       []string
	navErr      map[string]error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		present:  map[string]bool{},
		onSubmit: map[string]func(d *fakeDriver){},
		typed:    map[string]string{},
		navErr:   map[string]error{},
	}
}

func (d *fakeDriver) show(sels ...string) {
	for _, s := range sels {
		d.present[s] = true
	}
}

func (d *fakeDriver) hide(sels ...string) {
	for _, s := range sels {
		delete(d.present, s)
	}
}

func (d *fakeDriver) queried(sel string) bool {
	for _, q := range d.queries {
		if q == sel {
			return true
		}
	}
	return false
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.navigations = append(d.navigations, url)
	return d.navErr[url]
}

func (d *fakeDriver) CurrentURL(context.Context) (string, error) {
	if len(d.navigations) == 0 {
		return "", nil
	}
	return d.navigations[len(d.navigations)-1], nil
}

func (d *fakeDriver) Title(context.Context) (string, error)      { return d.title, nil }
func (d *fakeDriver) PageSource(context.Context) (string, error) { return d.source, nil }

func (d *fakeDriver) FindFirst(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, _ := d.FindAll(ctx, loc)
	if len(els) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return els[0], nil
}

func (d *fakeDriver) FindAll(_ context.Context, loc browser.Locator) ([]browser.Element, error) {
	d.queries = append(d.queries, loc.Value)
	if loc.Strategy == browser.StrategyXPath {
		return nil, browser.ErrUnsupported
	}
	if !d.present[loc.Value] {
		return nil, nil
	}
	return []browser.Element{&fakeField{d: d, sel: loc.Value}}, nil
}

func (d *fakeDriver) Cookies(context.Context) ([]browser.Cookie, error) {
	return d.cookies, nil
}

func (d *fakeDriver) AddCookie(_ context.Context, c browser.Cookie) error {
	d.added = append(d.added, c)
	return nil
}

func (d *fakeDriver) DeleteAllCookies(context.Context) error {
	d.cleared++
	return nil
}

// WaitUntil evaluates cond once; the script changes the page synchronously.
func (d *fakeDriver) WaitUntil(ctx context.Context, cond func(context.Context) bool, _ time.Duration) bool {
	return cond(ctx)
}

func (d *fakeDriver) Screenshot(_ context.Context, path string) error {
	d.shots = append(d.shots, path)
	return nil
}

func (d *fakeDriver) Close() error { return nil }

type fakeField struct {
	d   *fakeDriver
	sel string
}

func (f *fakeField) FindFirst(context.Context, browser.Locator) (browser.Element, error) {
	return nil, browser.ErrNoSuchElement
}
func (f *fakeField) FindAll(context.Context, browser.Locator) ([]browser.Element, error) {
	return nil, nil
}
func (f *fakeField) Clear(context.Context) error {
	f.d.typed[f.sel] = ""
	return nil
}
func (f *fakeField) SendKeys(_ context.Context, text string) error {
	if text == browser.KeyEnter {
		if fn := f.d.onSubmit[f.sel]; fn != nil {
			fn(f.d)
		}
		return nil
	}
	f.d.typed[f.sel] += text
	return nil
}
func (f *fakeField) Click(context.Context) error               { return errors.New("not clickable") }
func (f *fakeField) Text(context.Context) (string, error)      { return "", nil }
func (f *fakeField) Attribute(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// fakeStore records calls made against the cookie store.
type fakeStore struct {
	set     cookiestore.CookieSet
	valid   bool
	saved   [][]browser.Cookie
	saveErr error
	clears  int
}

func (s *fakeStore) Save(cookies []browser.Cookie) error {
	s.saved = append(s.saved, cookies)
	if s.saveErr != nil {
		return s.saveErr
	}
	s.set = cookiestore.CookieSet{Count: len(cookies), Cookies: cookies}
	s.valid = true
	return nil
}

func (s *fakeStore) Load() cookiestore.CookieSet { return s.set }
func (s *fakeStore) HasValidCookies() bool       { return s.valid }

func (s *fakeStore) Clear() error {
	s.clears++
	s.set = cookiestore.CookieSet{}
	s.valid = false
	return nil
}

// Locator values the scripts refer to.
var (
	selIdentifier = DefaultSelectors().Identifier.Candidates[0].Value
	selConfirm    = DefaultSelectors().ConfirmIdentity.Candidates[0].Value
	selSecret     = DefaultSelectors().Secret.Candidates[0].Value
	selEmailCode  = "input[type='email']"
	selHome       = DefaultSelectors().Authenticated.Candidates[0].Value
	selRecaptcha  = "iframe[src*='recaptcha']"
)

func isLoginField(sel string) bool {
	return strings.Contains(sel, "autocomplete") ||
		strings.Contains(sel, "password") ||
		strings.Contains(sel, "ocfEnterText") ||
		strings.Contains(sel, "name='text'")
}

// Package extract reads fields out of an unstable DOM by trying an ordered
// list of locator candidates and keeping the first non-empty result.
//
// Candidates are evaluated strictly in order and evaluation stops at the
// first hit, so the most specific locator should come first.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/count"
)

// Query is an ordered set of locator candidates for one logical field.
type Query struct {
	Field      string
	Candidates []browser.Locator
}

// NewQuery builds a Query for field.
func NewQuery(field string, candidates ...browser.Locator) Query {
	return Query{Field: field, Candidates: candidates}
}

// CSS builds a Query whose candidates are all CSS selectors.
func CSS(field string, selectors ...string) Query {
	locs := make([]browser.Locator, len(selectors))
	for i, s := range selectors {
		locs[i] = browser.CSS(s)
	}
	return Query{Field: field, Candidates: locs}
}

// Attempt describes the evaluation of one candidate.
type Attempt struct {
	Field   string
	Index   int
	Locator browser.Locator
	Matches int
	Value   string // cleaned result, empty on a miss
	Err     error
}

// Hit reports whether the attempt produced a usable value.
func (a Attempt) Hit() bool {
	return a.Err == nil && a.Value != ""
}

// Extractor evaluates queries against a browser scope.
type Extractor struct {
	log  *slog.Logger
	hook func(Attempt)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for per-candidate debug output.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) {
		x.log = l
	}
}

// WithHook registers a callback invoked after every candidate evaluation.
func WithHook(fn func(Attempt)) Option {
	return func(x *Extractor) {
		x.hook = fn
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{}
	for _, opt := range opts {
		opt(x)
	}
	if x.log == nil {
		x.log = logger.With("component", "extract")
	}
	return x
}

// Text returns the cleaned, space-joined text of the first candidate whose
// matches produce non-empty text. Returns "" when every candidate misses.
func (x *Extractor) Text(ctx context.Context, scope browser.Scope, q Query) string {
	v, _, _ := x.resolve(ctx, scope, q, func(ctx context.Context, els []browser.Element) (string, bool) {
		s := joinText(ctx, els)
		return s, s != ""
	})
	return v
}

// FirstText is Text restricted to the first match with non-empty text, for
// fields where later matches repeat or extend the first.
func (x *Extractor) FirstText(ctx context.Context, scope browser.Scope, q Query) string {
	v, _, _ := x.resolve(ctx, scope, q, func(ctx context.Context, els []browser.Element) (string, bool) {
		for _, el := range els {
			t, err := el.Text(ctx)
			if err != nil {
				continue
			}
			if s := Clean(t); s != "" {
				return s, true
			}
		}
		return "", false
	})
	return v
}

// Attribute returns the first non-empty value of attr among the matches of
// the first candidate that has one.
func (x *Extractor) Attribute(ctx context.Context, scope browser.Scope, q Query, attr string) string {
	v, _, _ := x.resolve(ctx, scope, q, func(ctx context.Context, els []browser.Element) (string, bool) {
		for _, el := range els {
			raw, ok, err := el.Attribute(ctx, attr)
			if err != nil || !ok {
				continue
			}
			if s := Clean(raw); s != "" {
				return s, true
			}
		}
		return "", false
	})
	return v
}

// Count parses the text of candidates in order and returns the first value
// that holds a number. A candidate whose text is non-numeric falls through
// to the next. The boolean reports whether any candidate produced a number.
func (x *Extractor) Count(ctx context.Context, scope browser.Scope, q Query) (int64, bool) {
	var n int64
	_, _, ok := x.resolve(ctx, scope, q, func(ctx context.Context, els []browser.Element) (string, bool) {
		s := joinText(ctx, els)
		v, ok := count.ParseStrict(s)
		if ok {
			n = v
		}
		return s, ok
	})
	return n, ok
}

// First returns the first element of the first candidate with any match,
// along with the locator that found it.
func (x *Extractor) First(ctx context.Context, scope browser.Scope, q Query) (browser.Element, browser.Locator, bool) {
	els, loc, ok := x.firstMatching(ctx, scope, q)
	if !ok {
		return nil, browser.Locator{}, false
	}
	return els[0], loc, true
}

// All returns every match of the first candidate with any match.
func (x *Extractor) All(ctx context.Context, scope browser.Scope, q Query) []browser.Element {
	els, _, _ := x.firstMatching(ctx, scope, q)
	return els
}

// Present reports whether any candidate matches at least one element.
func (x *Extractor) Present(ctx context.Context, scope browser.Scope, q Query) bool {
	_, _, ok := x.firstMatching(ctx, scope, q)
	return ok
}

func (x *Extractor) firstMatching(ctx context.Context, scope browser.Scope, q Query) ([]browser.Element, browser.Locator, bool) {
	var found []browser.Element
	_, loc, ok := x.resolve(ctx, scope, q, func(_ context.Context, els []browser.Element) (string, bool) {
		found = els
		return "present", true
	})
	return found, loc, ok
}

// resolve walks the candidates of q in order and stops at the first one for
// which pick accepts the matches.
func (x *Extractor) resolve(ctx context.Context, scope browser.Scope, q Query,
	pick func(context.Context, []browser.Element) (string, bool)) (string, browser.Locator, bool) {
	for i, loc := range q.Candidates {
		if ctx.Err() != nil {
			return "", browser.Locator{}, false
		}

		a := Attempt{Field: q.Field, Index: i, Locator: loc}
		els, err := scope.FindAll(ctx, loc)
		a.Matches = len(els)

		var (
			v  string
			ok bool
		)
		if err != nil {
			a.Err = err
		} else if len(els) > 0 {
			v, ok = pick(ctx, els)
			if ok {
				a.Value = v
			}
		}
		x.report(a)

		if ok {
			return v, loc, true
		}
	}
	x.log.Debug("no candidate matched", "field", q.Field, "candidates", len(q.Candidates))
	return "", browser.Locator{}, false
}

func (x *Extractor) report(a Attempt) {
	if a.Err != nil {
		x.log.Debug("candidate failed", "field", a.Field, "index", a.Index, "locator", a.Locator.String(), "error", a.Err)
	}
	if x.hook != nil {
		x.hook(a)
	}
}

// joinText joins the trimmed text of els with single spaces and cleans it.
func joinText(ctx context.Context, els []browser.Element) string {
	parts := make([]string, 0, len(els))
	for _, el := range els {
		t, err := el.Text(ctx)
		if err != nil {
			continue
		}
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return Clean(strings.Join(parts, " "))
}

var zeroWidth = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// Clean strips zero-width characters and the BOM, then collapses runs of
// whitespace into single spaces.
func Clean(s string) string {
	return strings.Join(strings.Fields(zeroWidth.Replace(s)), " ")
}

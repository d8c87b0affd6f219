package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/browser/static"
)

// fakeElement is a minimal browser.Element with fixed text and attributes.
type fakeElement struct {
	text  string
	attrs map[string]string
}

func (e *fakeElement) FindFirst(context.Context, browser.Locator) (browser.Element, error) {
	return nil, browser.ErrNoSuchElement
}
func (e *fakeElement) FindAll(context.Context, browser.Locator) ([]browser.Element, error) {
	return nil, nil
}
func (e *fakeElement) Clear(context.Context) error           { return nil }
func (e *fakeElement) SendKeys(context.Context, string) error { return nil }
func (e *fakeElement) Click(context.Context) error           { return nil }
func (e *fakeElement) Text(context.Context) (string, error)  { return e.text, nil }
func (e *fakeElement) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.attrs[name]
	return v, ok, nil
}

// recordingScope answers from a fixed table and records every lookup.
type recordingScope struct {
	results map[string][]browser.Element
	errs    map[string]error
	queried []string
}

func (s *recordingScope) FindFirst(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	els, err := s.FindAll(ctx, loc)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return els[0], nil
}

func (s *recordingScope) FindAll(_ context.Context, loc browser.Locator) ([]browser.Element, error) {
	s.queried = append(s.queried, loc.Value)
	if err := s.errs[loc.Value]; err != nil {
		return nil, err
	}
	return s.results[loc.Value], nil
}

// --- Fallback Order Tests ---

func TestText_StopsAtFirstHit(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"B": {&fakeElement{text: "  42  "}},
		"C": {&fakeElement{text: "never"}},
	}}

	var attempts []Attempt
	x := New(WithHook(func(a Attempt) { attempts = append(attempts, a) }))

	got := x.Text(context.Background(), scope, CSS("like count", "A", "B", "C"))
	if got != "42" {
		t.Errorf("Text() = %q, want %q", got, "42")
	}
	if len(scope.queried) != 2 || scope.queried[0] != "A" || scope.queried[1] != "B" {
		t.Errorf("queried = %v, want [A B]", scope.queried)
	}
	if len(attempts) != 2 || attempts[0].Hit() || !attempts[1].Hit() {
		t.Errorf("attempts = %+v", attempts)
	}
}

func TestText_SkipsWhitespaceOnlyMatches(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"A": {&fakeElement{text: " \u200b "}},
		"B": {&fakeElement{text: "Jane"}},
	}}

	got := New().Text(context.Background(), scope, CSS("name", "A", "B"))
	if got != "Jane" {
		t.Errorf("Text() = %q, want %q", got, "Jane")
	}
}

func TestText_JoinsMatches(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"span": {
			&fakeElement{text: " Hello "},
			&fakeElement{text: ""},
			&fakeElement{text: "\tworld\n"},
		},
	}}

	got := New().Text(context.Background(), scope, CSS("text", "span"))
	if got != "Hello world" {
		t.Errorf("Text() = %q, want %q", got, "Hello world")
	}
}

func TestText_AllMiss(t *testing.T) {
	scope := &recordingScope{}
	if got := New().Text(context.Background(), scope, CSS("bio", "A", "B")); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
}

func TestText_ErrorFallsThrough(t *testing.T) {
	scope := &recordingScope{
		errs:    map[string]error{"A": browser.ErrUnsupported},
		results: map[string][]browser.Element{"B": {&fakeElement{text: "ok"}}},
	}

	var failed Attempt
	x := New(WithHook(func(a Attempt) {
		if a.Err != nil {
			failed = a
		}
	}))
	if got := x.Text(context.Background(), scope, CSS("f", "A", "B")); got != "ok" {
		t.Errorf("Text() = %q, want %q", got, "ok")
	}
	if !errors.Is(failed.Err, browser.ErrUnsupported) {
		t.Errorf("hook did not observe the failing candidate: %+v", failed)
	}
}

func TestText_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scope := &recordingScope{results: map[string][]browser.Element{"A": {&fakeElement{text: "x"}}}}
	if got := New().Text(ctx, scope, CSS("f", "A")); got != "" {
		t.Errorf("Text() = %q, want empty", got)
	}
	if len(scope.queried) != 0 {
		t.Errorf("queried = %v, want none", scope.queried)
	}
}

func TestFirstText(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"name": {
			&fakeElement{text: "  "},
			&fakeElement{text: "Jane Doe"},
			&fakeElement{text: "@jane"},
		},
	}}

	if got := New().FirstText(context.Background(), scope, CSS("name", "name")); got != "Jane Doe" {
		t.Errorf("FirstText() = %q, want %q", got, "Jane Doe")
	}
}

// --- Attribute Tests ---

func TestAttribute_FirstNonEmpty(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"A": {&fakeElement{attrs: map[string]string{"class": "x"}}},
		"B": {
			&fakeElement{attrs: map[string]string{"href": ""}},
			&fakeElement{attrs: map[string]string{"href": "/jane"}},
		},
	}}

	got := New().Attribute(context.Background(), scope, CSS("author", "A", "B"), "href")
	if got != "/jane" {
		t.Errorf("Attribute() = %q, want %q", got, "/jane")
	}
}

// --- Count Tests ---

func TestCount_NonNumericFallsThrough(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"A": {&fakeElement{text: "Like"}},
		"B": {&fakeElement{text: "1.2K"}},
	}}

	n, ok := New().Count(context.Background(), scope, CSS("likes", "A", "B"))
	if !ok || n != 1200 {
		t.Errorf("Count() = %d, %v; want 1200, true", n, ok)
	}
}

func TestCount_NotFound(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"A": {&fakeElement{text: "Reply"}},
	}}

	n, ok := New().Count(context.Background(), scope, CSS("replies", "A"))
	if ok || n != 0 {
		t.Errorf("Count() = %d, %v; want 0, false", n, ok)
	}
}

func TestCount_Zero(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"A": {&fakeElement{text: "0"}},
	}}

	n, ok := New().Count(context.Background(), scope, CSS("replies", "A"))
	if !ok || n != 0 {
		t.Errorf("Count() = %d, %v; want 0, true", n, ok)
	}
}

// --- Presence Tests ---

func TestFirst_ReturnsLocator(t *testing.T) {
	scope := &recordingScope{results: map[string][]browser.Element{
		"B": {&fakeElement{text: "input"}},
	}}

	el, loc, ok := New().First(context.Background(), scope, CSS("field", "A", "B"))
	if !ok || el == nil {
		t.Fatal("First() found nothing")
	}
	if loc.Value != "B" {
		t.Errorf("locator = %v, want B", loc)
	}
	if !New().Present(context.Background(), scope, CSS("field", "A", "B")) {
		t.Error("Present() = false, want true")
	}
	if New().Present(context.Background(), scope, CSS("field", "A")) {
		t.Error("Present() = true, want false")
	}
}

// --- Document Tests ---

const postHTML = `<html><body>
<article data-testid="tweet">
  <div data-testid="User-Name"><a href="/jane"><span>Jane</span></a></div>
  <div data-testid="tweetText"><span>Hello</span> <span>there&#8203;</span></div>
  <div data-testid="like"><span>1,234</span></div>
  <div aria-label="5 Reposts. Repost"><span></span></div>
</article>
</body></html>`

func TestExtractor_AgainstDocument(t *testing.T) {
	d := static.New(static.Config{})
	if err := d.Load(postHTML, "https://x.com/search"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	ctx := context.Background()
	x := New()

	post, _, ok := x.First(ctx, d, CSS("post", "article[data-testid='tweet']"))
	if !ok {
		t.Fatal("post container not found")
	}

	if got := x.Text(ctx, post, CSS("text", "[data-testid='tweetText']")); got != "Hello there" {
		t.Errorf("text = %q, want %q", got, "Hello there")
	}
	if got := x.Attribute(ctx, post, CSS("author", "[data-testid='User-Name'] a"), "href"); got != "/jane" {
		t.Errorf("author = %q, want %q", got, "/jane")
	}
	if n, ok := x.Count(ctx, post, CSS("likes", "[data-testid='like'] span")); !ok || n != 1234 {
		t.Errorf("likes = %d, %v", n, ok)
	}
	if n, ok := x.Count(ctx, post, CSS("reposts", "[data-testid='retweet'] span", "[aria-label*='Repost'] span")); ok {
		t.Errorf("reposts = %d, want not found", n)
	}
}

// --- Clean Tests ---

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  a   b ", "a b"},
		{"\ufeffhi\u200c", "hi"},
		{"line\n\tnext", "line next"},
		{"a\u00a0b", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Clean(tt.in); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

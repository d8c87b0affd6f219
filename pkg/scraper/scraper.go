// Package scraper builds posts and profiles from the rendered site using an
// authenticated browser session.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/extract"
)

// ErrNotAuthenticated indicates the session could not be established.
var ErrNotAuthenticated = errors.New("not authenticated")

// Authenticator is the part of *session.Authenticator the scraper uses.
type Authenticator interface {
	EnsureLoggedIn(ctx context.Context) bool
	LastError() error
}

// Defaults for the scroll loop.
const (
	DefaultMaxScrolls   = 15
	DefaultScrollPixels = 2000
	DefaultPageTimeout  = 15 * time.Second
	staleRoundsLimit    = 2
)

// Scraper reads posts and profiles through a driver.
type Scraper struct {
	driver   browser.Driver
	auth     Authenticator
	x        *extract.Extractor
	limiter  *rate.Limiter
	posts    PostSelectors
	profiles ProfileSelectors
	log      *slog.Logger
	now      func() time.Time

	maxScrolls   int
	scrollPixels int
	pageTimeout  time.Duration
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithRateLimit paces navigations and scrolls.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(s *Scraper) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// WithMaxScrolls bounds the scroll loop.
func WithMaxScrolls(n int) Option {
	return func(s *Scraper) {
		s.maxScrolls = n
	}
}

// WithPageTimeout bounds the wait for the first content after navigation.
func WithPageTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.pageTimeout = d
	}
}

// WithPostSelectors replaces the post locators.
func WithPostSelectors(sel PostSelectors) Option {
	return func(s *Scraper) {
		s.posts = sel
	}
}

// WithProfileSelectors replaces the profile locators.
func WithProfileSelectors(sel ProfileSelectors) Option {
	return func(s *Scraper) {
		s.profiles = sel
	}
}

// WithClock sets the time source for ScrapedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		s.now = now
	}
}

// New creates a Scraper. auth may be nil for pages that need no login.
func New(driver browser.Driver, auth Authenticator, opts ...Option) *Scraper {
	s := &Scraper{
		driver:       driver,
		auth:         auth,
		limiter:      rate.NewLimiter(rate.Every(2*time.Second), 1),
		posts:        DefaultPostSelectors(),
		profiles:     DefaultProfileSelectors(),
		log:          logger.With("component", "scraper"),
		now:          time.Now,
		maxScrolls:   DefaultMaxScrolls,
		scrollPixels: DefaultScrollPixels,
		pageTimeout:  DefaultPageTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.x = extract.New(extract.WithLogger(s.log))
	return s
}

// SearchOptions controls SearchPosts.
type SearchOptions struct {
	Limit  int
	Latest bool
}

// SearchPosts returns up to opts.Limit posts matching query.
func (s *Scraper) SearchPosts(ctx context.Context, query string, opts SearchOptions) ([]Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("empty search query")
	}
	if err := s.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}
	if err := s.open(ctx, SearchURL(query, opts.Latest)); err != nil {
		return nil, err
	}
	return s.collect(ctx, opts.Limit)
}

// UserPosts returns up to limit posts from username's timeline.
func (s *Scraper) UserPosts(ctx context.Context, username string, limit int) ([]Post, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := s.ensureLoggedIn(ctx); err != nil {
		return nil, err
	}
	if err := s.open(ctx, ProfileURL(username)); err != nil {
		return nil, err
	}
	return s.collect(ctx, limit)
}

// Profile reads the profile header of username. When posts > 0 the
// profile's recent posts are collected too.
func (s *Scraper) Profile(ctx context.Context, username string, posts int) (Profile, error) {
	if err := ValidateUsername(username); err != nil {
		return Profile{}, err
	}
	if err := s.ensureLoggedIn(ctx); err != nil {
		return Profile{}, err
	}

	u := NormalizeUsername(username)
	if err := s.open(ctx, ProfileURL(u)); err != nil {
		return Profile{}, err
	}
	s.driver.WaitUntil(ctx, func(ctx context.Context) bool {
		return s.x.Present(ctx, s.driver, s.profiles.Ready)
	}, s.pageTimeout)

	p := s.parseProfile(ctx, u)
	if posts > 0 {
		collected, err := s.collect(ctx, posts)
		if err != nil {
			return p, err
		}
		p.Posts = collected
	}
	return p, nil
}

func (s *Scraper) parseProfile(ctx context.Context, username string) Profile {
	sel := s.profiles
	p := Profile{
		Username:    username,
		URL:         ProfileURL(username),
		DisplayName: s.x.FirstText(ctx, s.driver, sel.DisplayName),
		Bio:         s.x.Text(ctx, s.driver, sel.Bio),
		Location:    s.x.Text(ctx, s.driver, sel.Location),
		JoinDate:    s.x.Text(ctx, s.driver, sel.JoinDate),
		Verified:    s.x.Present(ctx, s.driver, sel.Verified),
		Following:   s.count(ctx, s.driver, sel.Following),
		Followers:   s.count(ctx, s.driver, sel.Followers),
		ScrapedAt:   s.now().UTC(),
	}
	if href := s.x.Attribute(ctx, s.driver, sel.Website, "href"); href != "" {
		p.Website = href
	} else {
		p.Website = s.x.Text(ctx, s.driver, sel.Website)
	}
	return p
}

func (s *Scraper) ensureLoggedIn(ctx context.Context) error {
	if s.auth == nil {
		return nil
	}
	if !s.auth.EnsureLoggedIn(ctx) {
		if err := s.auth.LastError(); err != nil {
			return fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
		}
		return ErrNotAuthenticated
	}
	return nil
}

func (s *Scraper) open(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := s.driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

// collect reads posts from the current page, scrolling for more until limit
// posts are found, the scroll budget is spent or scrolling stops yielding
// new posts. limit <= 0 means no limit.
func (s *Scraper) collect(ctx context.Context, limit int) ([]Post, error) {
	if !s.driver.WaitUntil(ctx, func(ctx context.Context) bool {
		return s.x.Present(ctx, s.driver, s.posts.Container)
	}, s.pageTimeout) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.log.Info("no posts found on page")
		return nil, nil
	}

	seen := newSeenSet()
	var out []Post
	stale := 0

	for round := 0; ; round++ {
		added := 0
		for _, el := range s.x.All(ctx, s.driver, s.posts.Container) {
			p, ok := s.parsePost(ctx, el)
			if !ok || !seen.Add(p) {
				continue
			}
			out = append(out, p)
			added++
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		s.log.Debug("scroll round", "round", round, "new", added, "total", len(out))

		if added == 0 {
			stale++
		} else {
			stale = 0
		}
		if stale >= staleRoundsLimit || round >= s.maxScrolls {
			break
		}

		scroller, ok := s.driver.(browser.Scroller)
		if !ok {
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return out, err
		}
		if err := scroller.ScrollBy(ctx, s.scrollPixels); err != nil {
			s.log.Warn("scroll failed", "error", err)
			break
		}
	}
	return out, nil
}

// parsePost reads one post container. Promoted posts and containers without
// text or link are rejected.
func (s *Scraper) parsePost(ctx context.Context, el browser.Element) (Post, bool) {
	sel := s.posts
	if s.x.Present(ctx, el, sel.Promoted) {
		return Post{}, false
	}

	p := Post{
		Text:       s.x.Text(ctx, el, sel.Text),
		AuthorName: s.x.FirstText(ctx, el, sel.AuthorName),
		Replies:    s.count(ctx, el, sel.Replies),
		Reposts:    s.count(ctx, el, sel.Reposts),
		Likes:      s.count(ctx, el, sel.Likes),
		Views:      s.count(ctx, el, sel.Views),
		ScrapedAt:  s.now().UTC(),
	}

	if href := s.x.Attribute(ctx, el, sel.AuthorLink, "href"); href != "" {
		p.Author = strings.Trim(href, "/")
		if i := strings.IndexByte(p.Author, '/'); i >= 0 {
			p.Author = p.Author[:i]
		}
	}
	if dt := s.x.Attribute(ctx, el, sel.Time, "datetime"); dt != "" {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			p.CreatedAt = &t
		}
	}
	if href := s.x.Attribute(ctx, el, sel.StatusLink, "href"); href != "" {
		p.URL = normalizeURL(href)
		if parsed, err := ParseURL(p.URL); err == nil && parsed.Kind == KindStatus {
			p.ID = parsed.StatusID
			if p.Author == "" {
				p.Author = parsed.Username
			}
		}
	}

	p.Hashtags = findAll(hashtagPattern, p.Text)
	p.Mentions = findAll(mentionPattern, p.Text)

	if p.Text == "" && p.URL == "" {
		return Post{}, false
	}
	return p, true
}

func (s *Scraper) count(ctx context.Context, scope browser.Scope, q extract.Query) *int64 {
	n, ok := s.x.Count(ctx, scope, q)
	if !ok {
		return nil
	}
	return &n
}

var (
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	mentionPattern = regexp.MustCompile(`@(\w{1,15})`)
)

// findAll returns the distinct first submatches of re in text, in order.
func findAll(re *regexp.Regexp, text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

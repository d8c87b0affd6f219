package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// BaseURL is the canonical site origin.
const BaseURL = "https://x.com"

// ErrInvalidUsername indicates a handle that cannot exist on the site.
var ErrInvalidUsername = errors.New("invalid username")

// ErrNotSiteURL indicates a URL outside the site.
var ErrNotSiteURL = errors.New("not a site URL")

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
	allDigits       = regexp.MustCompile(`^[0-9]+$`)
	statusIDPattern = regexp.MustCompile(`^[0-9]+$`)
)

var siteHosts = map[string]bool{
	"x.com":              true,
	"www.x.com":          true,
	"mobile.x.com":       true,
	"twitter.com":        true,
	"www.twitter.com":    true,
	"mobile.twitter.com": true,
}

// Top-level paths that look like handles but are site pages.
var reservedPaths = map[string]bool{
	"home": true, "explore": true, "notifications": true, "messages": true,
	"settings": true, "search": true, "hashtag": true, "i": true,
	"login": true, "logout": true, "compose": true, "tos": true, "privacy": true,
}

// NormalizeUsername strips a leading @ and surrounding space.
func NormalizeUsername(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}

// ValidateUsername checks that s (with or without @) is a possible handle:
// 1-15 letters, digits or underscores, not all digits.
func ValidateUsername(s string) error {
	u := NormalizeUsername(s)
	if !usernamePattern.MatchString(u) || allDigits.MatchString(u) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, s)
	}
	return nil
}

// SearchURL returns the search page for query. Latest selects the
// reverse-chronological tab.
func SearchURL(query string, latest bool) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("src", "typed_query")
	if latest {
		v.Set("f", "live")
	}
	return BaseURL + "/search?" + v.Encode()
}

// ProfileURL returns the profile page for username.
func ProfileURL(username string) string {
	return BaseURL + "/" + NormalizeUsername(username)
}

// Kind classifies a site URL.
type Kind string

const (
	KindHome    Kind = "home"
	KindProfile Kind = "profile"
	KindStatus  Kind = "status"
	KindSearch  Kind = "search"
	KindHashtag Kind = "hashtag"
	KindOther   Kind = "other"
)

// ParsedURL is the result of ParseURL.
type ParsedURL struct {
	Kind     Kind
	Username string
	StatusID string
	Query    string
	Hashtag  string
}

// ParseURL classifies raw, accepting x.com and twitter.com hosts including
// the www and mobile variants.
func ParseURL(raw string) (ParsedURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ParsedURL{}, fmt.Errorf("parse url: %w", err)
	}
	if !siteHosts[strings.ToLower(u.Hostname())] {
		return ParsedURL{}, fmt.Errorf("%w: %s", ErrNotSiteURL, raw)
	}

	parts := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	switch {
	case len(parts) == 0 || (len(parts) == 1 && parts[0] == "home"):
		return ParsedURL{Kind: KindHome}, nil
	case parts[0] == "search":
		return ParsedURL{Kind: KindSearch, Query: u.Query().Get("q")}, nil
	case parts[0] == "hashtag" && len(parts) > 1:
		return ParsedURL{Kind: KindHashtag, Hashtag: parts[1]}, nil
	case len(parts) >= 3 && parts[1] == "status" && statusIDPattern.MatchString(parts[2]):
		return ParsedURL{Kind: KindStatus, Username: parts[0], StatusID: parts[2]}, nil
	case !reservedPaths[strings.ToLower(parts[0])] && ValidateUsername(parts[0]) == nil:
		return ParsedURL{Kind: KindProfile, Username: parts[0]}, nil
	default:
		return ParsedURL{Kind: KindOther}, nil
	}
}

// normalizeURL resolves href against the site origin and canonicalises the
// host so that the same post seen through different links compares equal.
func normalizeURL(href string) string {
	base, _ := url.Parse(BaseURL)
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !parsed.IsAbs() {
		parsed = base.ResolveReference(parsed)
	}
	if siteHosts[strings.ToLower(parsed.Hostname())] {
		parsed.Host = base.Host
		parsed.Scheme = base.Scheme
	}

	parsed.Fragment = ""
	parsed.RawQuery = ""

	if len(parsed.Path) > 1 && parsed.Path[len(parsed.Path)-1] == '/' {
		parsed.Path = parsed.Path[:len(parsed.Path)-1]
	}

	return parsed.String()
}

package scraper

import (
	"errors"
	"net/url"
	"testing"
)

// --- Username Tests ---

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"jack", false},
		{"@jack", false},
		{" under_score1 ", false},
		{"a", false},
		{"abcdefghijklmno", false},
		{"abcdefghijklmnop", true},
		{"", true},
		{"@", true},
		{"12345", true},
		{"has space", true},
		{"dash-name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidUsername) {
				t.Errorf("error %v should wrap ErrInvalidUsername", err)
			}
		})
	}
}

// --- URL Builder Tests ---

func TestSearchURL(t *testing.T) {
	u, err := url.Parse(SearchURL("go lang #fast", true))
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	if u.Host != "x.com" || u.Path != "/search" {
		t.Errorf("SearchURL host/path = %s%s", u.Host, u.Path)
	}
	q := u.Query()
	if q.Get("q") != "go lang #fast" {
		t.Errorf("q = %q", q.Get("q"))
	}
	if q.Get("f") != "live" {
		t.Errorf("f = %q, want live", q.Get("f"))
	}

	u, _ = url.Parse(SearchURL("go", false))
	if u.Query().Has("f") {
		t.Error("top results should not set f")
	}
}

func TestProfileURL(t *testing.T) {
	if got := ProfileURL("@jack"); got != "https://x.com/jack" {
		t.Errorf("ProfileURL() = %q", got)
	}
}

// --- ParseURL Tests ---

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want ParsedURL
	}{
		{"https://x.com", ParsedURL{Kind: KindHome}},
		{"https://x.com/home", ParsedURL{Kind: KindHome}},
		{"https://twitter.com/jack", ParsedURL{Kind: KindProfile, Username: "jack"}},
		{"https://mobile.twitter.com/jack/status/20", ParsedURL{Kind: KindStatus, Username: "jack", StatusID: "20"}},
		{"https://www.x.com/jack/status/20/photo/1", ParsedURL{Kind: KindStatus, Username: "jack", StatusID: "20"}},
		{"https://x.com/search?q=golang&f=live", ParsedURL{Kind: KindSearch, Query: "golang"}},
		{"https://x.com/hashtag/golang", ParsedURL{Kind: KindHashtag, Hashtag: "golang"}},
		{"https://x.com/explore", ParsedURL{Kind: KindOther}},
		{"https://x.com/i/flow/login", ParsedURL{Kind: KindOther}},
		{"https://x.com/jack/status/abc", ParsedURL{Kind: KindProfile, Username: "jack"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseURL(tt.raw)
			if err != nil {
				t.Fatalf("ParseURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseURL() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseURL_ForeignHost(t *testing.T) {
	_, err := ParseURL("https://example.com/jack")
	if !errors.Is(err, ErrNotSiteURL) {
		t.Errorf("error = %v, want ErrNotSiteURL", err)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/jack/status/1", "https://x.com/jack/status/1"},
		{"https://twitter.com/jack/status/1?s=20#frag", "https://x.com/jack/status/1"},
		{"https://x.com/jack/", "https://x.com/jack"},
		{"https://example.com/a/", "https://example.com/a"},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

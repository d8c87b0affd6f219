// Package cookiestore persists session cookies per account.
//
// Each Store is keyed by an owner identifier and writes a single JSON file.
// Writes are staged through a temporary file and the previous file is kept
// as a backup, so a reader sees either the old or the new cookie set and
// never a partial one. The store has no file lock: two stores sharing an
// owner and directory must not write concurrently.
package cookiestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/jmylchreest/xscrape/internal/fsutil"
	"github.com/jmylchreest/xscrape/internal/logger"
	"github.com/jmylchreest/xscrape/pkg/browser"
)

const (
	// DefaultFileName is used when no owner identifier is given.
	DefaultFileName = "session_cookies.json"

	// DefaultExpiryBuffer treats cookies expiring this soon as already expired.
	DefaultExpiryBuffer = 5 * time.Minute

	maxOwnerLen = 64
	backupExt   = ".bak"
	tmpExt      = ".tmp"
)

// DefaultDomains are the site domains whose cookies are kept.
var DefaultDomains = []string{"x.com", "twitter.com"}

// DefaultAllowedNames are session cookies kept regardless of domain.
var DefaultAllowedNames = []string{
	"auth_token",
	"ct0",
	"twid",
	"kdt",
	"att",
	"guest_id",
	"personalization_id",
	"auth_multi",
}

// Error types for store failures.
var (
	// ErrNoRelevantCookies indicates filtering left nothing to save.
	ErrNoRelevantCookies = errors.New("no relevant cookies to save")
	// ErrVerify indicates a written file could not be read back.
	ErrVerify = errors.New("cookie file verification failed")
)

// CookieSet is the on-disk envelope.
type CookieSet struct {
	Timestamp time.Time        `json:"timestamp"`
	Owner     *string          `json:"user_identifier"`
	Count     int              `json:"cookie_count"`
	Cookies   []browser.Cookie `json:"cookies"`
}

// Empty reports whether the set holds no cookies.
func (s CookieSet) Empty() bool {
	return len(s.Cookies) == 0
}

// Store is a file-backed cookie store for one owner.
type Store struct {
	fs      afero.Fs
	dir     string
	owner   string
	path    string
	domains []string
	allowed map[string]struct{}
	buffer  time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// WithDomains replaces the list of site domains whose cookies are kept.
func WithDomains(domains ...string) Option {
	return func(s *Store) {
		s.domains = domains
	}
}

// WithAllowedNames replaces the cookie-name allow-list.
func WithAllowedNames(names ...string) Option {
	return func(s *Store) {
		s.allowed = nameSet(names)
	}
}

// WithExpiryBuffer sets how close to expiry a cookie counts as expired.
func WithExpiryBuffer(d time.Duration) Option {
	return func(s *Store) {
		s.buffer = d
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store writing into dir for owner. An empty owner uses
// DefaultFileName.
func New(dir, owner string, opts ...Option) *Store {
	s := &Store{
		fs:      afero.NewOsFs(),
		dir:     dir,
		owner:   strings.TrimSpace(owner),
		domains: DefaultDomains,
		allowed: nameSet(DefaultAllowedNames),
		buffer:  DefaultExpiryBuffer,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.path = filepath.Join(dir, FileName(s.owner))
	return s
}

// FileName returns the cookie file name used for owner.
func FileName(owner string) string {
	key := fsutil.SafeFilename(strings.ToLower(strings.TrimSpace(owner)), maxOwnerLen)
	if key == "" {
		return DefaultFileName
	}
	return "cookies_" + key + ".json"
}

// Path returns the cookie file path.
func (s *Store) Path() string {
	return s.path
}

// BackupPath returns the path of the previous cookie file.
func (s *Store) BackupPath() string {
	return s.path + backupExt
}

// Filter keeps cookies whose domain belongs to the site or whose name is on
// the allow-list.
func (s *Store) Filter(cookies []browser.Cookie) []browser.Cookie {
	out := make([]browser.Cookie, 0, len(cookies))
	for _, c := range cookies {
		if _, ok := s.allowed[c.Name]; ok || s.matchesDomain(c.Domain) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) matchesDomain(domain string) bool {
	d := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "."))
	if d == "" {
		return false
	}
	for _, site := range s.domains {
		site = strings.ToLower(strings.TrimPrefix(site, "."))
		if d == site || strings.HasSuffix(d, "."+site) {
			return true
		}
	}
	return false
}

// Save filters cookies and replaces the stored set. On failure the previous
// file is restored, or removed if there was none.
func (s *Store) Save(cookies []browser.Cookie) error {
	kept := s.Filter(cookies)
	if len(kept) == 0 {
		logger.Warn("no relevant cookies to save", "received", len(cookies))
		return ErrNoRelevantCookies
	}

	set := CookieSet{
		Timestamp: s.now().UTC(),
		Count:     len(kept),
		Cookies:   kept,
	}
	if s.owner != "" {
		owner := s.owner
		set.Owner = &owner
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}

	hadPrior, err := afero.Exists(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("stat cookie file: %w", err)
	}
	if hadPrior {
		if err := s.copyFile(s.path, s.BackupPath()); err != nil {
			return fmt.Errorf("backup cookie file: %w", err)
		}
	}

	if err := s.write(data); err != nil {
		s.rollback(hadPrior)
		return err
	}

	logger.Debug("cookies saved", "path", s.path, "count", len(kept), "dropped", len(cookies)-len(kept))
	return nil
}

// write stages data in a temporary file, verifies it, then moves it into place.
func (s *Store) write(data []byte) error {
	tmp := s.path + tmpExt
	defer func() { _ = s.fs.Remove(tmp) }()

	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	if err := s.verify(tmp); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace cookie file: %w", err)
	}
	return s.verify(s.path)
}

// verify checks that path is non-empty and holds at least one cookie.
func (s *Store) verify(path string) error {
	info, err := s.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrVerify, path)
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	set, ok := decode(data)
	if !ok || set.Empty() {
		return fmt.Errorf("%w: %s holds no cookies", ErrVerify, path)
	}
	return nil
}

func (s *Store) rollback(hadPrior bool) {
	if hadPrior {
		if err := s.copyFile(s.BackupPath(), s.path); err != nil {
			logger.Error("failed to restore cookie backup", "path", s.path, "error", err)
			return
		}
		logger.Warn("cookie save failed, previous cookies restored", "path", s.path)
		return
	}
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		logger.Error("failed to remove incomplete cookie file", "path", s.path, "error", err)
	}
}

func (s *Store) copyFile(src, dst string) error {
	data, err := afero.ReadFile(s.fs, src)
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, dst, data, 0o600)
}

// Load returns the stored set. A missing, unreadable or malformed file
// yields an empty set.
func (s *Store) Load() CookieSet {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read cookie file", "path", s.path, "error", err)
		}
		return CookieSet{}
	}
	set, ok := decode(data)
	if !ok {
		logger.Warn("ignoring malformed cookie file", "path", s.path)
		return CookieSet{}
	}
	return set
}

// decode accepts the envelope or a legacy bare array of cookies.
func decode(data []byte) (CookieSet, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return CookieSet{}, false
	}

	switch data[0] {
	case '[':
		var cookies []fileCookie
		if err := json.Unmarshal(data, &cookies); err != nil {
			return CookieSet{}, false
		}
		set := CookieSet{Cookies: toCookies(cookies)}
		set.Count = len(set.Cookies)
		return set, true
	case '{':
		var raw struct {
			Timestamp json.RawMessage `json:"timestamp"`
			Owner     *string         `json:"user_identifier"`
			Count     int             `json:"cookie_count"`
			Cookies   *[]fileCookie   `json:"cookies"`
		}
		if err := json.Unmarshal(data, &raw); err != nil || raw.Cookies == nil {
			return CookieSet{}, false
		}
		return CookieSet{
			Timestamp: parseTimestamp(raw.Timestamp),
			Owner:     raw.Owner,
			Count:     raw.Count,
			Cookies:   toCookies(*raw.Cookies),
		}, true
	default:
		return CookieSet{}, false
	}
}

// fileCookie reads an expiry written as any JSON number.
type fileCookie struct {
	browser.Cookie
	Expiry *json.Number `json:"expiry,omitempty"`
}

func toCookies(in []fileCookie) []browser.Cookie {
	out := make([]browser.Cookie, len(in))
	for i, fc := range in {
		c := fc.Cookie
		c.Expiry = nil
		if fc.Expiry != nil {
			if v, err := fc.Expiry.Int64(); err == nil {
				c.Expiry = &v
			} else if f, err := fc.Expiry.Float64(); err == nil {
				v := int64(f)
				c.Expiry = &v
			}
		}
		out[i] = c
	}
	return out
}

// timestampLayouts are tried in order. Layouts without an offset are read as
// local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp returns the zero time when raw is absent or unparseable.
func parseTimestamp(raw json.RawMessage) time.Time {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

// IsExpired reports whether cookies is empty or any cookie expires within
// the expiry buffer. Session cookies never count as expired.
func (s *Store) IsExpired(cookies []browser.Cookie) bool {
	if len(cookies) == 0 {
		return true
	}
	limit := s.now().Add(s.buffer).Unix()
	for _, c := range cookies {
		if c.Expiry != nil && *c.Expiry <= limit {
			logger.Debug("cookie expired or expiring", "name", c.Name, "expiry", *c.Expiry)
			return true
		}
	}
	return false
}

// HasValidCookies reports whether a non-empty, unexpired set is stored.
func (s *Store) HasValidCookies() bool {
	set := s.Load()
	return !set.Empty() && !s.IsExpired(set.Cookies)
}

// Clear removes the cookie file and its backup. Missing files are not an error.
func (s *Store) Clear() error {
	var errs []error
	for _, p := range []string{s.path, s.BackupPath(), s.path + tmpExt} {
		if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Debug("cookie store cleared", "path", s.path)
	return nil
}

func nameSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

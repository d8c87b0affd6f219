package session

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/xscrape/pkg/cookiestore"
)

// State is a step of the login state machine.
type State int

const (
	StateUnauthenticated State = iota
	StateCookieRestoreAttempted
	StateIdentifying
	StateChallengeOptional
	StateAuthenticating
	StateTwoFactorOptional
	StateVerifying
	StateAuthenticated
	StateFailed
)

var stateNames = [...]string{
	StateUnauthenticated:        "unauthenticated",
	StateCookieRestoreAttempted: "cookie_restore_attempted",
	StateIdentifying:            "identifying",
	StateChallengeOptional:      "challenge_optional",
	StateAuthenticating:         "authenticating",
	StateTwoFactorOptional:      "two_factor_optional",
	StateVerifying:              "verifying",
	StateAuthenticated:          "authenticated",
	StateFailed:                 "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the machine stops in s.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed
}

// Credentials identify the account. They are never persisted or logged.
type Credentials struct {
	Identifier string // email or handle typed into the first field
	Handle     string // answers the "confirm your identity" step
	Secret     string
}

// User returns the name recorded for an authenticated session.
func (c Credentials) User() string {
	if c.Handle != "" {
		return c.Handle
	}
	return c.Identifier
}

// LogValue implements slog.LogValuer and never exposes the secret.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("identifier", c.Identifier),
		slog.String("handle", c.Handle),
		slog.Bool("has_secret", c.Secret != ""),
	)
}

// SessionState is the Authenticator's view of the current session.
type SessionState struct {
	IsAuthenticated bool
	CurrentUser     string
	Cookies         *cookiestore.CookieSet
	AuthenticatedAt time.Time
}

package session

import (
	"context"
	"strings"

	"github.com/jmylchreest/xscrape/pkg/browser"
)

// detectChallenge reports the kind of anti-bot challenge on the current page,
// or "" when none is found. DOM markers are checked first; the title and page
// source only when withSource is set.
func (a *Authenticator) detectChallenge(ctx context.Context, withSource bool) string {
	if _, loc, ok := a.x.First(ctx, a.driver, a.cfg.Selectors.Challenge); ok {
		return challengeKind(loc)
	}
	if !withSource {
		return ""
	}

	title, _ := a.driver.Title(ctx)
	html, err := a.driver.PageSource(ctx)
	if err != nil {
		a.log.Debug("page source unavailable for challenge check", "error", err)
	}
	return detectChallengePage(title, html)
}

func challengeKind(loc browser.Locator) string {
	v := strings.ToLower(loc.Value)
	switch {
	case strings.Contains(v, "arkose"):
		return "arkose"
	case strings.Contains(v, "recaptcha"):
		return "recaptcha"
	case strings.Contains(v, "challenge-running"):
		return "cloudflare"
	default:
		return "captcha"
	}
}

// detectChallengePage checks if the page content indicates a challenge/CAPTCHA page.
func detectChallengePage(title, html string) string {
	titleLower := strings.ToLower(title)
	htmlLower := strings.ToLower(html)

	// Cloudflare challenges
	if strings.Contains(titleLower, "just a moment") ||
		strings.Contains(titleLower, "attention required") ||
		strings.Contains(htmlLower, "cf-challenge") ||
		strings.Contains(htmlLower, "cf_chl_opt") {
		return "cloudflare"
	}

	if strings.Contains(htmlLower, "challenges.cloudflare.com/turnstile") ||
		strings.Contains(htmlLower, "cf-turnstile") {
		return "cloudflare-turnstile"
	}

	// Arkose Labs / FunCaptcha, used on the login flow
	if strings.Contains(htmlLower, "arkoselabs.com") ||
		strings.Contains(htmlLower, "funcaptcha") {
		return "arkose"
	}

	if strings.Contains(htmlLower, "hcaptcha.com") ||
		strings.Contains(htmlLower, "h-captcha") {
		return "hcaptcha"
	}

	if strings.Contains(htmlLower, "google.com/recaptcha") ||
		strings.Contains(htmlLower, "g-recaptcha") {
		return "recaptcha"
	}

	// Generic bot detection pages
	if strings.Contains(titleLower, "access denied") ||
		strings.Contains(titleLower, "bot detection") ||
		strings.Contains(htmlLower, "robot or human") {
		return "anti-bot"
	}

	return ""
}

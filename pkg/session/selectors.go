package session

import (
	"github.com/jmylchreest/xscrape/pkg/browser"
	"github.com/jmylchreest/xscrape/pkg/extract"
)

// Selectors holds the ordered locator candidates for every element the login
// flow touches.
type Selectors struct {
	Identifier      extract.Query
	ConfirmIdentity extract.Query
	Secret          extract.Query
	TwoFactor       extract.Query
	// EmailConfirmation fields take a code mailed to the account. They are
	// tried after TwoFactor in the same step.
	EmailConfirmation extract.Query
	Next              extract.Query
	Authenticated     extract.Query
	Challenge         extract.Query
}

// DefaultSelectors returns the locators for the x.com login flow.
func DefaultSelectors() Selectors {
	return Selectors{
		Identifier: extract.CSS("identifier field",
			"input[autocomplete='username']",
			"input[name='text']",
		),
		ConfirmIdentity: extract.CSS("confirm identity field",
			"input[data-testid='ocfEnterTextTextInput']",
		),
		Secret: extract.CSS("password field",
			"input[autocomplete='current-password']",
			"input[name='password']",
			"input[type='password']",
		),
		TwoFactor: extract.CSS("verification code field",
			"input[data-testid='ocfEnterTextTextInput']",
			"input[autocomplete='one-time-code']",
		),
		EmailConfirmation: extract.CSS("email confirmation field",
			"input[placeholder*='email']",
			"input[type='email']",
			"input[name='email']",
		),
		Next: extract.NewQuery("next button",
			browser.XPath("//span[text()='Next']/ancestor::button"),
			browser.CSS("[data-testid='LoginForm_Login_Button']"),
			browser.CSS("button[data-testid='ocfEnterTextNextButton']"),
			browser.CSS("button[type='submit']"),
		),
		Authenticated: extract.CSS("authenticated marker",
			"[data-testid='primaryColumn']",
			"[data-testid='AppTabBar_Home_Link']",
			"[data-testid='SideNav_AccountSwitcher_Button']",
		),
		Challenge: extract.CSS("challenge marker",
			"#challenge-running",
			".captcha",
			"[data-testid='captcha']",
			"iframe[src*='captcha']",
			"iframe[src*='recaptcha']",
			".recaptcha",
			"#recaptcha",
			"[aria-label*='captcha']",
			".arkose-challenge",
			"#arkose-challenge",
			"[data-arkose]",
		),
	}
}

// verificationCode is the TwoFactor candidates followed by the
// EmailConfirmation candidates.
func (s Selectors) verificationCode() extract.Query {
	candidates := make([]browser.Locator, 0, len(s.TwoFactor.Candidates)+len(s.EmailConfirmation.Candidates))
	candidates = append(candidates, s.TwoFactor.Candidates...)
	candidates = append(candidates, s.EmailConfirmation.Candidates...)
	return extract.NewQuery("verification code field", candidates...)
}

// isEmailConfirmation reports whether loc is one of the EmailConfirmation
// candidates.
func (s Selectors) isEmailConfirmation(loc browser.Locator) bool {
	for _, c := range s.EmailConfirmation.Candidates {
		if c == loc {
			return true
		}
	}
	return false
}

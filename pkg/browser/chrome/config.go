// Package chrome implements browser.Driver with chromedp, driving a single
// long-lived Chrome tab.
package chrome

import (
	"time"
)

// Config holds configuration for the Chrome driver.
type Config struct {
	ExecPath      string        // Chrome binary; searched for when empty
	UserAgent     string
	Headless      bool
	ProxyURL      string        // e.g. socks5://127.0.0.1:9050
	WindowWidth   int
	WindowHeight  int
	ActionTimeout time.Duration // Upper bound for a single driver call
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent:     defaultUserAgent,
		Headless:      true,
		WindowWidth:   1920,
		WindowHeight:  1080,
		ActionTimeout: 30 * time.Second,
	}
}

// Chrome user agent for better compatibility
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

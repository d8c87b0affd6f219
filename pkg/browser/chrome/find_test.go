package chrome

import (
	"errors"
	"testing"
)

// --- FindChromePath Tests ---

func TestFindChromePath_FirstHit(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(name string) (string, error) {
		if name == "chromium" {
			return "/usr/bin/chromium", nil
		}
		return "", errors.New("not found")
	}

	if got := FindChromePath(); got != "/usr/bin/chromium" {
		t.Errorf("FindChromePath() = %q, want %q", got, "/usr/bin/chromium")
	}
}

func TestFindChromePath_NotFound(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	if got := FindChromePath(); got != "" {
		t.Errorf("FindChromePath() = %q, want empty", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Headless {
		t.Error("expected headless by default")
	}
	if cfg.ActionTimeout <= 0 {
		t.Errorf("ActionTimeout = %v, want positive", cfg.ActionTimeout)
	}
	if cfg.UserAgent == "" {
		t.Error("expected a default user agent")
	}
}

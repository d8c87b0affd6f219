// Package config loads xscrape settings from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/xscrape/pkg/browser/chrome"
	"github.com/jmylchreest/xscrape/pkg/session"
)

// EnvPrefix is prepended to every environment variable, e.g.
// XSCRAPE_ACCOUNT_IDENTIFIER.
const EnvPrefix = "XSCRAPE"

// FileName is the config file base name searched in $HOME and ".".
const FileName = ".xscrape"

// Config is the full configuration.
type Config struct {
	Account       Account       `mapstructure:"account"`
	CookieDir     string        `mapstructure:"cookie_dir" validate:"required,cookiedir"`
	Headless      bool          `mapstructure:"headless"`
	ChromePath    string        `mapstructure:"chrome_path" validate:"omitempty,file"`
	UserAgent     string        `mapstructure:"user_agent"`
	Proxy         string        `mapstructure:"proxy" validate:"omitempty,url"`
	Timeouts      Timeouts      `mapstructure:"timeouts"`
	FieldAttempts int           `mapstructure:"field_attempts" validate:"min=1,max=10"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff" validate:"gte=0"`
	TwoFactor     TwoFactor     `mapstructure:"two_factor"`
	ScreenshotDir string        `mapstructure:"screenshot_dir"`
	Rate          Rate          `mapstructure:"rate"`
	Log           Log           `mapstructure:"log"`
}

// Account holds login credentials. Secret is usually empty in files and
// resolved from the environment or keyring.
type Account struct {
	Identifier string `mapstructure:"identifier"`
	Handle     string `mapstructure:"handle" validate:"omitempty,max=15"`
	Secret     string `mapstructure:"secret"`
}

// Timeouts bound browser waits.
type Timeouts struct {
	Field  time.Duration `mapstructure:"field" validate:"gt=0"`
	Probe  time.Duration `mapstructure:"probe" validate:"gt=0"`
	Verify time.Duration `mapstructure:"verify" validate:"gt=0"`
	Action time.Duration `mapstructure:"action" validate:"gt=0"`
}

// TwoFactor controls the optional verification-code step.
type TwoFactor struct {
	Enabled bool `mapstructure:"enabled"`
}

// Rate paces page loads.
type Rate struct {
	PerSecond float64 `mapstructure:"per_second" validate:"gt=0"`
	Burst     int     `mapstructure:"burst" validate:"min=1"`
}

// Log configures internal/logger.
type Log struct {
	Debug bool   `mapstructure:"debug"`
	Quiet bool   `mapstructure:"quiet"`
	JSON  bool   `mapstructure:"json"`
	File  string `mapstructure:"file"`
}

// DefaultCookieDir returns the per-user cookie directory.
func DefaultCookieDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "xscrape")
	}
	return ".xscrape"
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	sc := session.DefaultConfig()
	cc := chrome.DefaultConfig()

	v.SetDefault("cookie_dir", DefaultCookieDir())
	v.SetDefault("headless", cc.Headless)
	v.SetDefault("timeouts.field", sc.FieldTimeout)
	v.SetDefault("timeouts.probe", sc.ProbeTimeout)
	v.SetDefault("timeouts.verify", sc.VerifyTimeout)
	v.SetDefault("timeouts.action", cc.ActionTimeout)
	v.SetDefault("field_attempts", sc.FieldAttempts)
	v.SetDefault("retry_backoff", sc.RetryBackoff)
	v.SetDefault("two_factor.enabled", true)
	v.SetDefault("rate.per_second", 0.5)
	v.SetDefault("rate.burst", 1)
}

// Setup prepares v to read the config file, the environment and defaults.
// cfgFile overrides the search path when non-empty.
func Setup(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nested keys without a default are invisible to AutomaticEnv on Unmarshal.
	for _, key := range []string{"account.identifier", "account.handle", "account.secret", "chrome_path", "user_agent", "proxy", "screenshot_dir", "log.file"} {
		_ = v.BindEnv(key)
	}

	SetDefaults(v)
}

// Read loads the config file if one exists. A missing file is not an error.
func Read(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CookieDir = expandHome(cfg.CookieDir)
	cfg.ScreenshotDir = expandHome(cfg.ScreenshotDir)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("cookiedir", validateCookieDir)
	return v
}

// validateCookieDir accepts a path that is either an existing directory or
// does not exist yet. A regular file in the way is rejected.
func validateCookieDir(fl validator.FieldLevel) bool {
	info, err := os.Stat(fl.Field().String())
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	return info.IsDir()
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Credentials returns the session credentials. The secret must already be
// resolved.
func (c *Config) Credentials() session.Credentials {
	return session.Credentials{
		Identifier: c.Account.Identifier,
		Handle:     c.Account.Handle,
		Secret:     c.Account.Secret,
	}
}

// Session returns the authenticator configuration.
func (c *Config) Session() session.Config {
	sc := session.DefaultConfig()
	sc.FieldTimeout = c.Timeouts.Field
	sc.ProbeTimeout = c.Timeouts.Probe
	sc.VerifyTimeout = c.Timeouts.Verify
	sc.FieldAttempts = c.FieldAttempts
	sc.RetryBackoff = c.RetryBackoff
	sc.DisableTwoFactor = !c.TwoFactor.Enabled
	sc.ScreenshotDir = c.ScreenshotDir
	return sc
}

// Chrome returns the browser configuration.
func (c *Config) Chrome() chrome.Config {
	cc := chrome.DefaultConfig()
	cc.ExecPath = c.ChromePath
	cc.Headless = c.Headless
	cc.ProxyURL = c.Proxy
	cc.ActionTimeout = c.Timeouts.Action
	if c.UserAgent != "" {
		cc.UserAgent = c.UserAgent
	}
	return cc
}

// Limit returns the page-load rate limit.
func (c *Config) Limit() rate.Limit {
	return rate.Limit(c.Rate.PerSecond)
}

// Package commands implements the CLI commands for xscrape.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/xscrape/internal/config"
	"github.com/jmylchreest/xscrape/internal/logger"
)

// cfg is loaded before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "xscrape",
	Short: "Logged-in scraper for x.com posts and profiles",
	Long: `xscrape drives a Chrome browser through the x.com login flow,
keeps the session cookies on disk and reads posts and profiles from
the rendered pages.

The account secret is read from XSCRAPE_ACCOUNT_SECRET or the OS
keyring (see "xscrape secret set"). Saved cookies are reused until
they are about to expire.

Examples:
  # Log in once, prompting for a verification code if asked
  xscrape login

  # Latest posts matching a query as JSON lines
  xscrape search "golang generics" --latest --limit 50 --format jsonl

  # A profile with its 10 most recent posts
  xscrape profile @golang --posts 10 -o golang.yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Close()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.xscrape.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "suppress progress output")
	flags.String("log-file", "", "also write logs to this file (rotated)")
	flags.Bool("json-log", false, "log as JSON")
	flags.String("cookie-dir", "", "directory for saved session cookies")
	flags.Bool("headless", true, "run Chrome without a window (--headless=false to watch)")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("log.debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("log.quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log.file", flags.Lookup("log-file"))
	_ = viper.BindPFlag("log.json", flags.Lookup("json-log"))
	_ = viper.BindPFlag("cookie_dir", flags.Lookup("cookie-dir"))
	_ = viper.BindPFlag("headless", flags.Lookup("headless"))
}

func initConfig() {
	config.Setup(viper.GetViper(), viper.GetString("config"))
}

// loadConfig reads the config file and initialises logging.
func loadConfig(*cobra.Command, []string) error {
	v := viper.GetViper()
	if err := config.Read(v); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	logger.Init(logger.Options{
		Debug: cfg.Log.Debug,
		Quiet: cfg.Log.Quiet,
		JSON:  cfg.Log.JSON,
		File:  cfg.Log.File,
	})
	if f := v.ConfigFileUsed(); f != "" {
		logger.Debug("loaded config", "file", f)
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if cfg == nil || !cfg.Log.Quiet {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

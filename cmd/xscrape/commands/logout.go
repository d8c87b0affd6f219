package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/xscrape/internal/logger"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and delete saved cookies",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(nil)
		if err != nil {
			// Without a browser the site session cannot be ended, but the
			// saved cookies can still be removed.
			logger.Warn("browser unavailable; clearing saved cookies only", "error", err)
			store := newStore()
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear cookies: %w", err)
			}
			logInfo("Removed %s", store.Path())
			return nil
		}
		defer a.Close()

		a.auth.Logout(ctx)
		logInfo("Logged out; removed %s", a.store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

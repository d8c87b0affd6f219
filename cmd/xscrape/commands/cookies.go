package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Inspect or remove saved session cookies",
}

var cookiesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved cookie file and whether it is still usable",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		st := newStore().Status()

		out := os.Stdout
		fmt.Fprintf(out, "File:     %s\n", st.Path)
		if !st.Exists {
			fmt.Fprintln(out, "Status:   no saved session")
			return nil
		}
		fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(st.Size)))
		if !st.SavedAt.IsZero() {
			fmt.Fprintf(out, "Saved:    %s (%s)\n", st.SavedAt.Local().Format(time.DateTime), humanize.Time(st.SavedAt))
		}
		fmt.Fprintf(out, "Cookies:  %d\n", st.Count)
		if st.ExpiresAt != nil {
			fmt.Fprintf(out, "Expires:  %s (%s)\n", st.ExpiresAt.Local().Format(time.DateTime), humanize.Time(*st.ExpiresAt))
		}
		if st.Expired {
			fmt.Fprintln(out, "Status:   expired, next login will use credentials")
		} else {
			fmt.Fprintln(out, "Status:   valid")
		}
		return nil
	},
}

var cookiesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved cookie file and its backup",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		store := newStore()
		if err := store.Clear(); err != nil {
			return err
		}
		logInfo("Removed %s", store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cookiesCmd)
	cookiesCmd.AddCommand(cookiesStatusCmd, cookiesClearCmd)
}

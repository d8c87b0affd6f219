package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile USERNAME",
	Short: "Read a user profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().Int("posts", 0, "also collect this many recent posts")
	addOutputFlags(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	posts, _ := cmd.Flags().GetInt("posts")

	w, err := openOutput(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(interactiveResponder())
	if err != nil {
		_ = w.Close()
		return err
	}
	defer a.Close()

	p, err := a.scraper.Profile(ctx, args[0], posts)
	if err != nil && p.Username == "" {
		_ = w.Close()
		return err
	}
	// A failed post collection still yields the header.
	return errors.Join(err, w.Write(p), w.Close())
}

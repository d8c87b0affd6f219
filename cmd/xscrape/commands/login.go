package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/xscrape/pkg/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Establish and save an authenticated session",
	Long: `Log in with saved cookies when they are still valid, otherwise with the
configured credentials. Cookies are saved for later commands.

If the site asks for a verification code it is read from --otp or,
when that is not given, prompted for on the terminal.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	flags := loginCmd.Flags()
	flags.String("otp", "", "verification code to answer a two-factor prompt with")
	flags.Bool("no-2fa", false, "fail instead of answering a two-factor prompt")
}

func loginResponder(cmd *cobra.Command) session.ChallengeResponder {
	if noTwoFactor, _ := cmd.Flags().GetBool("no-2fa"); noTwoFactor {
		return session.FailingResponder{}
	}
	if otp, _ := cmd.Flags().GetString("otp"); otp != "" {
		return session.StaticResponder(otp)
	}
	return interactiveResponder()
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(loginResponder(cmd))
	if err != nil {
		return err
	}
	defer a.Close()

	logInfo("Logging in as %s...", owner())
	if !a.auth.EnsureLoggedIn(ctx) {
		if err := a.auth.LastError(); err != nil {
			return err
		}
		return errors.New("login failed")
	}

	st := a.auth.Session()
	saved := 0
	if st.Cookies != nil {
		saved = len(st.Cookies.Cookies)
	}
	logInfo("Logged in as %s; %d cookies saved to %s", st.CurrentUser, saved, a.store.Path())
	return nil
}

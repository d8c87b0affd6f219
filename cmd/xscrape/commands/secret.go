package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/xscrape/internal/secret"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the account secret in the OS keyring",
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the account secret, read from stdin",
	Long: `Store the account secret in the OS keyring under the configured
account identifier. The secret is read from the first line of stdin:

  xscrape secret set < secret.txt`,
	Args: cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		account, err := requireAccount()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Secret for %s: ", account)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read secret: %w", err)
		}
		if err := secret.New().Set(account, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		logInfo("Stored secret for %s in keyring %q", account, secret.Service)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the account secret from the OS keyring",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		account, err := requireAccount()
		if err != nil {
			return err
		}
		if err := secret.New().Delete(account); err != nil {
			return err
		}
		logInfo("Removed secret for %s", account)
		return nil
	},
}

func requireAccount() (string, error) {
	if cfg.Account.Identifier == "" {
		return "", errors.New("no account configured: set account.identifier or XSCRAPE_ACCOUNT_IDENTIFIER")
	}
	return cfg.Account.Identifier, nil
}

func init() {
	rootCmd.AddCommand(secretCmd)
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
}

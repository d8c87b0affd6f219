// Package secret stores the account secret in the OS keyring.
package secret

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name entries are stored under.
const Service = "xscrape"

// ErrNotFound indicates no keyring entry exists for the account.
var ErrNotFound = errors.New("secret not found in keyring")

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// Keyring reads and writes account secrets. Entries are keyed by the
// lowercased account identifier.
type Keyring struct {
	Service string
}

// New returns a Keyring for the default service.
func New() *Keyring {
	return &Keyring{Service: Service}
}

func key(account string) (string, error) {
	k := strings.ToLower(strings.TrimSpace(account))
	if k == "" {
		return "", errors.New("empty account identifier")
	}
	return k, nil
}

// Get returns the stored secret for account.
func (k *Keyring) Get(account string) (string, error) {
	user, err := key(account)
	if err != nil {
		return "", err
	}
	v, err := keyringGet(k.Service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return v, nil
}

// Set stores secret for account, replacing any existing entry.
func (k *Keyring) Set(account, secret string) error {
	user, err := key(account)
	if err != nil {
		return err
	}
	if secret == "" {
		return errors.New("empty secret")
	}
	if err := keyringSet(k.Service, user, secret); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// Delete removes the entry for account. A missing entry is not an error.
func (k *Keyring) Delete(account string) error {
	user, err := key(account)
	if err != nil {
		return err
	}
	err = keyringDelete(k.Service, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring: %w", err)
	}
	return nil
}

// Resolve returns explicit when it is set, otherwise the keyring entry for
// account.
func (k *Keyring) Resolve(explicit, account string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return k.Get(account)
}

package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "treasury-engine"

	// PasswordEnv overrides the keychain, for headless hosts.
	PasswordEnv = "TREASURY_IMAP_PASSWORD"
)

var ErrNoPassword = eris.New("secrets: IMAP password not found (set it in the keychain or " + PasswordEnv + ")")

// GetIMAPPassword reads the environment first, then the keychain.
func GetIMAPPassword(account string) (string, error) {
	if pw := strings.TrimSpace(os.Getenv(PasswordEnv)); pw != "" {
		return pw, nil
	}
	if strings.TrimSpace(account) != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", ErrNoPassword
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return eris.New("secrets: keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return eris.New("secrets: password is empty")
	}
	return eris.Wrap(keyring.Set(KeyringService, account, password), "secrets: keyring set")
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return eris.New("secrets: keyring account name is empty")
	}
	return eris.Wrap(keyring.Delete(KeyringService, account), "secrets: keyring delete")
}

// IMAPKeyringAccount names the keychain entry for a mailbox login.
func IMAPKeyringAccount(username, host string) string {
	return fmt.Sprintf("treasury:imap:%s@%s", username, host)
}

package main

import (
	"bufio"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"treasury-engine/internal/ingest/email"
	"treasury-engine/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage credentials in the OS keychain",
}

var setIMAPCmd = &cobra.Command{
	Use:   "set-imap",
	Short: "Store the IMAP app password for email.username (read from stdin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Email.Username == "" {
			return eris.New("email.username is not configured")
		}
		account := secrets.IMAPKeyringAccount(cfg.Email.Username, email.IMAPAddr(cfg.Email))

		if del, _ := cmd.Flags().GetBool("delete"); del {
			if err := secrets.DeleteIMAPPassword(account); err != nil {
				return err
			}
			cmd.Println("deleted", account)
			return nil
		}

		cmd.Print("IMAP password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return eris.Wrap(err, "read password")
		}
		if err := secrets.SetIMAPPassword(account, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		cmd.Println("stored", account)
		return nil
	},
}

func init() {
	setIMAPCmd.Flags().Bool("delete", false, "remove the stored password instead")
	secretsCmd.AddCommand(setIMAPCmd)
	rootCmd.AddCommand(secretsCmd)
}

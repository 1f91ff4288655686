package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/ne2keep/internal/tokenstore"
)

func newLogoutCommand(a *app) *cobra.Command {
	var (
		email string
		list  bool
	)

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached master token of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return a.runListAccounts()
			}
			return a.runLogout(email)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Google account email (default: KEEP_EMAIL)")
	cmd.Flags().BoolVar(&list, "list", false, "List accounts with a cached token instead of removing one")
	cmd.MarkFlagsMutuallyExclusive("email", "list")
	return cmd
}

func (a *app) openTokenStore() (*tokenstore.TokenStore, error) {
	if err := a.cfg.EnsureStateDir(); err != nil {
		return nil, err
	}
	store, err := tokenstore.New(tokenstore.Config{
		DatabasePath:  a.cfg.State.DatabasePath,
		EncryptionKey: a.cfg.Token.EncryptionKey,
		KeyFilePath:   a.cfg.Token.KeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return store, nil
}

func (a *app) runListAccounts() error {
	store, err := a.openTokenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	tokens, err := store.ListTokens()
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Fprintln(a.out, "No cached tokens")
		return nil
	}

	for _, token := range tokens {
		lastUsed := "never used"
		if token.LastUsedAt != nil {
			lastUsed = "last used " + token.LastUsedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(a.out, "%s  %s\n", token.Email, dimStyle.Render(lastUsed))
	}
	return nil
}

func (a *app) runLogout(email string) error {
	if email == "" {
		email = a.cfg.Keep.Email
	}
	if email == "" {
		return errors.New("email required, pass --email")
	}

	store, err := a.openTokenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	existed, err := store.DeleteToken(email)
	if err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(a.out, "Removed cached token for %s\n", email)
	} else {
		fmt.Fprintf(a.out, "No cached token for %s\n", email)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"twix/internal/api"
)

func newCredentialsCommand(ctx *commandContext) *cobra.Command {
	credCmd := &cobra.Command{
		Use:     "credentials",
		Aliases: []string{"creds", "settings"},
		Short:   "Manage stored scraper accounts",
	}
	credCmd.AddCommand(newCredentialsListCommand(ctx))
	credCmd.AddCommand(newCredentialsAddCommand(ctx))
	credCmd.AddCommand(newCredentialsUpdateCommand(ctx))
	credCmd.AddCommand(newCredentialsDeleteCommand(ctx))
	credCmd.AddCommand(&cobra.Command{
		Use:   "login <credential-name>",
		Short: "Log the scraper in with a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, ctx, args[0])
		},
	})
	return credCmd
}

func newCredentialsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			items, err := w.credentialsPanel().List(cmd.Context())
			if err != nil {
				return err
			}
			return emit(cmd, ctx, items, func() []string { return renderCredentials(items) })
		},
	}
}

// credentialFlags binds the account fields. The password falls back to
// TWIX_SCRAPER_PASSWORD so it stays out of shell history.
type credentialFlags struct {
	name     string
	username string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Credential name")
	cmd.Flags().StringVar(&f.username, "username", "", "Twitter username")
	cmd.Flags().StringVar(&f.password, "password", "", "Twitter password (or TWIX_SCRAPER_PASSWORD)")
}

func (f *credentialFlags) credentials() api.Credentials {
	password := f.password
	if password == "" {
		password = os.Getenv("TWIX_SCRAPER_PASSWORD")
	}
	return api.Credentials{CredentialName: f.name, Username: f.username, Password: password}
}

func newCredentialsAddCommand(ctx *commandContext) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			saved, err := w.credentialsPanel().Create(cmd.Context(), flags.credentials())
			if err != nil {
				return err
			}
			return emit(cmd, ctx, saved, func() []string {
				return []string{fmt.Sprintf("Saved credential %q (id %s)", saved.CredentialName, saved.ID)}
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newCredentialsUpdateCommand(ctx *commandContext) *cobra.Command {
	var flags credentialFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			updated, err := w.credentialsPanel().Update(cmd.Context(), args[0], flags.credentials())
			if err != nil {
				return err
			}
			return emit(cmd, ctx, updated, func() []string {
				return []string{fmt.Sprintf("Updated credential %q (id %s)", updated.CredentialName, updated.ID)}
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newCredentialsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a stored account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			if err := w.credentialsPanel().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return emit(cmd, ctx, map[string]string{"deleted": args[0]}, func() []string {
				return []string{"Deleted credential " + args[0]}
			})
		},
	}
}

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCommand(ctx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored backend API key",
	}
	authCmd.AddCommand(newAuthSetKeyCommand(ctx))
	authCmd.AddCommand(newAuthClearCommand(ctx))
	authCmd.AddCommand(newAuthStatusCommand(ctx))
	return authCmd
}

func newAuthSetKeyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key|-]",
		Short: "Save the API key sent as X-API-Key (reads stdin when the key is - or omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 1 && args[0] != "-" {
				key = args[0]
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					key = scanner.Text()
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read api key: %w", err)
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("api key is empty")
			}
			if err := w.fileKeys.Set(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved API key %s to %s\n", maskKey(key), w.fileKeys.Path())
			return nil
		},
	}
}

func newAuthClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			if err := w.fileKeys.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Stored API key cleared")
			return nil
		},
	}
}

type authStatus struct {
	Source   string `json:"source"`
	Key      string `json:"key,omitempty"`
	KeyFile  string `json:"key_file"`
	Verified *bool  `json:"verified,omitempty"`
}

func newAuthStatusCommand(ctx *commandContext) *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which API key will be used",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			status := authStatus{Source: "none", KeyFile: w.fileKeys.Path()}
			current := w.keys.Get()
			switch {
			case current == "":
			case ctx.apiKeyFlag != nil && strings.TrimSpace(*ctx.apiKeyFlag) == current:
				status.Source = "flag"
			case w.fileKeys.Get() == current:
				status.Source = "file"
			default:
				status.Source = "config"
			}
			status.Key = maskKey(current)

			if verify {
				_, err := w.client.ListCredentials(cmd.Context())
				ok := err == nil
				status.Verified = &ok
				if err != nil && !ctx.jsonOutput() {
					defer fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			return emit(cmd, ctx, status, func() []string {
				kind := statusOK
				message := fmt.Sprintf("%s (from %s)", status.Key, status.Source)
				if status.Source == "none" {
					kind = statusWarn
					message = "no key configured; run `twix auth set-key`"
				}
				lines := []string{
					renderStatusLine("API key", kind, message, colorize),
					renderStatusLine("Key file", statusInfo, status.KeyFile, colorize),
				}
				if status.Verified != nil {
					if *status.Verified {
						lines = append(lines, renderStatusLine("Backend", statusOK, "key accepted", colorize))
					} else {
						lines = append(lines, renderStatusLine("Backend", statusError, "key rejected or backend unreachable", colorize))
					}
				}
				return lines
			})
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "Check the key against the backend")
	return cmd
}

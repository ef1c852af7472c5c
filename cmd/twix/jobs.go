package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"twix/internal/api"
	"twix/internal/monitor"
	"twix/internal/panels"
)

// runJob wires the shared runtime, shows a progress bar while the job is
// monitored, and renders or JSON-encodes the result.
func runJob[T any](cmd *cobra.Command, ctx *commandContext, label string, run func(w *wiring, progress func(api.TaskStatus, int)) (T, error), render func(T, bool) []string) error {
	w, err := ctx.ensureWiring()
	if err != nil {
		return err
	}
	bar := newPollProgress(cmd.ErrOrStderr(), !ctx.jsonOutput(), label, w.cfg.Monitor.MaxAttempts)
	result, err := run(w, bar.callback())
	bar.finish()
	if err != nil {
		return err
	}
	colorize := shouldColorize(cmd.OutOrStdout())
	return emit(cmd, ctx, result, func() []string { return render(result, colorize) })
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <credential-name>",
		Short: "Log the scraper in with a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, ctx, args[0])
		},
	}
}

func runLogin(cmd *cobra.Command, ctx *commandContext, name string) error {
	return runJob(cmd, ctx, "Logging in", func(w *wiring, progress func(api.TaskStatus, int)) (api.LoginResult, error) {
		return w.credentialsPanel().Login(cmd.Context(), name, progress)
	}, func(res api.LoginResult, colorize bool) []string {
		message := res.Message
		if message == "" {
			message = "Login completed"
		}
		lines := []string{renderStatusLine("Login", statusOK, message, colorize)}
		if res.Username != "" {
			lines = append(lines, renderStatusLine("Account", statusInfo, "@"+res.Username, colorize))
		}
		return lines
	})
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "Search users by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := joinArgs(args)
			return runJob(cmd, ctx, "Searching", func(w *wiring, progress func(api.TaskStatus, int)) ([]api.User, error) {
				return w.searchPanel().Search(cmd.Context(), query, limit, progress)
			}, func(users []api.User, colorize bool) []string {
				return renderUsers(fmt.Sprintf("Users matching %q", query), users, colorize)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Result count: "+api.FormatCounts(api.CountSearch)+" (default from config)")
	return cmd
}

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "timeline <username>",
		Short: "Fetch a user's recent tweets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, ctx, "Fetching timeline", func(w *wiring, progress func(api.TaskStatus, int)) (api.Timeline, error) {
				return w.timelinePanel().Fetch(cmd.Context(), args[0], count, progress)
			}, renderTimeline)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Tweet count: "+api.FormatCounts(api.CountTimeline)+" (default from config)")
	return cmd
}

func newFollowCommand(ctx *commandContext, tab string) *cobra.Command {
	var count int
	short := "List accounts following a user"
	if tab == "following" {
		short = "List accounts a user follows"
	}
	cmd := &cobra.Command{
		Use:   tab + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, ctx, "Fetching "+tab, func(w *wiring, progress func(api.TaskStatus, int)) ([]api.User, error) {
				parsed, err := panels.ParseTab(tab)
				if err != nil {
					return nil, err
				}
				return w.followersPanel().Fetch(cmd.Context(), parsed, args[0], count, progress)
			}, func(users []api.User, colorize bool) []string {
				return renderUsers(titleStatus(tab)+" of @"+trimAt(args[0]), users, colorize)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Account count: "+api.FormatCounts(api.CountFollow)+" (default from config)")
	return cmd
}

// waitResult follows an existing task id and returns the raw result.
func waitResult(cmd *cobra.Command, w *wiring, taskID string, progress func(api.TaskStatus, int)) (json.RawMessage, error) {
	m := monitor.New(w.client, w.monitorOptions())
	return m.Wait(cmd.Context(), taskID, progress)
}

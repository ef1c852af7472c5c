package main

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/cobra"

	"twix/internal/api"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect a single backend task",
	}
	taskCmd.AddCommand(&cobra.Command{
		Use:   "status <task-id>",
		Short: "Fetch one status snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			status, err := w.client.TaskStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			return emit(cmd, ctx, status, func() []string { return renderTaskStatus(status, colorize) })
		},
	})
	taskCmd.AddCommand(&cobra.Command{
		Use:   "watch <task-id>",
		Short: "Poll a task until it finishes and print its result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, ctx, "Waiting for "+args[0], func(w *wiring, progress func(api.TaskStatus, int)) (json.RawMessage, error) {
				return waitResult(cmd, w, args[0], progress)
			}, func(result json.RawMessage, _ bool) []string {
				return []string{indentJSON(result)}
			})
		},
	})
	return taskCmd
}

func indentJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func newTasksCommand(ctx *commandContext) *cobra.Command {
	overview := func(cmd *cobra.Command, args []string) error {
		w, err := ctx.ensureWiring()
		if err != nil {
			return err
		}
		ov, err := w.client.TasksOverview(cmd.Context())
		if err != nil {
			return err
		}
		colorize := shouldColorize(cmd.OutOrStdout())
		return emit(cmd, ctx, ov, func() []string {
			lines := renderOverview(ov, colorize)
			lines = append(lines, "")
			lines = append(lines, renderTaskTable("Active tasks", ov.ActiveTasks, colorize)...)
			if len(ov.ScheduledTasks) > 0 {
				lines = append(lines, "")
				lines = append(lines, renderTaskTable("Scheduled tasks", ov.ScheduledTasks, colorize)...)
			}
			return lines
		})
	}

	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show task queue statistics (defaults to overview)",
		RunE:  overview,
	}
	tasksCmd.AddCommand(&cobra.Command{
		Use:   "overview",
		Short: "Worker and queue summary",
		RunE:  overview,
	})
	tasksCmd.AddCommand(&cobra.Command{
		Use:   "active",
		Short: "List in-flight tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			active, err := w.client.ActiveTasks(cmd.Context())
			if err != nil {
				return err
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			return emit(cmd, ctx, active, func() []string {
				return renderTaskTable("Active tasks", active.Tasks, colorize)
			})
		},
	})
	tasksCmd.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Summarize finished tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := ctx.ensureWiring()
			if err != nil {
				return err
			}
			history, err := w.client.TasksHistory(cmd.Context())
			if err != nil {
				return err
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			return emit(cmd, ctx, history, func() []string { return renderHistory(history, colorize) })
		},
	})
	return tasksCmd
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"twix/internal/api"
	"twix/internal/health"
)

func userRows(users []api.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		name := u.DisplayName
		if u.Verified {
			name += " ✓"
		}
		rows = append(rows, []string{
			"@" + u.Username,
			truncate(name, 28),
			compactCount(u.FollowersCount),
			compactCount(u.FollowingCount),
			compactCount(u.Tweets),
			truncate(u.Location, 20),
		})
	}
	return rows
}

func renderUsers(title string, users []api.User, colorize bool) []string {
	lines := renderSectionHeader(fmt.Sprintf("%s (%d)", title, len(users)), colorize)
	if len(users) == 0 {
		return append(lines, "No users found")
	}
	table := renderColumns([]column{
		{header: "Username"},
		{header: "Name", maxWidth: 28},
		{header: "Followers", align: alignRight},
		{header: "Following", align: alignRight},
		{header: "Tweets", align: alignRight},
		{header: "Location", maxWidth: 20},
	}, userRows(users))
	return append(lines, table)
}

func renderTimeline(tl api.Timeline, colorize bool) []string {
	title := "Timeline"
	if tl.Username != "" {
		title = "Timeline for @" + tl.Username
	}
	lines := renderSectionHeader(title, colorize)
	summary := fmt.Sprintf("%s tweets", humanize.Comma(tl.TotalCount))
	if tl.AnalysisPeriod != "" {
		summary += " over " + tl.AnalysisPeriod
	}
	if tl.FetchedAt != "" {
		summary += ", fetched " + relativeTime(tl.FetchedAt)
	}
	if tl.Cached {
		summary += " (cached)"
	}
	lines = append(lines, summary)
	if tl.User != nil {
		lines = append(lines, fmt.Sprintf("%s · %s followers · %s following",
			tl.User.DisplayName, compactCount(tl.User.FollowersCount), compactCount(tl.User.FollowingCount)))
	}

	if len(tl.Tweets) > 0 {
		rows := make([][]string, 0, len(tl.Tweets))
		for _, tw := range tl.Tweets {
			text := tw.Text
			if tw.IsRetweet {
				text = "RT " + text
			}
			rows = append(rows, []string{
				relativeTime(tw.CreatedAt),
				truncate(text, 60),
				compactCount(tw.Likes),
				compactCount(tw.Retweets),
				compactCount(tw.Replies),
				compactCount(tw.Views),
			})
		}
		lines = append(lines, renderColumns([]column{
			{header: "When"},
			{header: "Text", maxWidth: 60},
			{header: "Likes", align: alignRight},
			{header: "RTs", align: alignRight},
			{header: "Replies", align: alignRight},
			{header: "Views", align: alignRight},
		}, rows))
	} else {
		lines = append(lines, "No tweets returned")
	}

	if len(tl.Hashtags) > 0 {
		tags := make([]string, 0, len(tl.Hashtags))
		for _, tag := range tl.Hashtags {
			tags = append(tags, "#"+strings.TrimPrefix(tag, "#"))
		}
		lines = append(lines, "Hashtags: "+strings.Join(tags, " "))
	}
	if len(tl.Mentions) > 0 {
		mentions := append([]api.MentionStat(nil), tl.Mentions...)
		sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].Count > mentions[j].Count })
		parts := make([]string, 0, len(mentions))
		for _, m := range mentions {
			parts = append(parts, fmt.Sprintf("@%s (%d)", strings.TrimPrefix(m.User, "@"), m.Count))
		}
		lines = append(lines, "Mentions: "+strings.Join(parts, ", "))
	}
	return lines
}

func renderCredentials(items []api.Settings) []string {
	if len(items) == 0 {
		return []string{"No stored credentials. Add one with `twix credentials add`."}
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.ID, item.CredentialName, "@" + item.Username, relativeTime(item.UpdatedAt)})
	}
	return []string{renderTable([]string{"ID", "Name", "Username", "Updated"}, rows, nil)}
}

func renderTaskStatus(status api.TaskStatus, colorize bool) []string {
	lines := []string{renderStatusLine("Task "+status.TaskID, taskKind(status.Status), titleStatus(status.Status), colorize)}
	if status.Progress != nil {
		lines = append(lines, renderStatusLine("Progress", statusInfo, progressPercent(status.Progress), colorize))
	}
	if status.Error != "" {
		lines = append(lines, renderStatusLine("Error", statusError, status.Error, colorize))
	}
	if status.CreatedAt != "" {
		lines = append(lines, renderStatusLine("Created", statusInfo, relativeTime(status.CreatedAt), colorize))
	}
	if status.UpdatedAt != "" {
		lines = append(lines, renderStatusLine("Updated", statusInfo, relativeTime(status.UpdatedAt), colorize))
	}
	return lines
}

func taskRows(tasks []api.TaskStatus) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{task.TaskID, titleStatus(task.Status), progressPercent(task.Progress), relativeTime(task.UpdatedAt)})
	}
	return rows
}

func renderTaskTable(title string, tasks []api.TaskStatus, colorize bool) []string {
	lines := renderSectionHeader(fmt.Sprintf("%s (%d)", title, len(tasks)), colorize)
	if len(tasks) == 0 {
		return append(lines, "None")
	}
	return append(lines, renderTable(
		[]string{"Task", "Status", "Progress", "Updated"},
		taskRows(tasks),
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
}

func renderOverview(ov api.TasksOverview, colorize bool) []string {
	lines := renderSectionHeader("Task queue", colorize)
	workersKind := statusOK
	if ov.Summary.WorkersCount == 0 {
		workersKind = statusError
	}
	lines = append(lines,
		renderStatusLine("Workers", workersKind, humanize.Comma(int64(ov.Summary.WorkersCount)), colorize),
		renderStatusLine("Active", statusInfo, humanize.Comma(int64(ov.Summary.ActiveCount)), colorize),
		renderStatusLine("Scheduled", statusInfo, humanize.Comma(int64(ov.Summary.ScheduledCount)), colorize),
	)
	if len(ov.WorkerStats) > 0 {
		names := make([]string, 0, len(ov.WorkerStats))
		for name := range ov.WorkerStats {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([][]string, 0, len(names))
		for _, name := range names {
			stats := ov.WorkerStats[name]
			rows = append(rows, []string{
				name,
				stats.Pool.Implementation,
				humanize.Comma(int64(stats.Pool.MaxConcurrency)),
				humanize.Comma(int64(len(stats.Pool.Processes))),
				humanize.IBytes(uint64(max(stats.Rusage.MaxRSS, 0)) * 1024),
			})
		}
		lines = append(lines, renderTable(
			[]string{"Worker", "Pool", "Concurrency", "Processes", "Max RSS"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
		))
	}
	if len(ov.RegisteredTasks) > 0 {
		lines = append(lines, "Registered: "+strings.Join(ov.RegisteredTasks, ", "))
	}
	return lines
}

func renderHistory(h api.TasksHistory, colorize bool) []string {
	lines := renderSectionHeader("Task history", colorize)
	failedKind := statusOK
	if h.Failed > 0 {
		failedKind = statusWarn
	}
	lines = append(lines,
		renderStatusLine("Completed", statusOK, humanize.Comma(int64(h.Completed)), colorize),
		renderStatusLine("Failed", failedKind, humanize.Comma(int64(h.Failed)), colorize),
		renderStatusLine("Total", statusInfo, humanize.Comma(int64(h.Total)), colorize),
	)
	if len(h.RecentTasks) > 0 {
		lines = append(lines, renderTable(
			[]string{"Task", "Status", "Progress", "Updated"},
			taskRows(h.RecentTasks),
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	return lines
}

func renderHealth(snap health.Snapshot, colorize bool) []string {
	lines := renderSectionHeader("System status", colorize)
	overall := snap.Overall()
	lines = append(lines, renderStatusLine("Overall", connectivityKind(overall), titleStatus(overall), colorize))

	apiMessage := titleStatus(snap.API.Status)
	if snap.API.Status == health.StatusOnline {
		apiMessage += " (" + durationMillis(snap.API.ResponseTime) + ")"
	} else if snap.API.Error != "" {
		apiMessage += ": " + snap.API.Error
	}
	lines = append(lines, renderStatusLine("API", connectivityKind(snap.API.Status), apiMessage, colorize))

	if snap.Workers.Online {
		lines = append(lines, renderStatusLine("Workers", statusOK,
			fmt.Sprintf("%d online, %d active, %d scheduled", snap.Workers.Workers, snap.Workers.Active, snap.Workers.Scheduled), colorize))
	} else {
		lines = append(lines, renderStatusLine("Workers", statusError, "Offline", colorize))
	}
	lines = append(lines, renderStatusLine("Processed", statusInfo,
		fmt.Sprintf("%s completed, %s failed", humanize.Comma(int64(snap.Workers.Completed)), humanize.Comma(int64(snap.Workers.Failed))), colorize))
	lines = append(lines, renderStatusLine("Last check", statusInfo, snap.CheckedAt.Format("15:04:05"), colorize))

	if snap.Backend == nil {
		return lines
	}
	b := snap.Backend
	if len(b.Services) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Services", colorize)...)
		rows := make([][]string, 0, len(b.Services))
		for _, svc := range b.Services {
			rows = append(rows, []string{
				svc.ServiceName,
				titleStatus(svc.Status),
				humanize.FtoaWithDigits(svc.ResponseTimeMS, 1) + " ms",
				truncate(svc.Message, 50),
			})
		}
		lines = append(lines, renderColumns([]column{
			{header: "Service"},
			{header: "Status"},
			{header: "Latency", align: alignRight},
			{header: "Message", maxWidth: 50},
		}, rows))
	}
	sys := b.System
	if sys.ApplicationVersion != "" || sys.UptimeSeconds > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Backend host", colorize)...)
		lines = append(lines,
			renderStatusLine("Version", statusInfo, sys.ApplicationVersion, colorize),
			renderStatusLine("Uptime", statusInfo, strings.TrimSpace(humanize.RelTime(snap.CheckedAt.Add(-secondsDuration(sys.UptimeSeconds)), snap.CheckedAt, "", "")), colorize),
			renderStatusLine("Memory", statusInfo, humanize.IBytes(uint64(max(sys.MemoryUsageMB, 0)*1024*1024)), colorize),
			renderStatusLine("CPU", usageKind(sys.CPUUsagePercent), humanize.FtoaWithDigits(sys.CPUUsagePercent, 1)+"%", colorize),
			renderStatusLine("Disk", usageKind(sys.DiskUsagePercent), humanize.FtoaWithDigits(sys.DiskUsagePercent, 1)+"%", colorize),
		)
	}
	if b.Details.TotalServicesChecked > 0 {
		lines = append(lines, fmt.Sprintf("%d services checked: %d healthy, %d degraded, %d unhealthy",
			b.Details.TotalServicesChecked, b.Details.HealthyServices, b.Details.DegradedServices, b.Details.UnhealthyServices))
	}
	return lines
}

func usageKind(percent float64) statusKind {
	switch {
	case percent >= 90:
		return statusError
	case percent >= 75:
		return statusWarn
	default:
		return statusOK
	}
}

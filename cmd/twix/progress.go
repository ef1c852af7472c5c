package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"twix/internal/api"
)

// pollProgress shows a bar of status checks against the attempt ceiling while
// a job is being monitored. It is silent when stderr is not a terminal or
// JSON output was requested.
type pollProgress struct {
	bar *progressbar.ProgressBar
}

func newPollProgress(w io.Writer, enabled bool, label string, maxAttempts int) *pollProgress {
	if !enabled || !shouldColorize(w) {
		return &pollProgress{}
	}
	bar := progressbar.NewOptions(maxAttempts,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionFullWidth(),
	)
	return &pollProgress{bar: bar}
}

// update is a monitor OnUpdate callback.
func (p *pollProgress) update(status api.TaskStatus, attempt int) {
	if p.bar == nil {
		return
	}
	desc := fmt.Sprintf("%s (%s)", status.TaskID, titleStatus(status.Status))
	if status.Progress != nil {
		desc = fmt.Sprintf("%s %s", desc, progressPercent(status.Progress))
	}
	p.bar.Describe(desc)
	_ = p.bar.Set(attempt)
}

func (p *pollProgress) finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	_ = p.bar.Clear()
}

// callback returns update, or nil when no bar is shown.
func (p *pollProgress) callback() func(api.TaskStatus, int) {
	if p.bar == nil {
		return nil
	}
	return p.update
}

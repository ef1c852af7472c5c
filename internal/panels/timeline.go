package panels

import (
	"context"

	"twix/internal/api"
	"twix/internal/monitor"
)

// TimelinePanel fetches a user's recent tweets.
type TimelinePanel struct {
	*Panel[api.Timeline]
	jobs         Jobs
	defaultCount int
}

func NewTimelinePanel(jobs Jobs, opts monitor.Options, defaultCount int) *TimelinePanel {
	return &TimelinePanel{
		Panel:        newPanel("timeline", jobs, opts, api.NormalizeTimeline),
		jobs:         jobs,
		defaultCount: defaultCount,
	}
}

// Submit validates input and starts a timeline job.
func (p *TimelinePanel) Submit(ctx context.Context, username string, count int, h Handlers[api.Timeline]) (*Job[api.Timeline], error) {
	user, err := Username(username)
	if err != nil {
		return nil, err
	}
	count, err = Count(api.CountTimeline, count, p.defaultCount)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, func(ctx context.Context) (string, error) {
		return p.jobs.UserTimeline(ctx, user, count)
	}, h)
}

// Fetch runs a timeline job to completion.
func (p *TimelinePanel) Fetch(ctx context.Context, username string, count int, progress func(api.TaskStatus, int)) (api.Timeline, error) {
	job, err := p.Submit(ctx, username, count, Handlers[api.Timeline]{OnProgress: progress})
	if err != nil {
		return api.Timeline{}, err
	}
	return job.Wait(ctx)
}

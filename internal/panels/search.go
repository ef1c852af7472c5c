package panels

import (
	"context"

	"twix/internal/api"
	"twix/internal/monitor"
)

// SearchPanel looks up users by name.
type SearchPanel struct {
	*Panel[[]api.User]
	jobs         Jobs
	defaultLimit int
}

// NewSearchPanel builds a search panel. defaultLimit applies when a caller
// passes zero.
func NewSearchPanel(jobs Jobs, opts monitor.Options, defaultLimit int) *SearchPanel {
	return &SearchPanel{
		Panel:        newPanel("search", jobs, opts, api.NormalizeUsers),
		jobs:         jobs,
		defaultLimit: defaultLimit,
	}
}

// Submit validates the query and starts a search job.
func (p *SearchPanel) Submit(ctx context.Context, name string, limit int, h Handlers[[]api.User]) (*Job[[]api.User], error) {
	query, err := required("search name", name)
	if err != nil {
		return nil, err
	}
	limit, err = Count(api.CountSearch, limit, p.defaultLimit)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, func(ctx context.Context) (string, error) {
		return p.jobs.SearchUsers(ctx, api.SearchUsersRequest{Name: query, Limit: limit})
	}, h)
}

// Search runs a search to completion.
func (p *SearchPanel) Search(ctx context.Context, name string, limit int, progress func(api.TaskStatus, int)) ([]api.User, error) {
	job, err := p.Submit(ctx, name, limit, Handlers[[]api.User]{OnProgress: progress})
	if err != nil {
		return nil, err
	}
	return job.Wait(ctx)
}

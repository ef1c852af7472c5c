package panels

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"twix/internal/api"
	"twix/internal/monitor"
	"twix/internal/services"
)

// Tab selects which relationship list the followers panel shows.
type Tab string

const (
	TabFollowers Tab = "followers"
	TabFollowing Tab = "following"
)

// ParseTab accepts "followers" or "following" in any case.
func ParseTab(raw string) (Tab, error) {
	switch Tab(strings.ToLower(strings.TrimSpace(raw))) {
	case TabFollowers:
		return TabFollowers, nil
	case TabFollowing:
		return TabFollowing, nil
	default:
		return "", services.Wrap(services.ErrValidation, "panels", "input", fmt.Sprintf("unknown tab %q", raw), nil)
	}
}

// FollowersPanel lists a user's followers or followed accounts. Switching tabs
// with a username already entered re-fetches for the new tab.
type FollowersPanel struct {
	*Panel[[]api.User]
	jobs         Jobs
	defaultCount int

	mu       sync.Mutex
	tab      Tab
	username string
	count    int
}

func NewFollowersPanel(jobs Jobs, opts monitor.Options, defaultCount int) *FollowersPanel {
	return &FollowersPanel{
		Panel:        newPanel("followers", jobs, opts, api.NormalizeUsers),
		jobs:         jobs,
		defaultCount: defaultCount,
		tab:          TabFollowers,
	}
}

// Tab returns the current tab.
func (p *FollowersPanel) Tab() Tab {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tab
}

// Submit validates input and starts a fetch for the current tab.
func (p *FollowersPanel) Submit(ctx context.Context, username string, count int, h Handlers[[]api.User]) (*Job[[]api.User], error) {
	user, err := Username(username)
	if err != nil {
		return nil, err
	}
	count, err = Count(api.CountFollow, count, p.defaultCount)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	tab := p.tab
	p.mu.Unlock()

	job, err := p.run(ctx, func(ctx context.Context) (string, error) {
		if tab == TabFollowing {
			return p.jobs.UserFollowing(ctx, user, count)
		}
		return p.jobs.UserFollowers(ctx, user, count)
	}, h)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.username = user
	p.count = count
	p.mu.Unlock()
	return job, nil
}

// SwitchTab changes the tab. When a username was already submitted it starts
// a fetch for the new tab and returns that job; otherwise it returns nil.
func (p *FollowersPanel) SwitchTab(ctx context.Context, tab Tab, h Handlers[[]api.User]) (*Job[[]api.User], error) {
	if _, err := ParseTab(string(tab)); err != nil {
		return nil, err
	}
	p.mu.Lock()
	if p.tab == tab {
		p.mu.Unlock()
		return nil, nil
	}
	if p.Active() {
		p.mu.Unlock()
		return nil, services.Wrap(services.ErrJobActive, p.Name(), "switch tab", "wait for the running job or cancel it first", nil)
	}
	p.tab = tab
	username, count := p.username, p.count
	p.mu.Unlock()

	if username == "" {
		return nil, nil
	}
	return p.Submit(ctx, username, count, h)
}

// Fetch runs one fetch for tab to completion.
func (p *FollowersPanel) Fetch(ctx context.Context, tab Tab, username string, count int, progress func(api.TaskStatus, int)) ([]api.User, error) {
	if _, err := ParseTab(string(tab)); err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.tab = tab
	p.mu.Unlock()
	job, err := p.Submit(ctx, username, count, Handlers[[]api.User]{OnProgress: progress})
	if err != nil {
		return nil, err
	}
	return job.Wait(ctx)
}

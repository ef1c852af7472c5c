package panels

import (
	"context"

	"twix/internal/api"
	"twix/internal/monitor"
)

// LoginPanel runs a scraper login for a stored credential.
type LoginPanel struct {
	*Panel[api.LoginResult]
	jobs Jobs
}

func NewLoginPanel(jobs Jobs, opts monitor.Options) *LoginPanel {
	return &LoginPanel{Panel: newPanel("login", jobs, opts, api.NormalizeLogin), jobs: jobs}
}

// Submit starts a login job for credentialName.
func (p *LoginPanel) Submit(ctx context.Context, credentialName string, h Handlers[api.LoginResult]) (*Job[api.LoginResult], error) {
	name, err := required("credential name", credentialName)
	if err != nil {
		return nil, err
	}
	return p.run(ctx, func(ctx context.Context) (string, error) {
		return p.jobs.Login(ctx, api.LoginRequest{CredentialName: name})
	}, h)
}

// Login runs a login job to completion.
func (p *LoginPanel) Login(ctx context.Context, credentialName string, progress func(api.TaskStatus, int)) (api.LoginResult, error) {
	job, err := p.Submit(ctx, credentialName, Handlers[api.LoginResult]{OnProgress: progress})
	if err != nil {
		return api.LoginResult{}, err
	}
	return job.Wait(ctx)
}

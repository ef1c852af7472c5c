package panels

import (
	"context"
	"sort"
	"strings"

	"twix/internal/api"
	"twix/internal/monitor"
	"twix/internal/services"
)

// CredentialStore is the backend surface for stored scraping accounts.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, creds api.Credentials) (api.Settings, error)
	ListCredentials(ctx context.Context) ([]api.Settings, error)
	UpdateCredentials(ctx context.Context, id string, creds api.Credentials) (api.Settings, error)
	DeleteCredentials(ctx context.Context, id string) error
}

// CredentialsPanel manages stored accounts and logs in with them.
type CredentialsPanel struct {
	store CredentialStore
	login *LoginPanel
}

func NewCredentialsPanel(store CredentialStore, jobs Jobs, opts monitor.Options) *CredentialsPanel {
	return &CredentialsPanel{store: store, login: NewLoginPanel(jobs, opts)}
}

// List returns stored accounts sorted by credential name.
func (p *CredentialsPanel) List(ctx context.Context) ([]api.Settings, error) {
	items, err := p.store.ListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].CredentialName) < strings.ToLower(items[j].CredentialName)
	})
	return items, nil
}

// Create stores a new account. Every field is required.
func (p *CredentialsPanel) Create(ctx context.Context, creds api.Credentials) (api.Settings, error) {
	var err error
	if creds.CredentialName, err = required("credential name", creds.CredentialName); err != nil {
		return api.Settings{}, err
	}
	if creds.Username, err = Username(creds.Username); err != nil {
		return api.Settings{}, err
	}
	if strings.TrimSpace(creds.Password) == "" {
		return api.Settings{}, services.Wrap(services.ErrValidation, "panels", "input", "password is required", nil)
	}
	return p.store.SaveCredentials(ctx, creds)
}

// Update replaces an account. Empty fields are sent as-is so the backend keeps
// its stored values.
func (p *CredentialsPanel) Update(ctx context.Context, id string, creds api.Credentials) (api.Settings, error) {
	id, err := required("credential id", id)
	if err != nil {
		return api.Settings{}, err
	}
	creds.CredentialName = strings.TrimSpace(creds.CredentialName)
	creds.Username = strings.TrimPrefix(strings.TrimSpace(creds.Username), "@")
	if creds.CredentialName == "" && creds.Username == "" && creds.Password == "" {
		return api.Settings{}, services.Wrap(services.ErrValidation, "panels", "input", "nothing to update", nil)
	}
	return p.store.UpdateCredentials(ctx, id, creds)
}

// Delete removes an account.
func (p *CredentialsPanel) Delete(ctx context.Context, id string) error {
	id, err := required("credential id", id)
	if err != nil {
		return err
	}
	return p.store.DeleteCredentials(ctx, id)
}

// Login runs the login flow for a stored account.
func (p *CredentialsPanel) Login(ctx context.Context, credentialName string, progress func(api.TaskStatus, int)) (api.LoginResult, error) {
	return p.login.Login(ctx, credentialName, progress)
}

// LoginPanel exposes the panel used for logins, for cancellation.
func (p *CredentialsPanel) LoginPanel() *LoginPanel {
	return p.login
}

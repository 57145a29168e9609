package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
)

var _ Platform = (*PlatformService)(nil)

// PlatformService implements [Platform] on top of an [APIService].
type PlatformService struct {
	api *APIService
}

// NewPlatformService creates a [PlatformService] using api for transport.
func NewPlatformService(api *APIService) *PlatformService {
	return &PlatformService{api: api}
}

type authStatus struct {
	AuthEnabled bool `json:"auth_enabled"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type jobAccepted struct {
	JobID     string `json:"job_id"`
	CommandID string `json:"command_id"`
}

func (j jobAccepted) id() string {
	if j.JobID != "" {
		return j.JobID
	}
	return j.CommandID
}

// Me calls GET /auth/me.
func (p *PlatformService) Me(ctx context.Context) (*models.Identity, error) {
	resp, err := p.api.Get(ctx, "/auth/me")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	if isAuthFailure(resp.StatusCode) {
		return nil, fmt.Errorf("%w: identity check returned %d", shared.ErrUnauthenticated, resp.StatusCode)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: identity check returned %d", shared.ErrTransport, resp.StatusCode)
	}

	var identity models.Identity
	if err := resp.Decode(&identity); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	if err := identity.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	return &identity, nil
}

// AuthEnabled calls GET /auth/status.
func (p *PlatformService) AuthEnabled(ctx context.Context) (bool, error) {
	resp, err := p.api.Get(ctx, "/auth/status")
	if err != nil {
		return true, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	if !resp.OK() {
		return true, fmt.Errorf("%w: auth status returned %d", shared.ErrTransport, resp.StatusCode)
	}

	var status authStatus
	if err := resp.Decode(&status); err != nil {
		return true, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	return status.AuthEnabled, nil
}

// Login calls POST /auth/login.
func (p *PlatformService) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	resp, err := p.api.PostJSON(ctx, "/auth/login", loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}

	if isAuthFailure(resp.StatusCode) || resp.StatusCode == http.StatusBadRequest {
		return nil, fmt.Errorf("%w: invalid credentials", shared.ErrLoginFailed)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: login returned %d", shared.ErrTransport, resp.StatusCode)
	}

	var identity models.Identity
	if !resp.IsJSON || resp.Decode(&identity) != nil || identity.Validate() != nil {
		return nil, nil
	}

	return &identity, nil
}

// Logout calls POST /auth/logout.
func (p *PlatformService) Logout(ctx context.Context) error {
	resp, err := p.api.Post(ctx, "/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	if !resp.OK() && !isAuthFailure(resp.StatusCode) {
		return fmt.Errorf("%w: logout returned %d", shared.ErrTransport, resp.StatusCode)
	}
	return nil
}

// GeneratePodcast calls POST /notebooks/{id}/podcasts.
func (p *PlatformService) GeneratePodcast(ctx context.Context, notebookID string, params PodcastParams) (string, error) {
	return p.generate(ctx, notebookID, "podcasts", params)
}

// GenerateQuiz calls POST /notebooks/{id}/quizzes.
func (p *PlatformService) GenerateQuiz(ctx context.Context, notebookID string, params QuizParams) (string, error) {
	return p.generate(ctx, notebookID, "quizzes", params)
}

func (p *PlatformService) generate(ctx context.Context, notebookID, kind string, params any) (string, error) {
	if notebookID == "" {
		return "", fmt.Errorf("%w: notebook id", shared.ErrMissingArgument)
	}

	resp, err := p.api.PostJSON(ctx, notebookPath(notebookID, kind), params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}
	if err := statusError(resp, "generation"); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}

	var accepted jobAccepted
	if err := resp.Decode(&accepted); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrGenerationFailed, err)
	}
	if accepted.id() == "" {
		return "", fmt.Errorf("%w: response carried no job id", shared.ErrGenerationFailed)
	}

	return accepted.id(), nil
}

// Artifacts calls GET /notebooks/{id}/artifacts.
func (p *PlatformService) Artifacts(ctx context.Context, notebookID string) ([]models.Artifact, error) {
	if notebookID == "" {
		return nil, fmt.Errorf("%w: notebook id", shared.ErrMissingArgument)
	}

	var artifacts []models.Artifact
	if err := p.list(ctx, notebookPath(notebookID, "artifacts"), &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// Notebooks calls GET /notebooks.
func (p *PlatformService) Notebooks(ctx context.Context) ([]models.Notebook, error) {
	var notebooks []models.Notebook
	if err := p.list(ctx, "/notebooks", &notebooks); err != nil {
		return nil, err
	}
	return notebooks, nil
}

// Modules calls GET /modules.
func (p *PlatformService) Modules(ctx context.Context) ([]models.Module, error) {
	var modules []models.Module
	if err := p.list(ctx, "/modules", &modules); err != nil {
		return nil, err
	}
	return modules, nil
}

func (p *PlatformService) list(ctx context.Context, path string, target any) error {
	resp, err := p.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	if err := statusError(resp, path); err != nil {
		return err
	}
	if err := resp.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	return nil
}

// statusError maps a non-2xx response to the error taxonomy.
func statusError(resp *APIResponse, what string) error {
	switch {
	case resp.OK():
		return nil
	case isAuthFailure(resp.StatusCode):
		return fmt.Errorf("%w: %s returned %d", shared.ErrUnauthenticated, what, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s returned %d", shared.ErrNotebookNotFound, what, resp.StatusCode)
	case resp.StatusCode == http.StatusBadGateway, resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %w: %s returned %d", shared.ErrTransport, shared.ErrServiceUnavailable, what, resp.StatusCode)
	default:
		return fmt.Errorf("%w: %s returned %d", shared.ErrTransport, what, resp.StatusCode)
	}
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func notebookPath(notebookID, suffix string) string {
	return "/notebooks/" + url.PathEscape(notebookID) + "/" + suffix
}

// IsUnauthenticated reports whether err is an authoritative authentication failure.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, shared.ErrUnauthenticated)
}

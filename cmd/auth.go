package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/nbx/internal/auth"
	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// sessionStatus is the JSON shape of `auth status`.
type sessionStatus struct {
	State         string           `json:"state"`
	Authenticated bool             `json:"authenticated"`
	Requirement   string           `json:"auth_requirement"`
	Route         string           `json:"route"`
	User          *models.Identity `json:"user,omitempty"`
	LastAuthCheck *time.Time       `json:"last_auth_check,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func newSessionStatus(snap auth.Snapshot, route string) sessionStatus {
	status := sessionStatus{
		State:         snap.State.String(),
		Authenticated: snap.IsAuthenticated,
		Requirement:   snap.Requirement.String(),
		Route:         route,
		User:          snap.User,
	}
	if !snap.LastAuthCheck.IsZero() {
		checked := snap.LastAuthCheck
		status.LastAuthCheck = &checked
	}
	if snap.Error != nil {
		status.Error = snap.Error.Error()
	}
	return status
}

// AuthLogin logs in interactively and prints the landing route of the account's role.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	in := bufio.NewReader(r.input)

	username := cmd.String("username")
	if username == "" {
		var err error
		if username, err = r.prompt(in, "Username: "); err != nil {
			return err
		}
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.prompt(in, "Password: "); err != nil {
			return err
		}
	}

	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	r.logger.Info("logging in", "username", username)

	user, err := r.coordinator.Login(ctx, username, password)
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in as %s (%s)\n", user.Username, user.Role)
	r.writePlain("Landing: %s\n", r.nav.Path())
	return nil
}

func (r *Runner) prompt(in *bufio.Reader, label string) (string, error) {
	r.writePlain("%s", label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// AuthLogout ends the session. The stored identity is cleared even when the platform is unreachable.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.coordinator.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus runs session initialization and reports the outcome.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Debug("checking session status")

	r.coordinator.Initialize(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	status := newSessionStatus(r.coordinator.Snapshot(), r.nav.Path())
	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Session")
	r.writePlain("State: %s\n", status.State)
	r.writePlain("Auth requirement: %s\n", status.Requirement)
	r.writePlain("Route: %s\n", status.Route)

	if status.User != nil {
		r.writePlain("User: %s (%s)\n", status.User.Username, status.User.Role)
		if status.User.CompanyID != "" {
			r.writePlain("Company: %s\n", status.User.CompanyID)
		}
	}
	if status.LastAuthCheck != nil {
		r.writePlain("Last checked: %s\n", status.LastAuthCheck.Local().Format(time.RFC1123))
	}
	if status.Error != "" {
		r.writePlain("Error: %s\n", status.Error)
	}

	if status.Authenticated {
		r.writePlain("Authentication: ✓ Authenticated\n")
	} else if status.State == auth.StateNotRequired.String() {
		r.writePlain("Authentication: not required by this deployment\n")
	} else {
		r.writePlain("Authentication: ✗ Not authenticated\n")
	}
	return nil
}

// AuthWhoami asks the platform directly, bypassing the stored identity.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	user, err := r.platform.Me(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("ID: %s\n", user.ID)
	r.writePlain("Username: %s\n", user.Username)
	r.writePlain("Role: %s\n", user.Role)
	if user.CompanyID != "" {
		r.writePlain("Company: %s\n", user.CompanyID)
	}
	return nil
}

// Home lists notebooks for admins and modules for learners.
//
// Deployments without authentication have no role and get the notebook list.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	snap, err := r.session(ctx)
	if err != nil {
		return err
	}

	if snap.User != nil && !snap.User.Role.IsAdmin() {
		modules, err := r.platform.Modules(ctx)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(modules, true)
		}
		return formatter.RenderModules(r.output, modules)
	}

	notebooks, err := r.platform.Notebooks(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(notebooks, true)
	}
	return formatter.RenderNotebooks(r.output, notebooks)
}

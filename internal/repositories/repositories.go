package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/nbx/internal/models"
)

var _ models.IdentityRepository = (*IdentityRepository)(nil)

// IdentityRepository implements [models.IdentityRepository] on the single-row identity table.
type IdentityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new [IdentityRepository] with the given database connection
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Load returns the stored identity, or nil when the table is empty.
func (r *IdentityRepository) Load(ctx context.Context) (*models.PersistedIdentity, error) {
	query := `
		SELECT user_id, role, company_id, username, is_authenticated, last_auth_check
		FROM identity
		WHERE id = 1
	`

	var (
		user          models.Identity
		role          string
		authenticated bool
		lastCheck     sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query).Scan(&user.ID, &role, &user.CompanyID, &user.Username, &authenticated, &lastCheck)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query identity: %w", err)
	}

	user.Role = models.Role(role)
	persisted := &models.PersistedIdentity{User: &user, IsAuthenticated: authenticated}
	if lastCheck.Valid {
		persisted.LastAuthCheck = lastCheck.Time
	}

	return persisted, nil
}

// Save replaces the stored identity.
func (r *IdentityRepository) Save(ctx context.Context, p models.PersistedIdentity) error {
	if p.User == nil {
		return fmt.Errorf("validation failed: identity user is required")
	}
	if err := p.User.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO identity (id, user_id, role, company_id, username, is_authenticated, last_auth_check, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			role = excluded.role,
			company_id = excluded.company_id,
			username = excluded.username,
			is_authenticated = excluded.is_authenticated,
			last_auth_check = excluded.last_auth_check,
			updated_at = excluded.updated_at
	`

	var lastCheck sql.NullTime
	if !p.LastAuthCheck.IsZero() {
		lastCheck = sql.NullTime{Time: p.LastAuthCheck, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		p.User.ID, string(p.User.Role), p.User.CompanyID, p.User.Username, p.IsAuthenticated, lastCheck, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}

	return nil
}

// Clear removes the stored identity. Clearing an empty table is not an error.
func (r *IdentityRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM identity WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

// CookieRepository stores the platform session cookies by name.
type CookieRepository struct {
	db *sql.DB
}

// NewCookieRepository creates a new [CookieRepository] with the given database connection
func NewCookieRepository(db *sql.DB) *CookieRepository {
	return &CookieRepository{db: db}
}

// LoadCookies returns every stored cookie ordered by name.
func (r *CookieRepository) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name, value FROM session_cookies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		var c http.Cookie
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		cookies = append(cookies, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cookies: %w", err)
	}

	return cookies, nil
}

// ReplaceCookies swaps the stored set for cookies in a single transaction.
func (r *CookieRepository) ReplaceCookies(ctx context.Context, cookies []*http.Cookie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM session_cookies"); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}

	now := time.Now()
	for _, c := range cookies {
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO session_cookies (name, value, updated_at) VALUES (?, ?, ?)",
			c.Name, c.Value, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cookies: %w", err)
	}
	return nil
}

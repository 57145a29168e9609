package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/shared"
)

// CookieStore persists the session cookies of the platform origin.
type CookieStore interface {
	LoadCookies(ctx context.Context) ([]*http.Cookie, error)
	ReplaceCookies(ctx context.Context, cookies []*http.Cookie) error
}

// SessionJar is an [http.CookieJar] that mirrors the platform origin's cookies into a [CookieStore],
// so a login made by one process is visible to the next.
type SessionJar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	store  CookieStore
	logger *log.Logger
	mu     sync.Mutex
}

// NewSessionJar creates a jar for baseURL and seeds it from store.
func NewSessionJar(ctx context.Context, baseURL string, store CookieStore, logger *log.Logger) (*SessionJar, error) {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	origin, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url %q: %v", shared.ErrInvalidConfig, baseURL, err)
	}
	origin.Path = "/"

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	cookies, err := store.LoadCookies(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cookies {
		c.Path = "/"
	}
	jar.SetCookies(origin, cookies)

	logger.Debug("session cookies restored", "count", len(cookies))
	return &SessionJar{jar: jar, origin: origin, store: store, logger: logger}, nil
}

// Cookies implements [http.CookieJar].
func (j *SessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// SetCookies implements [http.CookieJar]. Cookies for other hosts are kept in memory only.
func (j *SessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	if err := j.store.ReplaceCookies(context.Background(), j.jar.Cookies(j.origin)); err != nil {
		j.logger.Warn("failed to persist session cookies", "error", err)
	}
}

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
)

// IdentityStore caches the last known identity in memory and writes it through to durable storage.
//
// Storage failures are logged and never surfaced; a failed load behaves like an empty store.
type IdentityStore struct {
	repo   models.IdentityRepository
	logger *log.Logger

	mu       sync.RWMutex
	current  models.PersistedIdentity
	hydrated bool
	written  bool // a Save or Clear landed before hydration finished

	once  sync.Once
	ready chan struct{}
}

// NewIdentityStore creates an [IdentityStore] backed by repo. Call [IdentityStore.Hydrate] to load it.
func NewIdentityStore(repo models.IdentityRepository, logger *log.Logger) *IdentityStore {
	return &IdentityStore{
		repo:   repo,
		logger: logger,
		ready:  make(chan struct{}),
	}
}

// Hydrate starts loading the persisted identity in the background. Only the first call has an effect.
func (s *IdentityStore) Hydrate(ctx context.Context) {
	s.once.Do(func() {
		go s.hydrate(ctx)
	})
}

func (s *IdentityStore) hydrate(ctx context.Context) {
	defer close(s.ready)

	stored, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load persisted identity", "error", err)
		stored = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.written && stored != nil {
		s.current = *stored
	}
	s.hydrated = true
	s.logger.Debug("identity store hydrated", "authenticated", s.current.Trusted())
}

// Ready returns a channel that is closed once hydration has finished.
func (s *IdentityStore) Ready() <-chan struct{} {
	return s.ready
}

// Hydrated reports whether hydration has finished. It never reverts to false.
func (s *IdentityStore) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// Load returns the current snapshot. Before hydration the snapshot is empty.
func (s *IdentityStore) Load() models.PersistedIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hydrated && !s.written {
		return models.PersistedIdentity{}
	}

	snapshot := s.current
	if snapshot.User != nil {
		user := *snapshot.User
		snapshot.User = &user
	}
	return snapshot
}

// Save records user as authenticated and stamps the auth check time.
func (s *IdentityStore) Save(ctx context.Context, user models.Identity) {
	snapshot := models.PersistedIdentity{
		User:            &user,
		IsAuthenticated: true,
		LastAuthCheck:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.current = snapshot
	s.written = true
	s.mu.Unlock()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger.Warn("failed to persist identity", "user", user.ID, "error", err)
	}
}

// Clear removes the user and the authenticated flag. Clearing an empty store is a no-op.
func (s *IdentityStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.current = models.PersistedIdentity{}
	s.written = true
	s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear persisted identity", "error", err)
	}
}

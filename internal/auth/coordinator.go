package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	"golang.org/x/sync/singleflight"
)

// State is a step of the initialization protocol.
type State int

const (
	StateUninitialized State = iota
	StateWaitingForHydration
	StateProbing
	StateVerifying
	StateAuthenticated
	StateUnauthenticated
	StateNotRequired // the deployment does not enforce authentication
)

func (s State) String() string {
	switch s {
	case StateWaitingForHydration:
		return "waiting_for_hydration"
	case StateProbing:
		return "probing"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateNotRequired:
		return "not_required"
	default:
		return "uninitialized"
	}
}

// Client is the slice of the platform API the coordinator talks to.
type Client interface {
	IdentityChecker
	AuthEnabled(ctx context.Context) (bool, error)
	Login(ctx context.Context, username, password string) (*models.Identity, error)
	Logout(ctx context.Context) error
}

// Snapshot is what the UI reads from the [Coordinator]. IsAuthenticated implies User != nil.
type Snapshot struct {
	State           State
	Initializing    bool
	IsAuthenticated bool
	User            *models.Identity
	Requirement     models.AuthRequirement
	Error           error
	LastAuthCheck   time.Time
}

// Allowed reports whether protected views may render.
func (s Snapshot) Allowed() bool {
	return s.IsAuthenticated || s.State == StateNotRequired
}

// CoordinatorOpts configures a [Coordinator].
type CoordinatorOpts struct {
	Store     *IdentityStore
	Client    Client
	Navigator Navigator
	Logger    *log.Logger

	// Enforced is the configured auth enforcement. False skips the probe and all verification.
	Enforced bool

	// CheckTTL bounds how long a persisted authenticated identity is trusted without verification.
	// Zero trusts it until the next explicit logout or failed verification.
	CheckTTL time.Duration
}

// Coordinator drives session initialization, role redirects, login and logout.
type Coordinator struct {
	store    *IdentityStore
	client   Client
	verifier *SessionVerifier
	nav      Navigator
	logger   *log.Logger
	enforced bool
	ttl      time.Duration

	group       singleflight.Group
	unsubscribe func()

	// life bounds every shared run and ends on Close.
	life     context.Context
	shutdown context.CancelFunc

	mu           sync.Mutex
	state        State
	initializing bool
	user         *models.Identity
	lastCheck    time.Time
	err          error
	requirement  models.AuthRequirement
	epoch        int // bumped by interactive login and logout
	closed       bool
	waiters      int                // callers blocked in Initialize
	cancelRun    context.CancelFunc // cancels the shared run once no caller waits
}

// NewCoordinator creates a [Coordinator] and subscribes it to navigation for role redirects.
func NewCoordinator(opts CoordinatorOpts) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	life, shutdown := context.WithCancel(context.Background())
	c := &Coordinator{
		life:     life,
		shutdown: shutdown,
		store:    opts.Store,
		client:   opts.Client,
		verifier: NewSessionVerifier(opts.Client),
		nav:      opts.Navigator,
		logger:   logger,
		enforced: opts.Enforced,
		ttl:      opts.CheckTTL,
	}
	c.unsubscribe = c.nav.Subscribe(c.redirectFromRoot)
	return c
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:           c.state,
		Initializing:    c.initializing,
		IsAuthenticated: c.state == StateAuthenticated && c.user != nil,
		Requirement:     c.requirement,
		Error:           c.err,
		LastAuthCheck:   c.lastCheck,
	}
	if c.user != nil {
		user := *c.user
		snap.User = &user
	}
	return snap
}

// Initialize runs the initialization protocol. Concurrent calls share a single run.
//
// A caller whose ctx ends stops waiting. The shared run keeps going while any other caller waits and is
// abandoned once the last one leaves or the coordinator closes.
//
// Initialize never fails; the outcome is observable through [Coordinator.Snapshot].
func (c *Coordinator) Initialize(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.waiters++
	c.mu.Unlock()
	defer c.leave()

	ch := c.group.DoChan("initialize", func() (any, error) {
		runCtx := c.startRun()
		defer c.endRun()
		c.initialize(runCtx)
		return nil, nil
	})

	select {
	case <-ch:
	case <-ctx.Done():
	}
}

// startRun derives the context of a shared run from the coordinator lifetime.
func (c *Coordinator) startRun() context.Context {
	ctx, cancel := context.WithCancel(c.life)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waiters == 0 {
		cancel()
		return ctx
	}
	c.cancelRun = cancel
	return ctx
}

func (c *Coordinator) endRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
}

// leave drops a waiting caller and abandons the shared run when it was the last one.
func (c *Coordinator) leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiters--
	if c.waiters == 0 && c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
}

func (c *Coordinator) initialize(ctx context.Context) {
	if c.stillAuthenticated() {
		c.logger.Debug("session already authenticated, skipping initialization")
		c.redirectFromRoot(c.nav.Path())
		return
	}

	c.mu.Lock()
	epoch := c.epoch
	c.state = StateWaitingForHydration
	c.initializing = true
	c.mu.Unlock()
	defer c.finish()

	c.store.Hydrate(context.WithoutCancel(ctx))
	select {
	case <-c.store.Ready():
	case <-ctx.Done():
		c.logger.Debug("initialization abandoned before hydration", "error", ctx.Err())
		return
	}

	persisted := c.store.Load()

	path := c.nav.Path()
	if models.IsPublicRoute(path) {
		c.logger.Debug("public route, skipping verification", "path", path)
		if persisted.Trusted() {
			c.commit(epoch, StateAuthenticated, persisted.User, persisted.LastAuthCheck, nil)
		} else {
			c.commit(epoch, StateUnauthenticated, nil, time.Time{}, nil)
		}
		return
	}

	if persisted.Trusted() && persisted.Fresh(time.Now(), c.ttl) {
		c.logger.Debug("persisted identity trusted", "user", persisted.User.ID)
		if c.commit(epoch, StateAuthenticated, persisted.User, persisted.LastAuthCheck, nil) {
			c.redirectFromRoot(c.nav.Path())
		}
		return
	}

	c.setState(StateProbing)
	if c.probe(ctx) == models.AuthNotRequired {
		c.commit(epoch, StateNotRequired, nil, time.Time{}, nil)
		return
	}

	c.setState(StateVerifying)
	identity, err := c.verifier.Verify(ctx)
	if ctx.Err() != nil {
		c.logger.Debug("initialization abandoned during verification", "error", ctx.Err())
		return
	}

	if err != nil {
		if !c.canCommit(epoch) {
			return
		}
		c.logger.Info("session verification failed", "error", err, "unauthenticated", errors.Is(err, shared.ErrUnauthenticated))
		c.store.Clear(ctx)
		if c.commit(epoch, StateUnauthenticated, nil, time.Time{}, err) {
			c.nav.Navigate(models.RouteLogin)
		}
		return
	}

	if !c.canCommit(epoch) {
		return
	}
	c.store.Save(ctx, *identity)
	if c.commit(epoch, StateAuthenticated, identity, c.store.Load().LastAuthCheck, nil) {
		c.redirectFromRoot(c.nav.Path())
	}
}

// stillAuthenticated reports whether the in-memory session is authenticated and its persisted check is
// within the TTL, so a repeated Initialize can keep it without passing through the waiting states.
func (c *Coordinator) stillAuthenticated() bool {
	c.mu.Lock()
	authenticated := !c.closed && c.state == StateAuthenticated && c.user != nil
	c.mu.Unlock()
	if !authenticated {
		return false
	}

	persisted := c.store.Load()
	return persisted.Trusted() && persisted.Fresh(time.Now(), c.ttl)
}

// probe resolves the auth requirement once per coordinator.
func (c *Coordinator) probe(ctx context.Context) models.AuthRequirement {
	c.mu.Lock()
	req := c.requirement
	c.mu.Unlock()
	if req != models.AuthUnknown {
		return req
	}

	req = models.AuthRequired
	if !c.enforced {
		req = models.AuthNotRequired
	} else if enabled, err := c.client.AuthEnabled(ctx); err != nil {
		c.logger.Warn("auth requirement probe failed, assuming required", "error", err)
	} else if !enabled {
		req = models.AuthNotRequired
	}

	c.mu.Lock()
	if c.requirement == models.AuthUnknown {
		c.requirement = req
	}
	req = c.requirement
	c.mu.Unlock()

	c.logger.Debug("auth requirement resolved", "requirement", req)
	return req
}

// Login authenticates interactively and navigates to the landing route of the user's role.
func (c *Coordinator) Login(ctx context.Context, username, password string) (*models.Identity, error) {
	identity, err := c.client.Login(ctx, username, password)
	if err == nil && identity == nil {
		identity, err = c.verifier.Verify(ctx)
	}
	if err != nil {
		c.mu.Lock()
		if !c.closed && c.state != StateAuthenticated {
			c.state = StateUnauthenticated
			c.err = err
		}
		c.mu.Unlock()
		return nil, err
	}

	c.store.Save(ctx, *identity)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return identity, nil
	}
	c.epoch++
	c.state = StateAuthenticated
	c.initializing = false
	c.user = identity
	c.lastCheck = c.store.Load().LastAuthCheck
	c.err = nil
	c.mu.Unlock()

	c.logger.Info("logged in", "user", identity.Username, "role", identity.Role)
	c.nav.Navigate(models.LandingPath(identity.Role))
	return identity, nil
}

// Logout ends the session. The local identity is cleared even when the server call fails.
func (c *Coordinator) Logout(ctx context.Context) {
	if err := c.client.Logout(ctx); err != nil {
		c.logger.Warn("server logout failed", "error", err)
	}

	c.store.Clear(ctx)

	c.mu.Lock()
	closed := c.closed
	if !closed {
		c.epoch++
		c.state = StateUnauthenticated
		c.initializing = false
		c.user = nil
		c.lastCheck = time.Time{}
		c.err = nil
	}
	c.mu.Unlock()

	if !closed {
		c.nav.Navigate(models.RouteLogin)
	}
}

// Close decommissions the coordinator. Results arriving afterwards are discarded.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.shutdown()
	c.unsubscribe()
}

// redirectFromRoot sends an authenticated user at the root to the landing route of their role.
func (c *Coordinator) redirectFromRoot(path string) {
	if path != models.RouteRoot {
		return
	}

	c.mu.Lock()
	if c.closed || c.state != StateAuthenticated || c.user == nil {
		c.mu.Unlock()
		return
	}
	target := models.LandingPath(c.user.Role)
	c.mu.Unlock()

	c.nav.Navigate(target)
}

func (c *Coordinator) commit(epoch int, state State, user *models.Identity, checked time.Time, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.epoch != epoch {
		return false
	}
	c.state = state
	c.user = user
	c.lastCheck = checked
	c.err = err
	return true
}

func (c *Coordinator) canCommit(epoch int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.epoch == epoch
}

func (c *Coordinator) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.state = state
	}
}

// finish clears the initializing flag on every exit path.
func (c *Coordinator) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initializing = false
}

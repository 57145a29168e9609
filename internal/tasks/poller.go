package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultInterval   = 15 * time.Second
	DefaultStaleAfter = 5 * time.Minute
	DefaultMaxRetries = 3
	DefaultBackoff    = 2 * time.Second
)

// Decision is the outcome of [Policy.NextPoll].
//
// When Poll is false the listing is left alone and Delay is how long it is considered fresh.
type Decision struct {
	Poll  bool
	Delay time.Duration
}

// Policy picks the polling cadence from an artifact listing.
type Policy struct {
	Interval   time.Duration
	StaleAfter time.Duration
}

// DefaultPolicy polls every 15 seconds while something generates and treats idle listings as fresh for 5 minutes.
func DefaultPolicy() Policy {
	return Policy{Interval: DefaultInterval, StaleAfter: DefaultStaleAfter}
}

// NewPolicy builds a [Policy] from configuration, falling back to defaults for unset values.
func NewPolicy(cfg shared.PollingConfig) Policy {
	p := DefaultPolicy()
	if cfg.Interval > 0 {
		p.Interval = cfg.Interval
	}
	if cfg.StaleAfter > 0 {
		p.StaleAfter = cfg.StaleAfter
	}
	return p
}

// NextPoll keeps polling at the short interval while any podcast carries the in-progress marker.
func (p Policy) NextPoll(artifacts []models.Artifact) Decision {
	if models.AnyInProgress(artifacts) {
		return Decision{Poll: true, Delay: p.Interval}
	}
	return Decision{Poll: false, Delay: p.StaleAfter}
}

// ArtifactLister fetches the artifact listing of a notebook.
type ArtifactLister interface {
	Artifacts(ctx context.Context, notebookID string) ([]models.Artifact, error)
}

// PollerOpts configures a [Poller].
type PollerOpts struct {
	Client     ArtifactLister
	Tracker    *JobTracker // optional; reconciled after every successful fetch
	Policy     Policy
	MaxRetries int
	Backoff    time.Duration // multiplied by the number of consecutive failures
	Logger     *log.Logger
}

// Poller re-fetches artifact listings for as long as something is generating.
type Poller struct {
	client     ArtifactLister
	tracker    *JobTracker
	policy     Policy
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger
}

// NewPoller creates a [Poller].
func NewPoller(opts PollerOpts) *Poller {
	p := &Poller{
		client:     opts.Client,
		tracker:    opts.Tracker,
		policy:     opts.Policy,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
	}
	if p.policy.Interval <= 0 || p.policy.StaleAfter <= 0 {
		p.policy = DefaultPolicy()
	}
	if p.maxRetries < 0 {
		p.maxRetries = DefaultMaxRetries
	}
	if p.backoff <= 0 {
		p.backoff = DefaultBackoff
	}
	if p.logger == nil {
		p.logger = shared.NewLogger(nil)
	}
	return p
}

// NewPollerFromConfig creates a [Poller] using the polling section of the configuration.
func NewPollerFromConfig(cfg shared.PollingConfig, client ArtifactLister, tracker *JobTracker, logger *log.Logger) *Poller {
	return NewPoller(PollerOpts{
		Client:     client,
		Tracker:    tracker,
		Policy:     NewPolicy(cfg),
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
}

// Policy returns the cadence the poller applies.
func (p *Poller) Policy() Policy {
	return p.policy
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Watch fetches the listing of notebookID until nothing is generating and returns the last listing.
//
// Fetch failures are retried with linear backoff. Once more than MaxRetries consecutive fetches fail
// Watch returns the last known listing with an error wrapping [shared.ErrPollExhausted].
// Cancelling ctx stops the loop immediately.
func (p *Poller) Watch(ctx context.Context, notebookID string, progress chan<- ProgressUpdate) ([]models.Artifact, error) {
	var (
		last     []models.Artifact
		failures int
	)

	for attempt := 1; ; attempt++ {
		sendProgress(progress, fetchArtifactsUpdate(attempt, notebookID))

		artifacts, err := p.client.Artifacts(ctx, notebookID)
		if ctx.Err() != nil {
			return last, ctx.Err()
		}

		if err != nil {
			failures++
			if failures > p.maxRetries {
				p.logger.Warn("artifact polling exhausted", "notebook", notebookID, "failures", failures, "error", err)
				snap := Snapshot{NotebookID: notebookID, Artifacts: last, Decision: Decision{Poll: false}}
				sendProgress(progress, pollStalledUpdate(snap, err))
				return last, fmt.Errorf("%w: %v", shared.ErrPollExhausted, err)
			}

			delay := p.backoff * time.Duration(failures)
			p.logger.Debug("artifact fetch failed", "notebook", notebookID, "failures", failures, "retry_in", delay, "error", err)
			sendProgress(progress, retryFetchUpdate(failures, p.maxRetries, delay, err))

			if err := sleep(ctx, delay); err != nil {
				return last, err
			}
			continue
		}

		failures = 0
		last = artifacts
		if p.tracker != nil {
			p.tracker.Reconcile(notebookID, artifacts)
		}

		decision := p.policy.NextPoll(artifacts)
		snap := Snapshot{NotebookID: notebookID, Artifacts: artifacts, Decision: decision, FetchedAt: time.Now()}
		sendProgress(progress, artifactsFetchedUpdate(attempt, snap))

		if !decision.Poll {
			sendProgress(progress, pollIdleUpdate(snap))
			return artifacts, nil
		}

		if err := sleep(ctx, decision.Delay); err != nil {
			return last, err
		}
	}
}

// WatchAll watches several notebooks concurrently. The first failure cancels the remaining watches.
func (p *Poller) WatchAll(ctx context.Context, notebookIDs []string, progress chan<- ProgressUpdate) (map[string][]models.Artifact, error) {
	var (
		mu      sync.Mutex
		results = make(map[string][]models.Artifact, len(notebookIDs))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range notebookIDs {
		g.Go(func() error {
			artifacts, err := p.Watch(gctx, id, progress)

			mu.Lock()
			results[id] = artifacts
			mu.Unlock()

			if err != nil {
				return fmt.Errorf("notebook %s: %w", id, err)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

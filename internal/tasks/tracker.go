package tasks

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
)

// JobTracker holds at most one active generation job for the session.
//
// It only drives optimistic UI. The artifact listing stays authoritative about what is generating.
type JobTracker struct {
	mu     sync.Mutex
	active *models.ActiveJob
	logger *log.Logger
}

// NewJobTracker creates an empty [JobTracker].
func NewJobTracker(logger *log.Logger) *JobTracker {
	return &JobTracker{logger: logger}
}

// Set records job as the active job. A job already tracked is replaced.
func (t *JobTracker) Set(job models.ActiveJob) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active != nil && t.active.JobID != job.JobID {
		t.logger.Debug("replacing active job", "previous", t.active.JobID, "job", job.JobID)
	}
	t.active = &job
}

// Clear forgets the active job.
func (t *JobTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = nil
}

// Active returns a copy of the active job, or nil.
func (t *JobTracker) Active() *models.ActiveJob {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return nil
	}
	job := *t.active
	return &job
}

// Reconcile clears the active job once a listing of its notebook shows nothing of its type generating.
//
// Reports whether the job was cleared.
func (t *JobTracker) Reconcile(notebookID string, artifacts []models.Artifact) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil || t.active.NotebookID != notebookID {
		return false
	}

	for _, a := range artifacts {
		if a.Type == t.active.ArtifactType && a.InProgress() {
			return false
		}
	}

	t.logger.Debug("active job finished", "job", t.active.JobID, "type", t.active.ArtifactType)
	t.active = nil
	return true
}

package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/nbx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
	Err     error  // Set on RetryFetch and PollStalled
}

// Operation phase enumeration
type Phase int

const (
	TriggerGeneration Phase = iota
	JobAccepted
	FetchArtifacts
	ArtifactsFetched
	RetryFetch
	PollIdle
	PollStalled
)

func (p Phase) String() string {
	switch p {
	case TriggerGeneration:
		return "trigger_generation"
	case JobAccepted:
		return "job_accepted"
	case FetchArtifacts:
		return "fetch_artifacts"
	case ArtifactsFetched:
		return "artifacts_fetched"
	case RetryFetch:
		return "retry_fetch"
	case PollIdle:
		return "poll_idle"
	case PollStalled:
		return "poll_stalled"
	default:
		return ""
	}
}

// Snapshot is the payload of [ArtifactsFetched], [PollIdle] and [PollStalled] updates.
type Snapshot struct {
	NotebookID string
	Artifacts  []models.Artifact
	Decision   Decision
	FetchedAt  time.Time
}

func triggerUpdate(kind models.ArtifactType, notebookID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TriggerGeneration,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Requesting %s generation for notebook %s...", kind, notebookID),
	}
}

func jobAcceptedUpdate(job models.ActiveJob) ProgressUpdate {
	return ProgressUpdate{
		Phase:   JobAccepted,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Generation accepted (job %s)", job.JobID),
		Data:    job,
	}
}

func fetchArtifactsUpdate(attempt int, notebookID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtifacts,
		Step:    attempt,
		Message: fmt.Sprintf("Fetching artifacts for notebook %s...", notebookID),
	}
}

func artifactsFetchedUpdate(attempt int, snap Snapshot) ProgressUpdate {
	pending := 0
	for _, a := range snap.Artifacts {
		if a.InProgress() {
			pending++
		}
	}
	return ProgressUpdate{
		Phase:   ArtifactsFetched,
		Step:    attempt,
		Total:   len(snap.Artifacts),
		Message: fmt.Sprintf("%d artifacts, %d generating; next poll in %s", len(snap.Artifacts), pending, snap.Decision.Delay),
		Data:    snap,
	}
}

func retryFetchUpdate(failures, maxRetries int, delay time.Duration, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RetryFetch,
		Step:    failures,
		Total:   maxRetries,
		Message: fmt.Sprintf("[%d/%d] Fetch failed, retrying in %s", failures, maxRetries, delay),
		Err:     err,
	}
}

func pollIdleUpdate(snap Snapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollIdle,
		Total:   len(snap.Artifacts),
		Message: fmt.Sprintf("Nothing generating; listing considered fresh for %s", snap.Decision.Delay),
		Data:    snap,
	}
}

func pollStalledUpdate(snap Snapshot, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollStalled,
		Total:   len(snap.Artifacts),
		Message: "Could not refresh artifacts; generation may still be running",
		Data:    snap,
		Err:     err,
	}
}

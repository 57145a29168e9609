package models

import (
	"strings"
	"time"
)

// InProgressPrefix marks an artifact id whose generation command has not completed yet.
//
// The platform lists a pending podcast under its command id, e.g. "command:abc".
const InProgressPrefix = "command:"

// ArtifactType names the kind of generated artifact.
type ArtifactType string

const (
	ArtifactPodcast ArtifactType = "podcast"
	ArtifactQuiz    ArtifactType = "quiz"
	ArtifactNote    ArtifactType = "note"
	ArtifactSummary ArtifactType = "summary"
)

// Artifact is one entry of a notebook's artifact listing.
type Artifact struct {
	ID        string       `json:"artifact_id"`
	Type      ArtifactType `json:"artifact_type"`
	Status    string       `json:"status,omitempty"`
	Title     string       `json:"title,omitempty"`
	CreatedAt *time.Time   `json:"created,omitempty"`
}

// InProgress reports whether the artifact is still being generated.
//
// Only podcasts carry the marker; other types are never reported in progress.
func (a Artifact) InProgress() bool {
	return a.Type == ArtifactPodcast && strings.HasPrefix(a.ID, InProgressPrefix)
}

// AnyInProgress reports whether any artifact of the listing is still being generated.
func AnyInProgress(artifacts []Artifact) bool {
	for _, a := range artifacts {
		if a.InProgress() {
			return true
		}
	}
	return false
}

// ActiveJob is the client-side record of an accepted generation request.
type ActiveJob struct {
	JobID        string
	ArtifactType ArtifactType
	NotebookID   string
	StartedAt    time.Time
}

// Notebook is an entry of the admin landing list.
type Notebook struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Module is an entry of the learner landing list.
type Module struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NotebookID string `json:"notebook_id"`
}

package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/services"
)

// Generator starts generation jobs on the platform.
type Generator interface {
	GeneratePodcast(ctx context.Context, notebookID string, params services.PodcastParams) (string, error)
	GenerateQuiz(ctx context.Context, notebookID string, params services.QuizParams) (string, error)
}

// GenerationService triggers generation and records accepted jobs in a [JobTracker].
type GenerationService struct {
	client  Generator
	tracker *JobTracker
	logger  *log.Logger
}

// NewGenerationService creates a [GenerationService].
func NewGenerationService(client Generator, tracker *JobTracker, logger *log.Logger) *GenerationService {
	return &GenerationService{client: client, tracker: tracker, logger: logger}
}

// Podcast requests a podcast episode for notebookID.
func (g *GenerationService) Podcast(ctx context.Context, notebookID string, params services.PodcastParams, progress chan<- ProgressUpdate) (*models.ActiveJob, error) {
	return g.trigger(ctx, models.ArtifactPodcast, notebookID, progress, func() (string, error) {
		return g.client.GeneratePodcast(ctx, notebookID, params)
	})
}

// Quiz requests a quiz for notebookID.
func (g *GenerationService) Quiz(ctx context.Context, notebookID string, params services.QuizParams, progress chan<- ProgressUpdate) (*models.ActiveJob, error) {
	return g.trigger(ctx, models.ArtifactQuiz, notebookID, progress, func() (string, error) {
		return g.client.GenerateQuiz(ctx, notebookID, params)
	})
}

// trigger runs request and tracks the accepted job. A rejected request leaves the tracker untouched.
func (g *GenerationService) trigger(ctx context.Context, kind models.ArtifactType, notebookID string, progress chan<- ProgressUpdate, request func() (string, error)) (*models.ActiveJob, error) {
	sendProgress(progress, triggerUpdate(kind, notebookID))

	jobID, err := request()
	if err != nil {
		g.logger.Warn("generation request failed", "type", kind, "notebook", notebookID, "error", err)
		return nil, err
	}

	job := models.ActiveJob{
		JobID:        jobID,
		ArtifactType: kind,
		NotebookID:   notebookID,
		StartedAt:    time.Now(),
	}
	g.tracker.Set(job)
	g.logger.Info("generation accepted", "type", kind, "notebook", notebookID, "job", jobID)

	sendProgress(progress, jobAcceptedUpdate(job))
	return &job, nil
}

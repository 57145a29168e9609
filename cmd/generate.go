package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

type triggerFunc func(notebookID string, progress chan<- tasks.ProgressUpdate) (*models.ActiveJob, error)

// GeneratePodcast requests a podcast episode for a notebook.
func (r *Runner) GeneratePodcast(ctx context.Context, cmd *cli.Command) error {
	params := services.PodcastParams{
		EpisodeName:    cmd.String("name"),
		EpisodeProfile: cmd.String("episode-profile"),
		SpeakerProfile: cmd.String("speaker-profile"),
		Instructions:   cmd.String("instructions"),
	}

	return r.generate(ctx, cmd, func(notebookID string, progress chan<- tasks.ProgressUpdate) (*models.ActiveJob, error) {
		return r.generator.Podcast(ctx, notebookID, params, progress)
	})
}

// GenerateQuiz requests a quiz for a notebook.
func (r *Runner) GenerateQuiz(ctx context.Context, cmd *cli.Command) error {
	questions := cmd.Int("questions")
	if questions < 0 {
		return fmt.Errorf("%w: --questions must not be negative", shared.ErrInvalidArgument)
	}

	params := services.QuizParams{
		NumQuestions: int(questions),
		Difficulty:   cmd.String("difficulty"),
		Instructions: cmd.String("instructions"),
	}

	return r.generate(ctx, cmd, func(notebookID string, progress chan<- tasks.ProgressUpdate) (*models.ActiveJob, error) {
		return r.generator.Quiz(ctx, notebookID, params, progress)
	})
}

// generate runs trigger for the notebook argument and, with --watch, polls until the job is reconciled.
func (r *Runner) generate(ctx context.Context, cmd *cli.Command, trigger triggerFunc) error {
	notebookID := cmd.StringArg("notebook")
	if notebookID == "" {
		return fmt.Errorf("%w: notebook id", shared.ErrMissingArgument)
	}

	if _, err := r.session(ctx); err != nil {
		return err
	}

	progress, stop := r.followProgress(true)
	job, err := trigger(notebookID, progress)
	if err != nil {
		stop()
		return err
	}

	if !cmd.Bool("watch") {
		stop()
		r.writePlain("Job %s is running. Follow it with 'nbx artifacts watch %s'.\n", job.JobID, notebookID)
		return nil
	}

	artifacts, err := r.poller.Watch(ctx, notebookID, progress)
	stop()
	if err != nil && !errors.Is(err, shared.ErrPollExhausted) {
		return err
	}

	listing := formatter.Listing{
		NotebookID: notebookID,
		Artifacts:  artifacts,
		ActiveJob:  r.tracker.Active(),
		Stalled:    err != nil,
	}
	r.writePlain("\n")
	if rerr := formatter.RenderArtifacts(r.output, formatter.FormatText, listing); rerr != nil {
		return rerr
	}

	if err == nil && listing.ActiveJob == nil {
		r.writePlain("\n✓ %s generation finished\n", job.ArtifactType)
	}
	return err
}

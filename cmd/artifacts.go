package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/desertthunder/nbx/internal/formatter"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ArtifactsList prints the artifacts of one notebook.
func (r *Runner) ArtifactsList(ctx context.Context, cmd *cli.Command) error {
	notebookID := cmd.StringArg("notebook")
	if notebookID == "" {
		return fmt.Errorf("%w: notebook id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if _, err := r.session(ctx); err != nil {
		return err
	}

	artifacts, err := r.platform.Artifacts(ctx, notebookID)
	if err != nil {
		return err
	}
	r.tracker.Reconcile(notebookID, artifacts)

	listing := formatter.Listing{NotebookID: notebookID, Artifacts: artifacts, ActiveJob: r.tracker.Active()}

	if out := cmd.String("output"); out != "" {
		if out == "-" {
			out = ""
		}
		path, err := formatter.WriteArtifactsExport(listing, format, out)
		if err != nil {
			return err
		}
		r.logger.Info("artifacts exported", "notebook", notebookID, "path", path)
		return r.writePlain("✓ Wrote %d artifacts to %s\n", len(artifacts), path)
	}

	return formatter.RenderArtifacts(r.output, format, listing)
}

// ArtifactsWatch polls one or more notebooks until nothing is generating, then prints each listing.
func (r *Runner) ArtifactsWatch(ctx context.Context, cmd *cli.Command) error {
	notebookIDs := cmd.Args().Slice()
	if len(notebookIDs) == 0 {
		return fmt.Errorf("%w: at least one notebook id", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if _, err := r.session(ctx); err != nil {
		return err
	}

	progress, stop := r.followProgress(format == formatter.FormatText)
	results, err := r.poller.WatchAll(ctx, notebookIDs, progress)
	stop()

	if err != nil && !errors.Is(err, shared.ErrPollExhausted) {
		return err
	}

	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		listing := formatter.Listing{
			NotebookID: id,
			Artifacts:  results[id],
			ActiveJob:  r.tracker.Active(),
			Stalled:    err != nil && models.AnyInProgress(results[id]),
		}
		if format == formatter.FormatText && len(ids) > 1 {
			r.writePlainln("Notebook %s", id)
		}
		if rerr := formatter.RenderArtifacts(r.output, format, listing); rerr != nil {
			return rerr
		}
	}

	return err
}

// followProgress starts a consumer for poll and generation updates.
//
// Updates are printed when plain is set and logged at debug level otherwise, so structured output stays clean.
// The returned stop closes the channel and waits for the consumer to drain it.
func (r *Runner) followProgress(plain bool) (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progressCh {
			if !plain {
				r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step)
				continue
			}

			switch update.Phase {
			case tasks.TriggerGeneration:
				r.writePlain("🚀 %s\n", update.Message)
			case tasks.JobAccepted:
				r.writePlain("✓ %s\n", update.Message)
			case tasks.FetchArtifacts:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ArtifactsFetched, tasks.PollIdle:
				r.writePlain("   %s\n", update.Message)
			case tasks.RetryFetch:
				r.writePlain("⚠ %s: %v\n", update.Message, update.Err)
			case tasks.PollStalled:
				r.writePlain("✗ %s: %v\n", update.Message, update.Err)
			}
		}
	}()

	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

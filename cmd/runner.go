package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/auth"
	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/repositories"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/desertthunder/nbx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// It is the application context: one store, navigator, coordinator and tracker per process.
type Runner struct {
	config      *shared.Config
	configPath  string
	platform    services.Platform
	repo        models.IdentityRepository
	store       *auth.IdentityStore
	nav         *auth.Location
	coordinator *auth.Coordinator
	tracker     *tasks.JobTracker
	poller      *tasks.Poller
	generator   *tasks.GenerationService
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	db          *sql.DB // owned in-memory database when no repository was supplied
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Platform   services.Platform
	Repository models.IdentityRepository
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
//
// A nil Platform talks to the configured API origin with an in-memory cookie jar.
// A nil Repository keeps the identity in an in-memory database for the life of the Runner.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Platform == nil {
		api := services.NewAPIServiceFromConfig(opts.Config.API, nil, shared.WithLogger(opts.Logger, "component", "api"))
		opts.Platform = services.NewPlatformService(api)
	}

	var db *sql.DB
	if opts.Repository == nil {
		var err error
		db, err = shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:"})
		if err != nil {
			opts.Logger.Fatal("failed to open in-memory database", "error", err)
		}
		opts.Repository = repositories.NewIdentityRepository(db)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		platform:   opts.Platform,
		repo:       opts.Repository,
		nav:        auth.NewLocation(models.RouteRoot),
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		db:         db,
	}
	r.wire()
	return r
}

// wire builds the session and job components from the current logger.
func (r *Runner) wire() {
	if r.coordinator != nil {
		r.coordinator.Close()
	}

	authLogger := shared.WithLogger(r.logger, "component", "auth")
	taskLogger := shared.WithLogger(r.logger, "component", "tasks")

	r.store = auth.NewIdentityStore(r.repo, authLogger)
	r.coordinator = auth.NewCoordinator(auth.CoordinatorOpts{
		Store:     r.store,
		Client:    r.platform,
		Navigator: r.nav,
		Logger:    authLogger,
		Enforced:  r.config.Auth.Enforced,
		CheckTTL:  r.config.Auth.CheckTTL,
	})
	r.tracker = tasks.NewJobTracker(taskLogger)
	r.poller = tasks.NewPollerFromConfig(r.config.Polling, r.platform, r.tracker, taskLogger)
	r.generator = tasks.NewGenerationService(r.platform, r.tracker, taskLogger)
}

// SetLogger swaps the logger of the Runner and rebuilds the components that log.
//
// Must be called before any command touches the session.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

// Close releases the coordinator and any database owned by the Runner.
func (r *Runner) Close() error {
	r.coordinator.Close()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, homeCommand, artifactsCommand, generateCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// session runs initialization and fails unless protected operations are allowed.
func (r *Runner) session(ctx context.Context) (auth.Snapshot, error) {
	r.coordinator.Initialize(ctx)
	if err := ctx.Err(); err != nil {
		return auth.Snapshot{}, err
	}

	snap := r.coordinator.Snapshot()
	if !snap.Allowed() {
		if snap.Error != nil {
			return snap, fmt.Errorf("%w: %v (run 'nbx auth login')", shared.ErrUnauthenticated, snap.Error)
		}
		return snap, fmt.Errorf("%w: run 'nbx auth login'", shared.ErrUnauthenticated)
	}
	return snap, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

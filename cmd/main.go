package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/repositories"
	"github.com/desertthunder/nbx/internal/services"
	"github.com/desertthunder/nbx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := "config.toml"
	if env := os.Getenv("NBX_CONFIG"); env != "" {
		configPath = env
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring invalid config, using defaults", "path", configPath, "error", err)
		}
	}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Fatal("failed to open database", "path", config.Database.Path, "error", err)
	}

	var jar http.CookieJar
	if sessionJar, err := services.NewSessionJar(ctx, config.API.BaseURL, repositories.NewCookieRepository(db), logger); err == nil {
		jar = sessionJar
	} else {
		logger.Warn("session cookies unavailable, login will not outlive this process", "error", err)
	}

	api := services.NewAPIServiceFromConfig(config.API, jar, shared.WithLogger(logger, "component", "api"))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Platform:   services.NewPlatformService(api),
		Repository: repositories.NewIdentityRepository(db),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "nbx",
		Usage:    "Session-aware client for the notebook platform: podcasts, quizzes and artifacts",
		Version:  "0.1.0",
		Commands: runner.register(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "Log requests, poll attempts and session transitions", Sources: cli.EnvVars("NBX_DEBUG")},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				// Child loggers copy the level, so hand out fresh ones.
				shared.SetLogLevel(logger, log.DebugLevel)
				api.SetLogger(shared.WithLogger(logger, "component", "api"))
				runner.SetLogger(logger)
			}
			return ctx, nil
		},
	}

	err = app.Run(ctx, os.Args)
	runner.Close()
	db.Close()

	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			os.Exit(130)
		case errors.Is(err, shared.ErrUnauthenticated), errors.Is(err, shared.ErrLoginFailed):
			logger.Error(err.Error())
			os.Exit(2)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

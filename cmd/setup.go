package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/nbx/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadOrCreateConfig reads the config at path, writing the embedded template first when it does not exist.
func (r *Runner) loadOrCreateConfig(path string) *shared.Config {
	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig()
		}
		r.logger.Info("config file created", "path", path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadOrCreateConfig(cmd.String("config"))

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	ran, err := shared.RunMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	applied, err := shared.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	r.writePlain("Migrations applied now: %d, total: %d\n", len(ran), len(applied))
	return nil
}

// SetupConfig writes the API origin and auth settings into the config file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	config := r.loadOrCreateConfig(path)

	if baseURL := cmd.String("base-url"); baseURL != "" {
		config.API.BaseURL = baseURL
	}
	if token := cmd.String("token"); token != "" {
		config.API.Token = token
	}
	if cmd.IsSet("no-auth") {
		config.Auth.Enforced = !cmd.Bool("no-auth")
	}

	if err := config.Validate(); err != nil {
		return err
	}
	if err := shared.SaveConfig(path, config); err != nil {
		return err
	}

	r.logger.Info("config saved", "path", path)
	r.writePlain("✓ Configuration saved to %s\n", path)
	r.writePlain("API: %s\n", config.API.BaseURL)
	r.writePlain("Auth enforced: %v\n", config.Auth.Enforced)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'nbx setup database' to create the local session store\n")
	r.writePlain("2. Run 'nbx auth login' to start a session\n")
	return nil
}

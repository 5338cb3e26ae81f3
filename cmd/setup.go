package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodlist/internal/repositories"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase writes a config file from the template when none exists, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPathOrDefault()
	}

	config := r.config
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
			r.writePlain("✓ Config written to %s; fill in your Spotify client_id and client_secret\n", configPath)
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	pending, err := shared.PendingMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to inspect migrations: %w", err)
	}

	r.logger.Info("running database migrations", "pending", pending)
	if err := shared.RunMigrationsContext(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s (%d migrations applied)\n", config.Database.Path, pending)
}

// openHistory opens the configured database and returns a playlist repository backed by it.
// A nil repository is returned when the database cannot be opened; history is optional.
func openHistory(config *shared.Config, logger *log.Logger) (*repositories.PlaylistRepository, *sql.DB) {
	if config.Database.Path == "" {
		return nil, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warn("playlist history disabled", "error", err)
		return nil, nil
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		logger.Warn("playlist history disabled", "error", err)
		db.Close()
		return nil, nil
	}

	return repositories.NewPlaylistRepository(db), db
}

package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p := os.Getenv("MOODLIST_CONFIG"); p != "" {
		configPath = p
	}

	config, err := shared.LoadConfigOrDefault(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
	}
	if err := shared.ApplyEnv(config, ".env"); err != nil {
		logger.Warn("failed to apply environment", "error", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	var spotifyService *services.SpotifyService
	if err := config.Credentials.Spotify.Validate(); err == nil {
		svc, err := services.NewSpotifyService(
			config.Credentials.Spotify.Map(),
			services.WithTimeout(config.Generator.Timeout.Duration),
		)
		if err != nil {
			logger.Warn("spotify service unavailable", "error", err)
		} else {
			spotifyService = svc
		}
	}

	history, db := openHistory(config, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		History:    history,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "moodlist",
		Usage:    "Generate Spotify playlists from a mood",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err = app.Run(context.Background(), os.Args)

	runner.Close()
	if db != nil {
		db.Close()
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		if tasks.Kind(err) != nil || errors.Is(err, shared.ErrTokenExpired) {
			logger.Fatal(tasks.Message(err))
		}
		logger.Fatalf("application error: %v", err)
	}
}

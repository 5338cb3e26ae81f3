// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (" + strings.Join(formatter.Formats(), ", ") + ")",
		Value:   string(formatter.Text),
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the Spotify session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify in the browser and save the tokens",
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show whether tokens are saved and when they expire",
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the saved refresh token for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:   "logout",
				Usage:  "Remove the saved tokens",
				Action: r.AuthLogout,
			},
		},
	}
}

// moodsCommand handles the mood catalog
func moodsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "moods",
		Usage: "Mood catalog operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List moods and their seed genres",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.MoodsList,
			},
			{
				Name:   "validate",
				Usage:  "Check seed genres against the genres Spotify accepts",
				Action: r.MoodsValidate,
			},
		},
	}
}

// generateCommand creates a playlist for a mood
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Create a playlist for a mood in your Spotify account",
		ArgsUsage: "<happy|sad|chill|energetic|romantic>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "mood"},
		},
		Flags: []cli.Flag{
			formatFlag(),
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "Fetch recommendations and the user profile concurrently",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create a public playlist",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of tracks to request (1-100)",
				Value: 20,
			},
		},
		Action: r.Generate,
	}
}

// historyCommand lists generated playlists
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List generated playlists, newest first",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{
				Name:  "owner",
				Usage: "Only playlists owned by this Spotify user id",
			},
			&cli.StringFlag{
				Name:  "mood",
				Usage: "Only playlists for this mood",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only playlists with this status (complete or partial)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to show",
				Value: 20,
			},
		},
		Action: r.History,
	}
}

// serveCommand runs the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web application",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from [server] in config.toml)",
			},
			&cli.BoolFlag{
				Name:  "secure-cookies",
				Usage: "Mark session cookies Secure (use behind HTTPS)",
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive mood picker.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Pick a mood interactively",
		Action:  r.TUI,
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/moods"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists generated playlists, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: playlist history needs a database; run 'moodlist setup database'", shared.ErrServiceUnavailable)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	criteria := map[string]any{
		"owner_id": cmd.String("owner"),
		"status":   cmd.String("status"),
		"limit":    cmd.Int("limit"),
	}
	if label := cmd.String("mood"); label != "" {
		mood, err := moods.Parse(label)
		if err != nil {
			return err
		}
		criteria["mood"] = mood.String()
	}

	playlists, err := r.history.List(criteria)
	if err != nil {
		return err
	}

	if len(playlists) == 0 && format == formatter.Text {
		return r.writePlain("No playlists generated yet.\n")
	}

	out, err := formatter.History(format, playlists)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/moods"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

type moodEntry struct {
	Mood         string   `json:"mood"`
	PlaylistName string   `json:"playlist_name"`
	Seeds        []string `json:"seeds"`
}

// MoodsList prints the mood catalog and each mood's seed genres.
func (r *Runner) MoodsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	entries := make([]moodEntry, 0, len(moods.All()))
	for _, m := range moods.All() {
		entries = append(entries, moodEntry{Mood: m.String(), PlaylistName: m.PlaylistName(), Seeds: m.Seeds()})
	}

	if format == formatter.JSON {
		return r.writeJSON(entries, true)
	}

	for _, e := range entries {
		r.writePlain("%-10s %s\n", e.Mood, strings.Join(e.Seeds, ", "))
	}
	return nil
}

// MoodsValidate checks every mood's seed genres against the genres Spotify accepts.
func (r *Runner) MoodsValidate(ctx context.Context, cmd *cli.Command) error {
	if r.providers == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrServiceUnavailable)
	}

	sess, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	provider, err := r.providers.ForSession(sess)
	if err != nil {
		return err
	}

	available, err := provider.AvailableGenreSeeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch available genre seeds: %w", err)
	}
	r.logger.Debug("fetched genre seeds", "count", len(available))

	invalid := moods.Validate(available)
	if len(invalid) == 0 {
		return r.writePlain("✓ All %d moods use valid seed genres\n", len(moods.All()))
	}

	r.writePlainHeader("Unsupported seed genres")
	for _, m := range moods.All() {
		if genres, ok := invalid[m]; ok {
			slices.Sort(genres)
			r.writePlain("%-10s %s\n", m, strings.Join(genres, ", "))
		}
	}
	return fmt.Errorf("%w: %d moods use seed genres Spotify does not accept", shared.ErrInvalidConfig, len(invalid))
}

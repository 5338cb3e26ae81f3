package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Generate creates a playlist for the mood given as the first argument.
//
// A playlist created without tracks is still printed, and the partial success error is returned so the CLI exits non-zero.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	label := cmd.StringArg("mood")
	if label == "" {
		return fmt.Errorf("%w: mood (one of happy, sad, chill, energetic, romantic)", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	generator, err := r.generatorFor(cmd)
	if err != nil {
		return err
	}

	sess, err := r.currentSession(ctx)
	if err != nil {
		return err
	}

	quiet := format != formatter.Text
	progressCh := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.State {
			case tasks.FetchingRecommendations, tasks.ResolvingIdentity, tasks.CreatingPlaylist, tasks.PopulatingTracks:
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	result, err := generator.Generate(ctx, sess, label, progressCh)
	close(progressCh)
	wg.Wait()

	var partial *tasks.PartialSuccessError
	if err != nil && !errors.As(err, &partial) {
		return err
	}

	if !quiet {
		r.writePlain("\n")
	}

	out, renderErr := formatter.Result(format, result)
	if renderErr != nil {
		return renderErr
	}
	if writeErr := r.writeBytes(out); writeErr != nil {
		return writeErr
	}

	return err
}

// generatorFor returns the shared generator, or a copy configured from the command's flags when any are set.
func (r *Runner) generatorFor(cmd *cli.Command) (*tasks.Generator, error) {
	if r.generator == nil {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set", shared.ErrServiceUnavailable)
	}

	if !cmd.IsSet("parallel") && !cmd.IsSet("public") && !cmd.IsSet("limit") {
		return r.generator, nil
	}

	cfg := r.generator.Config()
	if cmd.IsSet("parallel") {
		cfg.Parallel = cmd.Bool("parallel")
	}
	if cmd.IsSet("public") {
		cfg.Public = cmd.Bool("public")
	}
	if cmd.IsSet("limit") {
		limit := cmd.Int("limit")
		if limit < 1 || limit > 100 {
			return nil, fmt.Errorf("%w: --limit must be between 1 and 100", shared.ErrInvalidFlag)
		}
		cfg.Limit = limit
	}

	generator := tasks.NewGenerator(r.providers, cfg).WithLogger(r.logger)
	if r.history != nil {
		generator = generator.WithRecorder(r.history)
	}
	r.generator = generator
	return generator, nil
}

// Close waits for pending history writes.
func (r *Runner) Close() {
	if r.generator != nil {
		r.generator.Wait()
	}
}

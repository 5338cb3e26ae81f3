package tasks

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/moods"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultLimit   = 20

	recordTimeout = 5 * time.Second
)

// Config controls a [Generator].
type Config struct {
	Timeout  time.Duration // Per provider call
	Limit    int           // Recommendation count
	Public   bool          // Visibility of created playlists
	Parallel bool          // Fetch recommendations and resolve identity concurrently
}

// DefaultConfig returns private playlists of 20 tracks with a 10 second per-call timeout.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout, Limit: DefaultLimit}
}

// ConfigFrom maps the [shared.GeneratorConfig] section onto a [Config], filling unset values with defaults.
func ConfigFrom(c shared.GeneratorConfig) Config {
	cfg := Config{
		Timeout:  c.Timeout.Duration,
		Limit:    c.Limit,
		Public:   c.Public,
		Parallel: c.Parallel,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return cfg
}

// Recorder logs playlists once they exist on the provider.
type Recorder interface {
	Record(ctx context.Context, identity models.Identity, result models.PlaylistResult, status models.PlaylistStatus) error
}

// Generator runs the mood to playlist workflow.
type Generator struct {
	providers services.ProviderFactory
	config    Config
	guard     *Guard
	recorder  Recorder
	logger    *log.Logger
	pending   sync.WaitGroup
}

// NewGenerator creates a Generator that builds providers from factory.
func NewGenerator(factory services.ProviderFactory, cfg Config) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Generator{
		providers: factory,
		config:    cfg,
		guard:     NewGuard(),
		logger:    shared.NewLogger(os.Stderr),
	}
}

// WithRecorder sets the collaborator notified of every created playlist.
func (g *Generator) WithRecorder(r Recorder) *Generator {
	g.recorder = r
	return g
}

// WithLogger replaces the default stderr logger.
func (g *Generator) WithLogger(l *log.Logger) *Generator {
	g.logger = l
	return g
}

// Config returns the generator's settings.
func (g *Generator) Config() Config {
	return g.config
}

// Busy reports whether a run for sess is in flight.
func (g *Generator) Busy(sess *session.Session) bool {
	return g.guard.Active(sess.Key())
}

// Wait blocks until pending recorder calls finish.
func (g *Generator) Wait() {
	g.pending.Wait()
}

// sendProgress sends a progress update through the channel without blocking.
func (g *Generator) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Generate turns a mood label into a populated playlist in the session owner's account.
//
// Checks run in order: session, mood, in-flight guard. None of them touches the network.
// A playlist whose tracks could not be added is returned alongside a [*PartialSuccessError].
func (g *Generator) Generate(ctx context.Context, sess *session.Session, label string, progress chan<- ProgressUpdate) (*models.PlaylistResult, error) {
	g.sendProgress(progress, awaitingSessionUpdate())

	if _, err := sess.Token(); err != nil {
		return nil, g.fail(progress, 1, err)
	}

	mood, err := moods.Parse(label)
	if err != nil {
		return nil, g.fail(progress, 1, err)
	}

	release, err := g.guard.Acquire(sess.Key())
	if err != nil {
		return nil, g.fail(progress, 1, err)
	}
	defer release()

	provider, err := g.providers.ForSession(sess)
	if err != nil {
		return nil, g.fail(progress, 1, err)
	}

	logger := shared.WithLogger(g.logger, "mood", mood, "session", sess.Key())
	logger.Info("generating playlist", "seeds", mood.Seeds())

	tracks, seeds, identity, err := g.gather(ctx, logger, provider, mood, progress)
	if err != nil {
		return nil, g.fail(progress, failedStep(err), err)
	}

	name := mood.PlaylistName()
	g.sendProgress(progress, creatingPlaylistUpdate(name))

	playlistID, err := g.createPlaylist(ctx, provider, identity, mood)
	if err != nil {
		return nil, g.fail(progress, 4, err)
	}
	logger.Info("playlist created", "playlist", playlistID, "owner", identity.ID)

	result := &models.PlaylistResult{
		PlaylistID: playlistID,
		Name:       name,
		Mood:       mood.String(),
		Seeds:      seeds,
	}

	g.sendProgress(progress, populatingTracksUpdate(playlistID, len(tracks)))

	if err := g.populate(ctx, provider, playlistID, tracks); err != nil {
		logger.Error("playlist left empty", "playlist", playlistID, "error", err)
		// A cancelled run leaves nothing behind in the playlist log.
		if ctx.Err() == nil {
			g.record(ctx, *identity, *result, models.StatusPartial)
		}
		return result, g.fail(progress, 5, err)
	}

	result.TrackCount = len(tracks)
	result.Tracks = tracks
	g.record(ctx, *identity, *result, models.StatusComplete)

	logger.Info("playlist populated", "playlist", playlistID, "tracks", result.TrackCount)
	g.sendProgress(progress, succeededUpdate(result))
	return result, nil
}

// failedStep is the step number of the state a [*StepError] failed in, defaulting to the fetch step.
func failedStep(err error) int {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		if step := stepErr.State.step(); step > 0 {
			return step
		}
	}
	return FetchingRecommendations.step()
}

func (g *Generator) fail(progress chan<- ProgressUpdate, step int, err error) error {
	g.sendProgress(progress, failedUpdate(step, err))
	return err
}

// gather fetches recommendations and resolves the identity, sequentially or concurrently.
//
// In parallel mode the recommendation error wins, unless it is only the cancellation caused by the identity failure.
func (g *Generator) gather(ctx context.Context, logger *log.Logger, provider services.Provider, mood moods.Mood, progress chan<- ProgressUpdate) ([]models.TrackRef, []string, *models.Identity, error) {
	if !g.config.Parallel {
		tracks, seeds, err := g.fetch(ctx, logger, provider, mood, progress)
		if err != nil {
			return nil, nil, nil, err
		}

		g.sendProgress(progress, resolvingIdentityUpdate())
		identity, err := g.resolveIdentity(ctx, provider)
		if err != nil {
			return nil, nil, nil, err
		}
		return tracks, seeds, identity, nil
	}

	var (
		tracks             []models.TrackRef
		seeds              []string
		identity           *models.Identity
		fetchErr, identErr error
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		tracks, seeds, fetchErr = g.fetch(egCtx, logger, provider, mood, progress)
		return fetchErr
	})
	eg.Go(func() error {
		g.sendProgress(progress, resolvingIdentityUpdate())
		identity, identErr = g.resolveIdentity(egCtx, provider)
		return identErr
	})
	_ = eg.Wait()

	switch {
	case fetchErr != nil && !(identErr != nil && errors.Is(fetchErr, context.Canceled) && ctx.Err() == nil):
		return nil, nil, nil, fetchErr
	case identErr != nil:
		return nil, nil, nil, identErr
	}
	return tracks, seeds, identity, nil
}

// fetch requests recommendations, retrying with shorter seed sets while the provider rejects them.
func (g *Generator) fetch(ctx context.Context, logger *log.Logger, provider services.Provider, mood moods.Mood, progress chan<- ProgressUpdate) ([]models.TrackRef, []string, error) {
	var lastErr error

	for i, seeds := range SeedAttempts(mood.Seeds()) {
		g.sendProgress(progress, fetchingUpdate(seeds, i))

		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		tracks, err := provider.Recommendations(callCtx, seeds, g.config.Limit)
		cancel()

		if err == nil {
			if len(tracks) == 0 {
				return nil, seeds, newStepError(FetchingRecommendations, shared.ErrNoTracksFound, nil)
			}
			return tracks, seeds, nil
		}

		lastErr = err
		if !seedRejected(err) || ctx.Err() != nil {
			break
		}
		logger.Warn("seed set rejected", "seeds", seeds, "status", services.StatusCode(err))
	}

	return nil, nil, newStepError(FetchingRecommendations, shared.ErrRecommendationFetch, lastErr)
}

func (g *Generator) resolveIdentity(ctx context.Context, provider services.Provider) (*models.Identity, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	identity, err := provider.CurrentUser(callCtx)
	if err != nil {
		return nil, newStepError(ResolvingIdentity, shared.ErrIdentityResolution, err)
	}
	if identity == nil || identity.ID == "" {
		return nil, newStepError(ResolvingIdentity, shared.ErrIdentityResolution, errors.New("profile has no user id"))
	}
	return identity, nil
}

func (g *Generator) createPlaylist(ctx context.Context, provider services.Provider, identity *models.Identity, mood moods.Mood) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	req := models.NewPlaylistRequest(identity, mood.PlaylistName(), mood.Description(), g.config.Public)
	id, err := provider.CreatePlaylist(callCtx, req)
	if err != nil {
		return "", newStepError(CreatingPlaylist, shared.ErrPlaylistCreation, err)
	}
	if id == "" {
		return "", newStepError(CreatingPlaylist, shared.ErrPlaylistCreation, errors.New("provider returned no playlist id"))
	}
	return id, nil
}

func (g *Generator) populate(ctx context.Context, provider services.Provider, playlistID string, tracks []models.TrackRef) error {
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	if err := provider.AddTracks(callCtx, playlistID, tracks); err != nil {
		return &PartialSuccessError{
			PlaylistID: playlistID,
			Err:        newStepError(PopulatingTracks, shared.ErrTrackInsertion, err),
		}
	}
	return nil
}

// record hands the playlist to the recorder in the background. Failures are logged only.
func (g *Generator) record(ctx context.Context, identity models.Identity, result models.PlaylistResult, status models.PlaylistStatus) {
	if g.recorder == nil {
		return
	}

	g.pending.Add(1)
	go func() {
		defer g.pending.Done()

		recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()

		if err := g.recorder.Record(recordCtx, identity, result, status); err != nil {
			g.logger.Warn("failed to record playlist", "playlist", result.PlaylistID, "error", err)
		}
	}()
}

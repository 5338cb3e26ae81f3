package tasks

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	tu "github.com/desertthunder/moodlist/internal/testing"
)

var testSession = &session.Session{AccessToken: "test_access_token"}

func newTestGenerator(provider *tu.MockProvider, cfg Config) (*Generator, *tu.MockFactory) {
	factory := &tu.MockFactory{Provider: provider}
	g := NewGenerator(factory, cfg).WithLogger(shared.NewLogger(io.Discard))
	return g, factory
}

func drain(progress chan ProgressUpdate) []State {
	var states []State
	for {
		select {
		case u := <-progress:
			states = append(states, u.State)
		default:
			return states
		}
	}
}

// cancelOnCreate cancels the run right after the playlist exists on the provider.
type cancelOnCreate struct {
	*tu.MockProvider
	cancel context.CancelFunc
}

func (c *cancelOnCreate) CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (string, error) {
	id, err := c.MockProvider.CreatePlaylist(ctx, req)
	c.cancel()
	return id, err
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Session Makes No Calls", func(t *testing.T) {
		for _, sess := range []*session.Session{nil, {}} {
			provider := tu.NewMockProvider(20)
			g, factory := newTestGenerator(provider, DefaultConfig())

			result, err := g.Generate(ctx, sess, "happy", nil)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
			if result != nil {
				t.Errorf("expected nil result, got %+v", result)
			}
			if provider.TotalCalls() != 0 || factory.Sessions != 0 {
				t.Errorf("expected zero provider calls, got %d", provider.TotalCalls())
			}
		}
	})

	t.Run("Session Checked Before Mood", func(t *testing.T) {
		g, _ := newTestGenerator(tu.NewMockProvider(20), DefaultConfig())

		_, err := g.Generate(ctx, nil, "calm", nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Invalid Mood Makes No Calls", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "calm", nil)
		if !errors.Is(err, shared.ErrInvalidMood) {
			t.Fatalf("expected ErrInvalidMood, got %v", err)
		}
		if provider.TotalCalls() != 0 {
			t.Errorf("expected zero provider calls, got %d", provider.TotalCalls())
		}
	})

	t.Run("Energetic End To End", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		recorder := &tu.MockRecorder{}
		g, _ := newTestGenerator(provider, DefaultConfig())
		g.WithRecorder(recorder)

		progress := make(chan ProgressUpdate, 32)
		result, err := g.Generate(ctx, testSession, "Energetic", progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.PlaylistID != "pl-1" {
			t.Errorf("expected pl-1, got %s", result.PlaylistID)
		}
		if result.Name != "Energetic Vibes Playlist" {
			t.Errorf("unexpected name %q", result.Name)
		}
		if result.TrackCount != 20 {
			t.Errorf("expected 20 tracks, got %d", result.TrackCount)
		}
		if want := []string{"rock", "edm", "work-out"}; !slices.Equal(result.Seeds, want) {
			t.Errorf("expected seeds %v, got %v", want, result.Seeds)
		}

		if provider.Limits[0] != 20 {
			t.Errorf("expected limit 20, got %d", provider.Limits[0])
		}

		req := provider.Created[0]
		if req.OwnerID != "user-1" || req.Public || req.Name != "Energetic Vibes Playlist" {
			t.Errorf("unexpected playlist request %+v", req)
		}

		added := provider.Added["pl-1"]
		if !slices.Equal(added, provider.Tracks) {
			t.Errorf("expected tracks added in recommendation order")
		}

		wantCalls := []string{"recommendations", "current_user", "create_playlist", "add_tracks"}
		if !slices.Equal(provider.Calls, wantCalls) {
			t.Errorf("expected calls %v, got %v", wantCalls, provider.Calls)
		}

		wantStates := []State{AwaitingSession, FetchingRecommendations, ResolvingIdentity, CreatingPlaylist, PopulatingTracks, Succeeded}
		if states := drain(progress); !slices.Equal(states, wantStates) {
			t.Errorf("expected states %v, got %v", wantStates, states)
		}

		g.Wait()
		records := recorder.Records()
		if len(records) != 1 || records[0].Status != models.StatusComplete || records[0].Result.TrackCount != 20 {
			t.Errorf("unexpected records %+v", records)
		}
	})

	t.Run("Mood Labels Are Case Insensitive", func(t *testing.T) {
		provider := tu.NewMockProvider(5)
		g, _ := newTestGenerator(provider, DefaultConfig())

		if _, err := g.Generate(ctx, testSession, "Chill", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := g.Generate(ctx, testSession, "chill", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(provider.SeedCalls[0], provider.SeedCalls[1]) {
			t.Errorf("expected identical seeds, got %v and %v", provider.SeedCalls[0], provider.SeedCalls[1])
		}
	})

	t.Run("No Tracks Skips Playlist Creation", func(t *testing.T) {
		provider := tu.NewMockProvider(0)
		g, _ := newTestGenerator(provider, DefaultConfig())

		progress := make(chan ProgressUpdate, 32)
		result, err := g.Generate(ctx, testSession, "sad", progress)
		if !errors.Is(err, shared.ErrNoTracksFound) {
			t.Fatalf("expected ErrNoTracksFound, got %v", err)
		}
		if result != nil {
			t.Errorf("expected nil result, got %+v", result)
		}
		if provider.CallCount("create_playlist") != 0 {
			t.Error("expected no playlist creation")
		}
		if provider.CallCount("recommendations") != 1 {
			t.Errorf("expected a single fetch, got %d", provider.CallCount("recommendations"))
		}

		states := drain(progress)
		if states[len(states)-1] != Failed {
			t.Errorf("expected final state Failed, got %v", states[len(states)-1])
		}
	})

	t.Run("Rejected Seeds Retry With Fewer", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.RecommendErrs = []error{tu.APIError(http.StatusBadRequest)}
		g, _ := newTestGenerator(provider, DefaultConfig())

		result, err := g.Generate(ctx, testSession, "happy", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(provider.SeedCalls) != 2 {
			t.Fatalf("expected 2 fetch attempts, got %d", len(provider.SeedCalls))
		}
		if len(provider.SeedCalls[0]) != 5 || !slices.Equal(provider.SeedCalls[1], []string{"pop", "dance"}) {
			t.Errorf("unexpected seed attempts %v", provider.SeedCalls)
		}
		if !slices.Equal(result.Seeds, []string{"pop", "dance"}) {
			t.Errorf("expected result seeds to be the accepted set, got %v", result.Seeds)
		}
	})

	t.Run("Empty Body Rejection Retries With Fewer Seeds", func(t *testing.T) {
		var (
			mu    sync.Mutex
			seeds []string
		)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/recommendations":
				genres := r.URL.Query().Get("seed_genres")
				mu.Lock()
				seeds = append(seeds, genres)
				mu.Unlock()
				if strings.Count(genres, ",") > 1 {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				io.WriteString(w, `{"tracks":[{"id":"t1","uri":"spotify:track:t1","name":"One"}]}`)
			case "/me":
				io.WriteString(w, `{"id":"user-1"}`)
			case "/users/user-1/playlists":
				w.WriteHeader(http.StatusCreated)
				io.WriteString(w, `{"id":"pl-1"}`)
			default:
				w.WriteHeader(http.StatusCreated)
				io.WriteString(w, `{"snapshot_id":"s"}`)
			}
		}))
		defer ts.Close()

		srv, err := services.NewSpotifyService(map[string]string{"client_id": "id", "client_secret": "secret"}, services.WithBaseURL(ts.URL))
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		g := NewGenerator(srv, DefaultConfig()).WithLogger(shared.NewLogger(io.Discard))

		result, err := g.Generate(ctx, testSession, "happy", nil)
		if err != nil {
			t.Fatalf("expected success after retry, got %v", err)
		}
		if result.TrackCount != 1 || !slices.Equal(result.Seeds, []string{"pop", "dance"}) {
			t.Errorf("unexpected result %+v", result)
		}
		if len(seeds) != 2 || seeds[1] != "pop,dance" {
			t.Errorf("expected full then two-seed request, got %v", seeds)
		}
	})

	t.Run("Retries Are Bounded", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		rejected := tu.APIError(http.StatusBadRequest)
		provider.RecommendErrs = []error{rejected, rejected, rejected, rejected}
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "romantic", nil)
		if !errors.Is(err, shared.ErrRecommendationFetch) {
			t.Fatalf("expected ErrRecommendationFetch, got %v", err)
		}
		if n := provider.CallCount("recommendations"); n != 3 {
			t.Errorf("expected 3 attempts, got %d", n)
		}

		var stepErr *StepError
		if !errors.As(err, &stepErr) || stepErr.Status != http.StatusBadRequest || stepErr.State != FetchingRecommendations {
			t.Errorf("unexpected step error %+v", stepErr)
		}
		if provider.CallCount("create_playlist") != 0 {
			t.Error("expected no playlist creation")
		}
	})

	t.Run("Non Seed Failures Are Not Retried", func(t *testing.T) {
		for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
			provider := tu.NewMockProvider(20)
			provider.RecommendErrs = []error{tu.APIError(status)}
			g, _ := newTestGenerator(provider, DefaultConfig())

			_, err := g.Generate(ctx, testSession, "happy", nil)
			if !errors.Is(err, shared.ErrRecommendationFetch) {
				t.Errorf("status %d: expected ErrRecommendationFetch, got %v", status, err)
			}
			if n := provider.CallCount("recommendations"); n != 1 {
				t.Errorf("status %d: expected 1 attempt, got %d", status, n)
			}
		}
	})

	t.Run("Expired Token Surfaces", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.RecommendErrs = []error{tu.APIError(http.StatusUnauthorized)}
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("Identity Failure", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.UserErr = tu.APIError(http.StatusForbidden)
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, shared.ErrIdentityResolution) {
			t.Fatalf("expected ErrIdentityResolution, got %v", err)
		}
		if provider.CallCount("create_playlist") != 0 {
			t.Error("expected no playlist creation")
		}
	})

	t.Run("Empty Identity", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.Identity = &models.Identity{}
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, shared.ErrIdentityResolution) {
			t.Errorf("expected ErrIdentityResolution, got %v", err)
		}
	})

	t.Run("Creation Failure", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.CreateErr = tu.APIError(http.StatusInternalServerError)
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, shared.ErrPlaylistCreation) {
			t.Fatalf("expected ErrPlaylistCreation, got %v", err)
		}
		if provider.CallCount("add_tracks") != 0 {
			t.Error("expected no track insertion")
		}
	})

	t.Run("Missing Playlist ID", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.PlaylistID = ""
		g, _ := newTestGenerator(provider, DefaultConfig())

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, shared.ErrPlaylistCreation) {
			t.Errorf("expected ErrPlaylistCreation, got %v", err)
		}
	})

	t.Run("Partial Success", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.AddErr = tu.APIError(http.StatusInternalServerError)
		recorder := &tu.MockRecorder{}
		g, _ := newTestGenerator(provider, DefaultConfig())
		g.WithRecorder(recorder)

		result, err := g.Generate(ctx, testSession, "happy", nil)

		var partial *PartialSuccessError
		if !errors.As(err, &partial) {
			t.Fatalf("expected PartialSuccessError, got %v", err)
		}
		if partial.PlaylistID != "pl-1" {
			t.Errorf("expected playlist id pl-1, got %s", partial.PlaylistID)
		}
		if !errors.Is(err, shared.ErrTrackInsertion) || !errors.Is(err, shared.ErrPartialSuccess) {
			t.Errorf("expected ErrTrackInsertion and ErrPartialSuccess, got %v", err)
		}
		if result == nil || result.PlaylistID != "pl-1" || result.TrackCount != 0 {
			t.Errorf("unexpected partial result %+v", result)
		}

		g.Wait()
		records := recorder.Records()
		if len(records) != 1 || records[0].Status != models.StatusPartial {
			t.Errorf("expected a partial record, got %+v", records)
		}
	})

	t.Run("Repeated Runs Create New Playlists", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		g, _ := newTestGenerator(provider, DefaultConfig())

		first, err := g.Generate(ctx, testSession, "happy", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := g.Generate(ctx, testSession, "happy", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if provider.CallCount("create_playlist") != 2 {
			t.Errorf("expected 2 creations, got %d", provider.CallCount("create_playlist"))
		}
		if first.PlaylistID == second.PlaylistID {
			t.Errorf("expected distinct playlists, got %s twice", first.PlaylistID)
		}
	})

	t.Run("Concurrent Run Is Rejected", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.Block = make(chan struct{})
		provider.Started = make(chan struct{}, 1)
		g, _ := newTestGenerator(provider, DefaultConfig())

		done := make(chan error, 1)
		go func() {
			_, err := g.Generate(ctx, testSession, "happy", nil)
			done <- err
		}()

		<-provider.Started
		if !g.Busy(testSession) {
			t.Error("expected session to be busy")
		}

		_, err := g.Generate(ctx, testSession, "sad", nil)
		if !errors.Is(err, shared.ErrGenerationInProgress) {
			t.Errorf("expected ErrGenerationInProgress, got %v", err)
		}

		close(provider.Block)
		if err := <-done; err != nil {
			t.Fatalf("expected first run to succeed, got %v", err)
		}
		if provider.CallCount("recommendations") != 1 {
			t.Errorf("expected rejected run to make no calls, got %d fetches", provider.CallCount("recommendations"))
		}
		if g.Busy(testSession) {
			t.Error("expected guard to be released")
		}
	})

	t.Run("Per Call Timeout", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.Block = make(chan struct{})
		defer close(provider.Block)
		g, _ := newTestGenerator(provider, Config{Timeout: 20 * time.Millisecond, Limit: 20})

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
		if Kind(err) != shared.ErrRecommendationFetch {
			t.Errorf("expected ErrRecommendationFetch kind, got %v", Kind(err))
		}
	})

	t.Run("Cancellation", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.Block = make(chan struct{})
		defer close(provider.Block)
		g, _ := newTestGenerator(provider, DefaultConfig())

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := g.Generate(cctx, testSession, "happy", nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if provider.CallCount("create_playlist") != 0 {
			t.Error("expected no playlist creation after cancellation")
		}
	})

	t.Run("Cancelled After Creation Records Nothing", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		provider := &cancelOnCreate{MockProvider: tu.NewMockProvider(20), cancel: cancel}
		recorder := &tu.MockRecorder{}
		g := NewGenerator(&tu.MockFactory{Provider: provider}, DefaultConfig()).
			WithLogger(shared.NewLogger(io.Discard)).
			WithRecorder(recorder)

		result, err := g.Generate(cctx, testSession, "happy", nil)

		var partial *PartialSuccessError
		if !errors.As(err, &partial) || partial.PlaylistID != "pl-1" {
			t.Fatalf("expected PartialSuccessError for pl-1, got %v", err)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.PlaylistID != "pl-1" {
			t.Errorf("expected result with playlist id, got %+v", result)
		}

		g.Wait()
		if records := recorder.Records(); len(records) != 0 {
			t.Errorf("expected no records for a cancelled run, got %+v", records)
		}
	})

	t.Run("Failed Update Reports Failing Step", func(t *testing.T) {
		tc := []struct {
			name     string
			parallel bool
			setup    func(*tu.MockProvider)
			step     int
		}{
			{"Fetch", false, func(p *tu.MockProvider) { p.RecommendErrs = []error{tu.APIError(http.StatusInternalServerError)} }, 2},
			{"Identity", false, func(p *tu.MockProvider) { p.UserErr = tu.APIError(http.StatusForbidden) }, 3},
			{"Identity In Parallel", true, func(p *tu.MockProvider) { p.UserErr = tu.APIError(http.StatusForbidden) }, 3},
			{"Creation", false, func(p *tu.MockProvider) { p.CreateErr = tu.APIError(http.StatusInternalServerError) }, 4},
			{"Insertion", false, func(p *tu.MockProvider) { p.AddErr = tu.APIError(http.StatusInternalServerError) }, 5},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				provider := tu.NewMockProvider(20)
				tt.setup(provider)
				cfg := DefaultConfig()
				cfg.Parallel = tt.parallel
				g, _ := newTestGenerator(provider, cfg)

				progress := make(chan ProgressUpdate, 32)
				if _, err := g.Generate(ctx, testSession, "happy", progress); err == nil {
					t.Fatal("expected an error")
				}

				var last ProgressUpdate
				for len(progress) > 0 {
					last = <-progress
				}
				if last.State != Failed || last.Step != tt.step {
					t.Errorf("expected failed update at step %d, got %s at %d", tt.step, last.State, last.Step)
				}
			})
		}
	})

	t.Run("Recorder Errors Are Not Returned", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		recorder := &tu.MockRecorder{Err: errors.New("disk full")}
		g, _ := newTestGenerator(provider, DefaultConfig())
		g.WithRecorder(recorder)

		if _, err := g.Generate(ctx, testSession, "happy", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		g.Wait()
		if len(recorder.Records()) != 1 {
			t.Error("expected recorder to be called")
		}
	})
}

func TestGenerateParallel(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Parallel = true

	t.Run("Success", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		g, _ := newTestGenerator(provider, cfg)

		result, err := g.Generate(ctx, testSession, "energetic", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TrackCount != 20 {
			t.Errorf("expected 20 tracks, got %d", result.TrackCount)
		}
		if provider.CallCount("current_user") != 1 || provider.CallCount("recommendations") != 1 {
			t.Errorf("unexpected calls %v", provider.Calls)
		}
	})

	t.Run("Identity Error Wins Over Cancelled Fetch", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.Block = make(chan struct{})
		defer close(provider.Block)
		provider.UserErr = tu.APIError(http.StatusForbidden)
		g, _ := newTestGenerator(provider, cfg)

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if Kind(err) != shared.ErrIdentityResolution {
			t.Errorf("expected ErrIdentityResolution, got %v", err)
		}
	})

	t.Run("Fetch Error Wins", func(t *testing.T) {
		provider := tu.NewMockProvider(20)
		provider.RecommendErrs = []error{tu.APIError(http.StatusInternalServerError)}
		g, _ := newTestGenerator(provider, cfg)

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if Kind(err) != shared.ErrRecommendationFetch {
			t.Errorf("expected ErrRecommendationFetch, got %v", err)
		}
		if provider.CallCount("create_playlist") != 0 {
			t.Error("expected no playlist creation")
		}
	})

	t.Run("No Tracks", func(t *testing.T) {
		provider := tu.NewMockProvider(0)
		g, _ := newTestGenerator(provider, cfg)

		_, err := g.Generate(ctx, testSession, "happy", nil)
		if !errors.Is(err, shared.ErrNoTracksFound) {
			t.Errorf("expected ErrNoTracksFound, got %v", err)
		}
		if provider.CallCount("create_playlist") != 0 {
			t.Error("expected no playlist creation")
		}
	})
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(shared.GeneratorConfig{})
	if cfg.Timeout != DefaultTimeout || cfg.Limit != DefaultLimit || cfg.Public || cfg.Parallel {
		t.Errorf("unexpected defaults %+v", cfg)
	}

	cfg = ConfigFrom(shared.GeneratorConfig{Timeout: shared.Duration{Duration: time.Second}, Limit: 5, Parallel: true})
	if cfg.Timeout != time.Second || cfg.Limit != 5 || !cfg.Parallel {
		t.Errorf("unexpected config %+v", cfg)
	}
}

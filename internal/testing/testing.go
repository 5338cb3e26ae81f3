// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
)

// MockProvider is a test double for [services.Provider] that records every call.
type MockProvider struct {
	mu sync.Mutex

	Tracks     []models.TrackRef
	Identity   *models.Identity
	PlaylistID string
	Genres     []string

	// RecommendErrs are returned by successive Recommendations calls; missing or nil entries succeed.
	RecommendErrs []error
	UserErr       error
	CreateErr     error
	AddErr        error
	GenresErr     error

	// Block, when non-nil, holds Recommendations until it is closed or the context ends.
	Block chan struct{}
	// Started receives once per Recommendations call when non-nil.
	Started chan struct{}

	Calls     []string
	SeedCalls [][]string
	Limits    []int
	Created   []models.PlaylistRequest
	Added     map[string][]models.TrackRef
}

// NewMockProvider returns a provider that succeeds with n tracks, user "user-1" and playlist "pl-1".
func NewMockProvider(n int) *MockProvider {
	return &MockProvider{
		Tracks:     SampleTracks(n),
		Identity:   &models.Identity{ID: "user-1", DisplayName: "Test User"},
		PlaylistID: "pl-1",
		Genres:     []string{"pop", "rock"},
	}
}

func (m *MockProvider) call(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, name)
}

func (m *MockProvider) Recommendations(ctx context.Context, seeds []string, limit int) ([]models.TrackRef, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, "recommendations")
	m.SeedCalls = append(m.SeedCalls, append([]string(nil), seeds...))
	m.Limits = append(m.Limits, limit)
	attempt := len(m.SeedCalls) - 1
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- struct{}{}
	}

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, fmt.Errorf("recommendations: %w", ctx.Err())
		}
	}

	if attempt < len(m.RecommendErrs) && m.RecommendErrs[attempt] != nil {
		return nil, m.RecommendErrs[attempt]
	}
	return append([]models.TrackRef(nil), m.Tracks...), nil
}

func (m *MockProvider) CurrentUser(ctx context.Context) (*models.Identity, error) {
	m.call("current_user")
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	return m.Identity, nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, "create_playlist")
	m.Created = append(m.Created, req)
	n := len(m.Created)
	m.mu.Unlock()

	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if m.PlaylistID == "" {
		return "", nil
	}
	if n == 1 {
		return m.PlaylistID, nil
	}
	return fmt.Sprintf("%s-%d", m.PlaylistID, n), nil
}

func (m *MockProvider) AddTracks(ctx context.Context, playlistID string, tracks []models.TrackRef) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, "add_tracks")
	if m.Added == nil {
		m.Added = make(map[string][]models.TrackRef)
	}
	m.Added[playlistID] = append([]models.TrackRef(nil), tracks...)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return m.AddErr
}

func (m *MockProvider) AvailableGenreSeeds(ctx context.Context) ([]string, error) {
	m.call("genre_seeds")
	if m.GenresErr != nil {
		return nil, m.GenresErr
	}
	return m.Genres, nil
}

// CallCount returns how many times the named call was made.
func (m *MockProvider) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of provider calls made.
func (m *MockProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockFactory is a test double for [services.ProviderFactory].
type MockFactory struct {
	Provider services.Provider
	Err      error
	Sessions int
}

func (f *MockFactory) ForSession(sess *session.Session) (services.Provider, error) {
	if _, err := sess.Token(); err != nil {
		return nil, err
	}
	f.Sessions++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Provider, nil
}

// Recorded is a single call to [MockRecorder.Record].
type Recorded struct {
	Identity models.Identity
	Result   models.PlaylistResult
	Status   models.PlaylistStatus
}

// MockRecorder collects recorded playlists.
type MockRecorder struct {
	mu      sync.Mutex
	Err     error
	records []Recorded
}

func (r *MockRecorder) Record(ctx context.Context, identity models.Identity, result models.PlaylistResult, status models.PlaylistStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Recorded{Identity: identity, Result: result, Status: status})
	return r.Err
}

func (r *MockRecorder) Records() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.records...)
}

// SampleTracks returns n tracks with ids t1..tn.
func SampleTracks(n int) []models.TrackRef {
	tracks := make([]models.TrackRef, n)
	for i := range tracks {
		id := fmt.Sprintf("t%d", i+1)
		tracks[i] = models.TrackRef{
			ID:     id,
			URI:    "spotify:track:" + id,
			Name:   fmt.Sprintf("Track %d", i+1),
			Artist: fmt.Sprintf("Artist %d", i+1),
		}
	}
	return tracks
}

// APIError builds a provider error with the given status.
func APIError(status int) error {
	return &services.APIError{Op: "test", Status: status, Body: http.StatusText(status)}
}

// NewTestDB creates an in-memory SQLite database with migrations applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.Requests++
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

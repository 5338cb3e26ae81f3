// Spotify implementation of [Provider] and the OAuth2 flow that produces its sessions.
//
// API calls go through github.com/zmb3/spotify/v2; OAuth endpoints and scopes come from its auth package.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

const (
	DefaultRedirectURI = "http://127.0.0.1:3000/callback"
	DefaultTimeout     = 10 * time.Second
)

// Scopes are the OAuth scopes needed to read the profile and write playlists.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// APIError is a failed provider call with its HTTP status and response message.
type APIError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify %s: HTTP %d: %s", e.Op, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches [shared.ErrAPIRequest] always and [shared.ErrTokenExpired] for 401 responses.
func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrTokenExpired:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// StatusCode extracts the provider HTTP status from err, or 0 when the call never got a response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Option configures a [SpotifyService].
type Option func(*SpotifyService)

// WithBaseURL points API calls at url instead of the public Web API.
func WithBaseURL(url string) Option {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithEndpoint overrides the OAuth authorize and token endpoints.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(s *SpotifyService) { s.config.Endpoint = endpoint }
}

// WithTimeout bounds every HTTP request made by clients built with [SpotifyService.ForSession].
func WithTimeout(d time.Duration) Option {
	return func(s *SpotifyService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithTransport sets the base round tripper beneath the bearer token transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(s *SpotifyService) { s.transport = rt }
}

// SpotifyService owns the OAuth2 configuration and builds per-session [SpotifyClient]s.
type SpotifyService struct {
	config    *oauth2.Config
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...Option) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Exchange trades an authorization code for a token.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)
	}

	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// Refresh obtains a new access token from a refresh token.
// The returned token keeps refreshToken when the provider does not rotate it.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Now().Add(-time.Minute)}
	token, err := s.config.TokenSource(ctx, expired).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

// ForSession returns a [SpotifyClient] that sends the session's bearer token as-is.
// Fails with [shared.ErrNotAuthenticated] before any network call when the session has no token.
func (s *SpotifyService) ForSession(sess *session.Session) (Provider, error) {
	token, err := sess.Token()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: s.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   &statusTransport{base: s.transport},
		},
	}
	return NewSpotifyClient(httpClient, s.baseURL), nil
}

// SpotifyClient implements [Provider] on top of [spotify.Client].
type SpotifyClient struct {
	client *spotify.Client
}

// NewSpotifyClient wraps an authenticated HTTP client. An empty baseURL uses the public Web API.
func NewSpotifyClient(httpClient *http.Client, baseURL string) *SpotifyClient {
	var opts []spotify.ClientOption
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}
	return &SpotifyClient{client: spotify.New(httpClient, opts...)}
}

// Recommendations fetches tracks for the given genre seeds.
func (c *SpotifyClient) Recommendations(ctx context.Context, seeds []string, limit int) ([]models.TrackRef, error) {
	recs, err := c.client.GetRecommendations(ctx, spotify.Seeds{Genres: seeds}, nil, spotify.Limit(limit))
	if err != nil {
		return nil, wrapError("recommendations", err)
	}

	tracks := make([]models.TrackRef, 0, len(recs.Tracks))
	for _, t := range recs.Tracks {
		tracks = append(tracks, trackRef(t))
	}
	return tracks, nil
}

// CurrentUser retrieves the profile behind the bearer token.
func (c *SpotifyClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return nil, wrapError("current user", err)
	}
	return &models.Identity{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// CreatePlaylist creates a non-collaborative playlist for req.OwnerID.
func (c *SpotifyClient) CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (string, error) {
	playlist, err := c.client.CreatePlaylistForUser(ctx, req.OwnerID, req.Name, req.Description, req.Public, false)
	if err != nil {
		return "", wrapError("create playlist", err)
	}
	return string(playlist.ID), nil
}

// AddTracks adds every track in a single request.
func (c *SpotifyClient) AddTracks(ctx context.Context, playlistID string, tracks []models.TrackRef) error {
	ids := make([]spotify.ID, len(tracks))
	for i, t := range tracks {
		ids[i] = spotify.ID(t.ID)
	}

	if _, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return wrapError("add tracks", err)
	}
	return nil
}

// AvailableGenreSeeds lists the genres accepted as recommendation seeds.
func (c *SpotifyClient) AvailableGenreSeeds(ctx context.Context) ([]string, error) {
	genres, err := c.client.GetAvailableGenreSeeds(ctx)
	if err != nil {
		return nil, wrapError("genre seeds", err)
	}
	return genres, nil
}

func trackRef(t spotify.SimpleTrack) models.TrackRef {
	ref := models.TrackRef{ID: string(t.ID), URI: string(t.URI), Name: t.Name}
	if ref.URI == "" && ref.ID != "" {
		ref.URI = "spotify:track:" + ref.ID
	}
	if len(t.Artists) > 0 {
		ref.Artist = t.Artists[0].Name
	}
	return ref
}

// maxErrorBody caps how much of a failed response is kept as the error message.
const maxErrorBody = 4 << 10

// statusTransport turns every 4xx and 5xx response into an [*APIError] before the client decodes it,
// so the status survives error bodies that are empty or not JSON.
type statusTransport struct {
	base http.RoundTripper
}

func (t *statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &APIError{Status: resp.StatusCode, Body: errorMessage(resp.StatusCode, body)}
}

// errorMessage extracts error.message from a Web API error body, falling back to the raw body or status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

// wrapError labels a failed call with op. Statuses come from [statusTransport] or a [spotify.Error];
// transport failures are wrapped unchanged.
func wrapError(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return &APIError{Op: op, Status: apiErr.Status, Body: apiErr.Body, Err: err}
	}

	var spotifyErr spotify.Error
	if errors.As(err, &spotifyErr) {
		return &APIError{Op: op, Status: spotifyErr.Status, Body: spotifyErr.Message, Err: err}
	}
	return fmt.Errorf("spotify %s: %w", op, err)
}

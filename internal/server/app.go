package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodlist/internal/formatter"
	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/moods"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/desertthunder/moodlist/internal/tasks"
	"golang.org/x/oauth2"
)

const (
	stateCookie = "oauth_state"
	stateMaxAge = 10 * time.Minute

	maxBodyBytes = 1 << 10

	identityTimeout = 10 * time.Second
)

// Authenticator is the OAuth side of the provider.
type Authenticator interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Generator runs a generation for a session.
type Generator interface {
	Generate(ctx context.Context, sess *session.Session, mood string, progress chan<- tasks.ProgressUpdate) (*models.PlaylistResult, error)
}

// History lists logged playlists.
type History = models.Lister[*models.GeneratedPlaylist]

// AppConfig configures an [App].
type AppConfig struct {
	SecureCookies bool
	RateLimit     float64
	RateBurst     int
}

// App serves the web surface: OAuth routes, mood listing, playlist generation and history.
type App struct {
	auth      Authenticator
	providers services.ProviderFactory
	generator Generator
	history   History
	logger    *log.Logger
	config    AppConfig
}

// NewApp creates an App. providers resolves the identity whose history a session may read.
// history may be nil, in which case history requests return 503.
func NewApp(auth Authenticator, providers services.ProviderFactory, generator Generator, history History, logger *log.Logger, cfg AppConfig) *App {
	return &App{auth: auth, providers: providers, generator: generator, history: history, logger: logger, config: cfg}
}

// Routes builds the router. Generation and history routes require a session and are rate limited.
func (a *App) Routes() http.Handler {
	r := NewBasicRouter()
	r.Use(Recover(a.logger), Logging(a.logger))

	r.HandleFunc(http.MethodGet, "/", a.index)
	r.HandleFunc(http.MethodGet, "/healthz", a.health)
	r.HandleFunc(http.MethodGet, "/login", a.login)
	r.HandleFunc(http.MethodGet, "/callback", a.callback)
	r.HandleFunc(http.MethodGet, "/refresh", a.refresh)
	r.HandleFunc(http.MethodGet, "/logout", a.logout)
	r.HandleFunc(http.MethodGet, "/api/moods", a.listMoods)

	r.Use(RateLimit(a.config.RateLimit, a.config.RateBurst), RequireSession)
	r.HandleFunc(http.MethodPost, "/api/playlists", a.generate)
	r.HandleFunc(http.MethodGet, "/api/playlists", a.listPlaylists)
	r.HandleFunc(http.MethodGet, "/api/playlists/events", a.events)

	return r
}

type errorBody struct {
	Error      string                 `json:"error"`
	Kind       string                 `json:"kind,omitempty"`
	Status     int                    `json:"status,omitempty"`
	PlaylistID string                 `json:"playlist_id,omitempty"`
	Playlist   *models.PlaylistResult `json:"playlist,omitempty"`
}

type moodBody struct {
	Mood         string   `json:"mood"`
	Title        string   `json:"title"`
	PlaylistName string   `json:"playlist_name"`
	Seeds        []string `json:"seeds"`
}

type playlistBody struct {
	Playlist *models.PlaylistResult `json:"playlist"`
	URL      string                 `json:"url"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, errorBody{Error: message, Kind: kind})
}

// StatusFor maps a generation error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusCreated
	case errors.Is(err, shared.ErrPartialSuccess):
		return http.StatusMultiStatus
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidMood):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNoTracksFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, shared.ErrRecommendationFetch),
		errors.Is(err, shared.ErrIdentityResolution),
		errors.Is(err, shared.ErrPlaylistCreation):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// KindName is the snake_case name of the workflow error kind, used in JSON error bodies.
func KindName(err error) string {
	switch tasks.Kind(err) {
	case shared.ErrPartialSuccess:
		return "partial_success"
	case shared.ErrNotAuthenticated:
		return "not_authenticated"
	case shared.ErrInvalidMood:
		return "invalid_mood"
	case shared.ErrGenerationInProgress:
		return "generation_in_progress"
	case shared.ErrNoTracksFound:
		return "no_tracks_found"
	case shared.ErrRecommendationFetch:
		return "recommendation_fetch"
	case shared.ErrIdentityResolution:
		return "identity_resolution"
	case shared.ErrPlaylistCreation:
		return "playlist_creation"
	case shared.ErrTrackInsertion:
		return "track_insertion"
	default:
		return ""
	}
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		a.logger.Error("failed to generate state", "error", err)
		writeError(w, http.StatusInternalServerError, "could not start login", "")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateMaxAge.Seconds()),
	})
	http.Redirect(w, r, a.auth.GetAuthURL(state), http.StatusFound)
}

func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	expected, err := r.Cookie(stateCookie)
	if err != nil || expected.Value == "" || q.Get("state") != expected.Value {
		writeError(w, http.StatusBadRequest, "Invalid state parameter.", "")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})

	if reason := q.Get("error"); reason != "" {
		writeError(w, http.StatusUnauthorized, "Spotify authorization was denied: "+reason, "not_authenticated")
		return
	}

	token, err := a.auth.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		a.logger.Warn("token exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "Could not complete Spotify login.", "")
		return
	}

	session.WriteCookies(w, session.FromOAuth2(token), a.config.SecureCookies)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(session.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "No refresh token. Sign in again.", "not_authenticated")
		return
	}

	token, err := a.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		a.logger.Warn("token refresh failed", "error", err)
		session.ClearCookies(w)
		writeError(w, http.StatusUnauthorized, "Could not refresh the Spotify session. Sign in again.", "not_authenticated")
		return
	}

	session.WriteCookies(w, session.FromOAuth2(token), a.config.SecureCookies)
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": true, "expires_at": token.Expiry})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	session.ClearCookies(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) listMoods(w http.ResponseWriter, r *http.Request) {
	body := make([]moodBody, 0, len(moods.All()))
	for _, m := range moods.All() {
		body = append(body, moodBody{
			Mood:         m.String(),
			Title:        m.Title(),
			PlaylistName: m.PlaylistName(),
			Seeds:        m.Seeds(),
		})
	}
	writeJSON(w, http.StatusOK, body)
}

// generate accepts {"mood": "..."} as JSON or a form field.
func (a *App) generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mood string `json:"mood"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Request body must be JSON like {\"mood\": \"happy\"}.", "")
			return
		}
	} else {
		req.Mood = r.FormValue("mood")
	}

	result, err := a.generator.Generate(r.Context(), SessionFrom(r.Context()), req.Mood, nil)
	status := StatusFor(err)

	if err != nil {
		a.logger.Warn("generation failed", "mood", req.Mood, "status", status, "error", err)

		body := errorBody{Error: tasks.Message(err), Kind: KindName(err)}
		var partial *tasks.PartialSuccessError
		if errors.As(err, &partial) {
			body.PlaylistID = partial.PlaylistID
			body.Playlist = result
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, status, playlistBody{Playlist: result, URL: formatter.PlaylistURL(result.PlaylistID)})
}

func (a *App) listPlaylists(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "Playlist history is not enabled.", "")
		return
	}

	identity, err := a.currentIdentity(r.Context(), SessionFrom(r.Context()))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrTokenExpired) {
			status = http.StatusUnauthorized
		}
		a.logger.Warn("failed to resolve identity for history", "error", err)
		writeError(w, status, "Could not load your Spotify profile.", "identity_resolution")
		return
	}

	q := r.URL.Query()
	if owner := q.Get("owner"); owner != "" && owner != identity.ID {
		writeError(w, http.StatusForbidden, "History is only available for your own account.", "")
		return
	}

	criteria := map[string]any{"owner_id": identity.ID, "mood": q.Get("mood")}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		criteria["limit"] = limit
	}

	playlists, err := a.history.List(criteria)
	if err != nil {
		a.logger.Error("failed to list playlists", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load playlist history.", "")
		return
	}
	writeJSON(w, http.StatusOK, formatter.HistoryEntries(playlists))
}

// currentIdentity resolves the account behind sess so history reads stay scoped to it.
func (a *App) currentIdentity(ctx context.Context, sess *session.Session) (*models.Identity, error) {
	provider, err := a.providers.ForSession(sess)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	identity, err := provider.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if identity == nil || identity.ID == "" {
		return nil, shared.ErrIdentityResolution
	}
	return identity, nil
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>moodlist</title></head>
<body>
    <h1>moodlist</h1>
    {{if .LoggedIn}}
    <p>Pick a mood to generate a private playlist. <a href="/logout">Log out</a></p>
    {{range .Moods}}
    <form method="post" action="/api/playlists" style="display:inline">
        <input type="hidden" name="mood" value="{{.}}">
        <button type="submit">{{.Title}}</button>
    </form>
    {{end}}
    {{else}}
    <p><a href="/login">Log in with Spotify</a></p>
    {{end}}
</body>
</html>
`))

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	indexPage.Execute(w, map[string]any{
		"LoggedIn": session.FromRequest(r) != nil,
		"Moods":    moods.All(),
	})
}

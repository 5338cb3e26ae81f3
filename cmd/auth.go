package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/moodlist/internal/server"
	"github.com/desertthunder/moodlist/internal/session"
	"github.com/desertthunder/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const loginTimeout = 2 * time.Minute

// AuthLogin performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server on the redirect URI, opens the browser for user authorization and saves the exchanged tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	token, err := r.doOAuth(ctx)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	}
	r.writePlain("You can now use: moodlist generate <mood>\n")
	return nil
}

// AuthStatus reports whether tokens are saved and when the access token expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sess := session.FromConfig(r.config.Credentials.Spotify)
	if sess == nil {
		return r.writePlain("✗ Not authenticated. Run 'moodlist auth login'.\n")
	}

	r.writePlain("✓ Authenticated (session %s)\n", sess.Key())
	switch {
	case sess.Expiry.IsZero():
		r.writePlain("Expiry: unknown\n")
	case sess.Expired(time.Now()):
		r.writePlain("Expiry: expired at %s\n", sess.Expiry.Format(time.RFC3339))
	default:
		r.writePlain("Expiry: %s\n", sess.Expiry.Format(time.RFC3339))
	}

	if sess.RefreshToken == "" {
		r.writePlain("Refresh token: ✗ missing\n")
	} else {
		r.writePlain("Refresh token: ✓ saved\n")
	}
	return nil
}

// AuthRefresh exchanges the saved refresh token for a new access token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSpotify(); err != nil {
		return err
	}

	if _, err := r.refreshSession(ctx); err != nil {
		return err
	}

	r.writePlain("✓ Access token refreshed (expires %s)\n", r.config.Credentials.Spotify.Expiry.Format(time.RFC3339))
	return nil
}

// AuthLogout removes the saved tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.config.Credentials.Spotify.Clear()

	if r.configPath != "" {
		if err := shared.SaveConfig(r.configPath, r.config); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	return r.writePlain("✓ Logged out\n")
}

func (r *Runner) requireSpotify() error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or the environment",
			shared.ErrMissingCredentials, r.configPathOrDefault())
	}
	return nil
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return defaultConfigPath
	}
	return r.configPath
}

// currentSession returns the saved session, refreshing it first when it has expired.
func (r *Runner) currentSession(ctx context.Context) (*session.Session, error) {
	sess := session.FromConfig(r.config.Credentials.Spotify)
	if sess == nil || !sess.Expired(time.Now()) || r.spotify == nil || sess.RefreshToken == "" {
		return sess, nil
	}

	r.logger.Info("access token expired, refreshing", "session", sess.Key())
	return r.refreshSession(ctx)
}

func (r *Runner) refreshSession(ctx context.Context) (*session.Session, error) {
	refreshToken := r.config.Credentials.Spotify.RefreshToken
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: run 'moodlist auth login'", shared.ErrNoRefreshToken)
	}

	token, err := r.spotify.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if err := r.saveTokens(token); err != nil {
		return nil, err
	}
	return session.FromConfig(r.config.Credentials.Spotify), nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := r.spotify.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(r.spotify, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:              r.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

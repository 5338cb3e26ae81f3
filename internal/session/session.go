// Package session holds the caller's provider credentials for a single generation run.
//
// A [Session] is read-only from the workflow's point of view: reading the token never refreshes it.
// Refreshing is an explicit step owned by the CLI (auth refresh) or the web server (/refresh).
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/desertthunder/moodlist/internal/shared"
	"golang.org/x/oauth2"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	// refreshCookieAge is how long the refresh token cookie lives when the provider gives no hint.
	refreshCookieAge = 30 * 24 * time.Hour
)

// Session is the authenticated context for a run.
type Session struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Token returns the bearer token or [shared.ErrNotAuthenticated].
func (s *Session) Token() (string, error) {
	if s == nil || s.AccessToken == "" {
		return "", shared.ErrNotAuthenticated
	}
	return s.AccessToken, nil
}

// Expired reports whether the session has a known expiry that is at or before now.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.Expiry.IsZero() {
		return false
	}
	return !now.Before(s.Expiry)
}

// OAuth2 converts the session into an [oauth2.Token].
func (s *Session) OAuth2() *oauth2.Token {
	if s == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.Expiry,
	}
}

// Key is a stable fingerprint of the access token, safe to log and to use as a map key.
func (s *Session) Key() string {
	if s == nil || s.AccessToken == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.AccessToken))
	return hex.EncodeToString(sum[:8])
}

// FromOAuth2 builds a session from a token returned by an exchange or refresh.
func FromOAuth2(t *oauth2.Token) *Session {
	if t == nil {
		return nil
	}
	return &Session{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken, Expiry: t.Expiry}
}

// FromConfig builds a session from tokens stored in the config file.
// Returns nil when no access token has been saved.
func FromConfig(cfg shared.SpotifyConfig) *Session {
	if cfg.AccessToken == "" {
		return nil
	}
	return &Session{AccessToken: cfg.AccessToken, RefreshToken: cfg.RefreshToken, Expiry: cfg.Expiry}
}

// FromRequest reads the session cookies; nil when the access token cookie is absent or empty.
func FromRequest(r *http.Request) *Session {
	access, err := r.Cookie(AccessTokenCookie)
	if err != nil || access.Value == "" {
		return nil
	}

	s := &Session{AccessToken: access.Value}
	if refresh, err := r.Cookie(RefreshTokenCookie); err == nil {
		s.RefreshToken = refresh.Value
	}
	return s
}

// WriteCookies stores the session as httpOnly cookies.
// The access token cookie expires with the token; the refresh token is kept longer.
func WriteCookies(w http.ResponseWriter, s *Session, secure bool) {
	if s == nil {
		return
	}

	access := &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    s.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.Expiry.IsZero() {
		access.Expires = s.Expiry
		if age := int(time.Until(s.Expiry).Seconds()); age > 0 {
			access.MaxAge = age
		}
	}
	http.SetCookie(w, access)

	if s.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     RefreshTokenCookie,
			Value:    s.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(refreshCookieAge.Seconds()),
		})
	}
}

// ClearCookies expires both session cookies.
func ClearCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
}

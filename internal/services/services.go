// package services defines the [Provider] interface for the music provider and implements it for Spotify
package services

import (
	"context"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/session"
)

// Provider is the set of provider calls a generation run makes, bound to one session's credentials.
type Provider interface {
	// Recommendations returns up to limit tracks seeded by the given genres, in provider order.
	Recommendations(ctx context.Context, seeds []string, limit int) ([]models.TrackRef, error)

	// CurrentUser returns the identity behind the bound credentials.
	CurrentUser(ctx context.Context) (*models.Identity, error)

	// CreatePlaylist creates an empty playlist and returns its id.
	CreatePlaylist(ctx context.Context, req models.PlaylistRequest) (string, error)

	// AddTracks appends tracks to a playlist in one request, preserving order.
	AddTracks(ctx context.Context, playlistID string, tracks []models.TrackRef) error

	// AvailableGenreSeeds returns the genre vocabulary accepted as recommendation seeds.
	AvailableGenreSeeds(ctx context.Context) ([]string, error)
}

// ProviderFactory builds a [Provider] for a session.
type ProviderFactory interface {
	ForSession(sess *session.Session) (Provider, error)
}

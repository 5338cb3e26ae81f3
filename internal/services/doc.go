// Package services defines the [Provider] interface and implements it for Spotify.
//
// # Provider Interface
//
// A [Provider] is bound to one session's bearer token and exposes the four calls a generation run makes
// (recommendations, current user, create playlist, add tracks) plus the genre seed vocabulary.
//
// # Spotify Implementation
//
// [SpotifyService] holds the OAuth2 configuration and handles the code exchange and explicit refresh.
// [SpotifyService.ForSession] builds a [SpotifyClient] on github.com/zmb3/spotify/v2 whose token source is
// static: an expired token surfaces as a 401 instead of being refreshed behind the caller's back.
//
// # Error Handling
//
// Provider responses with an error status become [*APIError] carrying the HTTP status and message:
//   - every [APIError] matches [shared.ErrAPIRequest]
//   - a 401 also matches [shared.ErrTokenExpired]
//
// Transport failures (DNS, refused connections, timeouts) are wrapped without a status; [StatusCode] returns 0.
package services

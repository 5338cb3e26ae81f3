// Package server provides HTTP routing, middleware, the web application and OAuth handling for the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and dispatches on method, so several methods
// can share a path.
//
// # Web Application
//
// [App] serves:
//   - GET /login, /callback, /refresh, /logout : cookie-backed Spotify session
//   - GET /api/moods : the mood catalog
//   - POST /api/playlists : generate a playlist for {"mood": "..."}
//   - GET /api/playlists/events?mood= : the same generation streamed as server-sent events
//   - GET /api/playlists : the session owner's generation history, filtered by mood
//   - GET /healthz
//
// Generation and history routes sit behind [RequireSession] and a per-client [RateLimit].
// [StatusFor] maps workflow errors to HTTP statuses: 401 not authenticated, 400 invalid mood, 404 no tracks,
// 409 generation in progress, 207 partial success (the body carries playlist_id), 502 provider failures.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the single-shot callback used by `moodlist auth login`: a temporary server on the
// redirect URI validates the state parameter, exchanges the code and delivers the token through a channel.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server

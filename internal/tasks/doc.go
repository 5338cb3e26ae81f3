// Package tasks runs the mood to playlist workflow with real-time progress reporting.
//
// # Workflow
//
// [Generator.Generate] walks a fixed state machine:
//
//	Idle → AwaitingSession → FetchingRecommendations → ResolvingIdentity → CreatingPlaylist → PopulatingTracks → Succeeded
//
// Any step may move to Failed. Preconditions (session token, mood label, in-flight guard) are checked
// before the first provider call, so a missing session or unknown mood costs no network traffic.
//
//  1. Fetch recommendations for the mood's genre seeds. A seed set rejected by the provider (400/404) is
//     retried with a shorter prefix per [SeedAttempts]. Zero tracks ends the run with no playlist created.
//  2. Resolve the user's identity.
//  3. Create a private playlist named "<Mood> Vibes Playlist".
//  4. Add every track in one call, in recommendation order.
//
// With [Config.Parallel], steps 1 and 2 run concurrently under golang.org/x/sync/errgroup.
//
// # Errors
//
// Step failures are [*StepError] values matching a shared sentinel (ErrRecommendationFetch, ErrIdentityResolution,
// ErrPlaylistCreation, ErrNoTracksFound). A failure in step 4 returns both the result and a [*PartialSuccessError]
// because the playlist already exists. [Message] turns any of these into a single line for display and [Kind]
// returns the sentinel for mapping to exit codes or HTTP statuses.
//
// # Progress Reporting
//
// State transitions are sent as [ProgressUpdate] values over an optional channel.
// Updates use select with default to prevent blocking.
//
// # Recording
//
// An optional [Recorder] is handed every created playlist, complete or partial, in a background goroutine with
// its own timeout. Recorder failures are logged and never change the run's outcome.
package tasks

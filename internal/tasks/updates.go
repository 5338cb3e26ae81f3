package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/moodlist/internal/models"
)

// ProgressUpdate represents a state transition during a generation run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	State   State  // Workflow state entered
	Step    int    // Current step number
	Total   int    // Total steps in a run
	Message string // Human-readable message for display
	Data    any    // Optional state-specific data (seeds, playlist id, result or error)
}

// State is a generation workflow state.
type State int

const (
	Idle State = iota
	AwaitingSession
	FetchingRecommendations
	ResolvingIdentity
	CreatingPlaylist
	PopulatingTracks
	Succeeded
	Failed
)

// totalSteps counts the states between Idle and the terminal states.
const totalSteps = 5

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSession:
		return "awaiting_session"
	case FetchingRecommendations:
		return "fetching_recommendations"
	case ResolvingIdentity:
		return "resolving_identity"
	case CreatingPlaylist:
		return "creating_playlist"
	case PopulatingTracks:
		return "populating_tracks"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// step returns the progress step number of s, or 0 for states outside a run.
func (s State) step() int {
	switch s {
	case AwaitingSession:
		return 1
	case FetchingRecommendations:
		return 2
	case ResolvingIdentity:
		return 3
	case CreatingPlaylist:
		return 4
	case PopulatingTracks:
		return 5
	default:
		return 0
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

func awaitingSessionUpdate() ProgressUpdate {
	return ProgressUpdate{
		State:   AwaitingSession,
		Step:    1,
		Total:   totalSteps,
		Message: "Checking Spotify session...",
	}
}

func fetchingUpdate(seeds []string, attempt int) ProgressUpdate {
	msg := fmt.Sprintf("Fetching recommendations for %s...", strings.Join(seeds, ", "))
	if attempt > 0 {
		msg = fmt.Sprintf("Retrying recommendations with %s...", strings.Join(seeds, ", "))
	}
	return ProgressUpdate{
		State:   FetchingRecommendations,
		Step:    2,
		Total:   totalSteps,
		Message: msg,
		Data:    seeds,
	}
}

func resolvingIdentityUpdate() ProgressUpdate {
	return ProgressUpdate{
		State:   ResolvingIdentity,
		Step:    3,
		Total:   totalSteps,
		Message: "Loading your Spotify profile...",
	}
}

func creatingPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		State:   CreatingPlaylist,
		Step:    4,
		Total:   totalSteps,
		Message: fmt.Sprintf("Creating playlist %q...", name),
	}
}

func populatingTracksUpdate(playlistID string, count int) ProgressUpdate {
	return ProgressUpdate{
		State:   PopulatingTracks,
		Step:    5,
		Total:   totalSteps,
		Message: fmt.Sprintf("Adding %d tracks to playlist %s...", count, playlistID),
		Data:    playlistID,
	}
}

func succeededUpdate(result *models.PlaylistResult) ProgressUpdate {
	return ProgressUpdate{
		State:   Succeeded,
		Step:    totalSteps,
		Total:   totalSteps,
		Message: fmt.Sprintf("✓ Created %s with %d tracks", result.Name, result.TrackCount),
		Data:    result,
	}
}

func failedUpdate(step int, err error) ProgressUpdate {
	return ProgressUpdate{
		State:   Failed,
		Step:    step,
		Total:   totalSteps,
		Message: "✗ " + Message(err),
		Data:    err,
	}
}

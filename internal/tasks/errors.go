package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/moodlist/internal/moods"
	"github.com/desertthunder/moodlist/internal/services"
	"github.com/desertthunder/moodlist/internal/shared"
)

// StepError is a failed workflow step. It matches both its Kind sentinel and its cause.
type StepError struct {
	State  State  // State the run was in when the step failed
	Kind   error  // One of the shared generation workflow sentinels
	Status int    // Provider HTTP status, 0 when no response was received
	Body   string // Provider error message
	Err    error  // Underlying cause, may be nil
}

func newStepError(state State, kind, err error) *StepError {
	e := &StepError{State: state, Kind: kind, Err: err}

	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		e.Status = apiErr.Status
		e.Body = apiErr.Body
	}
	return e
}

func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PartialSuccessError reports a playlist that was created but could not be populated.
// The playlist exists on the provider; PlaylistID is the handle for manual recovery.
type PartialSuccessError struct {
	PlaylistID string
	Err        error
}

func (e *PartialSuccessError) Error() string {
	return fmt.Sprintf("%v: playlist %s: %v", shared.ErrPartialSuccess, e.PlaylistID, e.Err)
}

func (e *PartialSuccessError) Unwrap() []error {
	return []error{shared.ErrPartialSuccess, e.Err}
}

// kinds are checked in order; partial success comes first because it also matches ErrTrackInsertion.
var kinds = []error{
	shared.ErrPartialSuccess,
	shared.ErrNotAuthenticated,
	shared.ErrInvalidMood,
	shared.ErrGenerationInProgress,
	shared.ErrNoTracksFound,
	shared.ErrRecommendationFetch,
	shared.ErrIdentityResolution,
	shared.ErrPlaylistCreation,
	shared.ErrTrackInsertion,
}

// Kind returns the generation workflow sentinel err matches, or nil.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Message returns a single human-readable line describing err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var partial *PartialSuccessError
	var invalid *moods.InvalidMoodError

	switch {
	case errors.As(err, &partial):
		return fmt.Sprintf("Playlist %s was created, but its tracks could not be added.", partial.PlaylistID)
	case errors.Is(err, shared.ErrNotAuthenticated):
		return "You are not logged in. Sign in with Spotify and try again."
	case errors.As(err, &invalid):
		return fmt.Sprintf("Unknown mood %q. Choose one of: %s.", invalid.Label, strings.Join(moods.Labels(), ", "))
	case errors.Is(err, shared.ErrInvalidMood):
		return fmt.Sprintf("Unknown mood. Choose one of: %s.", strings.Join(moods.Labels(), ", "))
	case errors.Is(err, shared.ErrGenerationInProgress):
		return "A playlist is already being generated. Wait for it to finish."
	case errors.Is(err, shared.ErrNoTracksFound):
		return "No tracks were found for this mood. Try another one."
	case errors.Is(err, shared.ErrTokenExpired):
		return "Your Spotify session has expired. Sign in again."
	case errors.Is(err, context.Canceled):
		return "Playlist generation was cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		return "Spotify took too long to respond. Try again."
	case errors.Is(err, shared.ErrRecommendationFetch):
		return providerMessage("Could not fetch recommendations from Spotify", err)
	case errors.Is(err, shared.ErrIdentityResolution):
		return providerMessage("Could not load your Spotify profile", err)
	case errors.Is(err, shared.ErrPlaylistCreation):
		return providerMessage("Could not create the playlist on Spotify", err)
	default:
		return "Something went wrong: " + err.Error()
	}
}

func providerMessage(prefix string, err error) string {
	if status := services.StatusCode(err); status != 0 {
		return fmt.Sprintf("%s (HTTP %d).", prefix, status)
	}
	return prefix + "."
}

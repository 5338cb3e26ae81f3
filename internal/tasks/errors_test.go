package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/moodlist/internal/moods"
	"github.com/desertthunder/moodlist/internal/shared"
	tu "github.com/desertthunder/moodlist/internal/testing"
)

func TestStepError(t *testing.T) {
	cause := tu.APIError(http.StatusBadGateway)
	err := newStepError(CreatingPlaylist, shared.ErrPlaylistCreation, cause)

	if err.Status != http.StatusBadGateway || err.Body != "Bad Gateway" {
		t.Errorf("expected status and body from provider error, got %d %q", err.Status, err.Body)
	}
	if !errors.Is(err, shared.ErrPlaylistCreation) || !errors.Is(err, cause) {
		t.Error("expected step error to match kind and cause")
	}
	if !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("expected status in message, got %q", err.Error())
	}

	bare := newStepError(FetchingRecommendations, shared.ErrNoTracksFound, nil)
	if bare.Error() != shared.ErrNoTracksFound.Error() {
		t.Errorf("unexpected message %q", bare.Error())
	}
}

func TestKindAndMessage(t *testing.T) {
	_, invalidMood := moods.Parse("calm")

	tc := []struct {
		name     string
		err      error
		kind     error
		contains string
	}{
		{"Not Authenticated", shared.ErrNotAuthenticated, shared.ErrNotAuthenticated, "not logged in"},
		{"Invalid Mood", invalidMood, shared.ErrInvalidMood, `"calm"`},
		{"In Progress", shared.ErrGenerationInProgress, shared.ErrGenerationInProgress, "already being generated"},
		{"No Tracks", newStepError(FetchingRecommendations, shared.ErrNoTracksFound, nil), shared.ErrNoTracksFound, "No tracks"},
		{
			"Fetch Failure",
			newStepError(FetchingRecommendations, shared.ErrRecommendationFetch, tu.APIError(http.StatusInternalServerError)),
			shared.ErrRecommendationFetch,
			"HTTP 500",
		},
		{
			"Expired Token",
			newStepError(ResolvingIdentity, shared.ErrIdentityResolution, tu.APIError(http.StatusUnauthorized)),
			shared.ErrIdentityResolution,
			"expired",
		},
		{
			"Creation Failure",
			newStepError(CreatingPlaylist, shared.ErrPlaylistCreation, errors.New("dial tcp: refused")),
			shared.ErrPlaylistCreation,
			"Could not create",
		},
		{
			"Partial",
			&PartialSuccessError{PlaylistID: "pl-9", Err: newStepError(PopulatingTracks, shared.ErrTrackInsertion, nil)},
			shared.ErrPartialSuccess,
			"pl-9",
		},
		{
			"Timeout",
			newStepError(FetchingRecommendations, shared.ErrRecommendationFetch, fmt.Errorf("get: %w", context.DeadlineExceeded)),
			shared.ErrRecommendationFetch,
			"too long",
		},
		{"Unknown", errors.New("boom"), nil, "boom"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.kind {
				t.Errorf("Kind() = %v, want %v", got, tt.kind)
			}
			if msg := Message(tt.err); !strings.Contains(msg, tt.contains) {
				t.Errorf("Message() = %q, want it to contain %q", msg, tt.contains)
			}
		})
	}

	if Message(nil) != "" {
		t.Error("expected empty message for nil error")
	}
}

func TestGuard(t *testing.T) {
	g := NewGuard()

	release, err := g.Acquire("a")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := g.Acquire("a"); !errors.Is(err, shared.ErrGenerationInProgress) {
		t.Errorf("expected ErrGenerationInProgress, got %v", err)
	}

	other, err := g.Acquire("b")
	if err != nil {
		t.Errorf("expected independent key to be acquired, got %v", err)
	}
	other()

	release()
	release()

	if g.Active("a") {
		t.Error("expected key to be released")
	}
	if _, err := g.Acquire("a"); err != nil {
		t.Errorf("expected key to be acquirable after release, got %v", err)
	}
}

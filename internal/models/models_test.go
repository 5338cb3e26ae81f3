package models

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/moodlist/internal/shared"
)

func TestNewPlaylistRequest(t *testing.T) {
	req := NewPlaylistRequest(&Identity{ID: "user-1"}, "Happy Vibes Playlist", "desc", false)
	if req.OwnerID != "user-1" {
		t.Errorf("expected owner user-1, got %s", req.OwnerID)
	}
	if req.Public {
		t.Error("expected private playlist")
	}

	if req := NewPlaylistRequest(nil, "n", "d", true); req.OwnerID != "" {
		t.Errorf("expected empty owner for nil identity, got %s", req.OwnerID)
	}
}

func TestGeneratedPlaylist(t *testing.T) {
	identity := Identity{ID: "user-1", DisplayName: "Test User"}
	result := PlaylistResult{
		PlaylistID: "pl-1",
		Name:       "Chill Vibes Playlist",
		Mood:       "chill",
		Seeds:      []string{"chill", "ambient"},
		TrackCount: 20,
	}

	t.Run("Valid", func(t *testing.T) {
		p := NewGeneratedPlaylist(identity, result, StatusComplete)
		if err := p.Validate(); err != nil {
			t.Fatalf("expected valid playlist, got %v", err)
		}
		if p.SeedString() != "chill,ambient" {
			t.Errorf("unexpected seed string %q", p.SeedString())
		}
		if got := p.Result(); got.PlaylistID != "pl-1" || got.TrackCount != 20 {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("Seed String Round Trip", func(t *testing.T) {
		p := NewGeneratedPlaylist(identity, result, StatusComplete)
		p.SetSeedString("rock,edm,work-out")
		if want := []string{"rock", "edm", "work-out"}; !slices.Equal(p.Seeds(), want) {
			t.Errorf("expected %v, got %v", want, p.Seeds())
		}
		p.SetSeedString("")
		if len(p.Seeds()) != 0 {
			t.Errorf("expected no seeds, got %v", p.Seeds())
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*GeneratedPlaylist)
		}{
			{"Missing Playlist ID", func(p *GeneratedPlaylist) { p.SetPlaylist("", p.Name(), p.Mood()) }},
			{"Missing Owner", func(p *GeneratedPlaylist) { p.SetOwner("", "") }},
			{"Negative Tracks", func(p *GeneratedPlaylist) { p.SetTrackCount(-1) }},
			{"Unknown Status", func(p *GeneratedPlaylist) { p.SetStatus("pending") }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				p := NewGeneratedPlaylist(identity, result, StatusPartial)
				tt.mutate(p)
				if err := p.Validate(); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/moodlist/internal/shared"
)

// PlaylistStatus records whether a generated playlist received its tracks.
type PlaylistStatus string

const (
	StatusComplete PlaylistStatus = "complete"
	StatusPartial  PlaylistStatus = "partial"
)

// GeneratedPlaylist is a logged generation run that produced a playlist on the provider.
type GeneratedPlaylist struct {
	id         string
	sequence   int
	playlistID string
	ownerID    string
	ownerName  string
	mood       string
	name       string
	seeds      []string
	trackCount int
	status     PlaylistStatus
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewGeneratedPlaylist builds an unsaved log entry from a run's identity and result.
func NewGeneratedPlaylist(identity Identity, result PlaylistResult, status PlaylistStatus) *GeneratedPlaylist {
	now := time.Now()
	return &GeneratedPlaylist{
		playlistID: result.PlaylistID,
		ownerID:    identity.ID,
		ownerName:  identity.DisplayName,
		mood:       result.Mood,
		name:       result.Name,
		seeds:      append([]string(nil), result.Seeds...),
		trackCount: result.TrackCount,
		status:     status,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (p *GeneratedPlaylist) ID() string             { return p.id }
func (p *GeneratedPlaylist) Sequence() int          { return p.sequence }
func (p *GeneratedPlaylist) PlaylistID() string     { return p.playlistID }
func (p *GeneratedPlaylist) OwnerID() string        { return p.ownerID }
func (p *GeneratedPlaylist) OwnerName() string      { return p.ownerName }
func (p *GeneratedPlaylist) Mood() string           { return p.mood }
func (p *GeneratedPlaylist) Name() string           { return p.name }
func (p *GeneratedPlaylist) Seeds() []string        { return append([]string(nil), p.seeds...) }
func (p *GeneratedPlaylist) TrackCount() int        { return p.trackCount }
func (p *GeneratedPlaylist) Status() PlaylistStatus { return p.status }
func (p *GeneratedPlaylist) CreatedAt() time.Time   { return p.createdAt }
func (p *GeneratedPlaylist) UpdatedAt() time.Time   { return p.updatedAt }
func (p *GeneratedPlaylist) DeletedAt() *time.Time  { return p.deletedAt }

// SeedString joins the seeds the way they are stored.
func (p *GeneratedPlaylist) SeedString() string { return strings.Join(p.seeds, ",") }

func (p *GeneratedPlaylist) SetID(id string)            { p.id = id }
func (p *GeneratedPlaylist) SetSequence(seq int)        { p.sequence = seq }
func (p *GeneratedPlaylist) SetTrackCount(n int)        { p.trackCount = n }
func (p *GeneratedPlaylist) SetStatus(s PlaylistStatus) { p.status = s }
func (p *GeneratedPlaylist) SetCreatedAt(t time.Time)   { p.createdAt = t }
func (p *GeneratedPlaylist) SetUpdatedAt(t time.Time)   { p.updatedAt = t }
func (p *GeneratedPlaylist) SetDeletedAt(t *time.Time)  { p.deletedAt = t }
func (p *GeneratedPlaylist) SetOwner(id, displayName string) {
	p.ownerID, p.ownerName = id, displayName
}
func (p *GeneratedPlaylist) SetSeedString(seeds string) { p.seeds = splitSeeds(seeds) }
func (p *GeneratedPlaylist) SetPlaylist(id, name, mood string) {
	p.playlistID, p.name, p.mood = id, name, mood
}

// Result converts the log entry back into the result shape used by formatters.
func (p *GeneratedPlaylist) Result() PlaylistResult {
	return PlaylistResult{
		PlaylistID: p.playlistID,
		Name:       p.name,
		Mood:       p.mood,
		Seeds:      p.Seeds(),
		TrackCount: p.trackCount,
	}
}

func (p *GeneratedPlaylist) Validate() error {
	switch {
	case p.playlistID == "":
		return fmt.Errorf("%w: playlist id is required", shared.ErrInvalidInput)
	case p.ownerID == "":
		return fmt.Errorf("%w: owner id is required", shared.ErrInvalidInput)
	case p.mood == "":
		return fmt.Errorf("%w: mood is required", shared.ErrInvalidInput)
	case p.name == "":
		return fmt.Errorf("%w: name is required", shared.ErrInvalidInput)
	case p.trackCount < 0:
		return fmt.Errorf("%w: track count must not be negative", shared.ErrInvalidInput)
	case p.status != StatusComplete && p.status != StatusPartial:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, p.status)
	}
	return nil
}

func splitSeeds(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

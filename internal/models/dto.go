package models

// TrackRef identifies a track returned by a recommendation query.
type TrackRef struct {
	ID     string `json:"id"`
	URI    string `json:"uri"`
	Name   string `json:"name"`
	Artist string `json:"artist,omitempty"`
}

// Identity is the authenticated user as reported by the provider.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// PlaylistRequest is the input to playlist creation.
type PlaylistRequest struct {
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

// NewPlaylistRequest builds the creation request for a generated playlist owned by identity.
func NewPlaylistRequest(identity *Identity, name, description string, public bool) PlaylistRequest {
	req := PlaylistRequest{Name: name, Description: description, Public: public}
	if identity != nil {
		req.OwnerID = identity.ID
	}
	return req
}

// PlaylistResult is the outcome of a generation run.
//
// On partial success PlaylistID is set and TrackCount is 0.
type PlaylistResult struct {
	PlaylistID string     `json:"playlist_id"`
	Name       string     `json:"name"`
	Mood       string     `json:"mood"`
	Seeds      []string   `json:"seeds"`
	TrackCount int        `json:"track_count"`
	Tracks     []TrackRef `json:"tracks,omitempty"`
}

package moods

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/moodlist/internal/shared"
)

// Mood is a canonical, lowercase mood label.
type Mood string

const (
	Happy     Mood = "happy"
	Sad       Mood = "sad"
	Chill     Mood = "chill"
	Energetic Mood = "energetic"
	Romantic  Mood = "romantic"
)

// playlistSuffix is appended to the title-cased mood to name generated playlists.
const playlistSuffix = "Vibes Playlist"

var order = []Mood{Happy, Sad, Chill, Energetic, Romantic}

var catalog = map[Mood][]string{
	Happy:     {"pop", "dance", "funk", "disco", "happy"},
	Sad:       {"acoustic", "piano", "chill", "indie", "ambient"},
	Chill:     {"chill", "ambient", "downtempo", "study", "sleep"},
	Energetic: {"rock", "edm", "work-out"},
	Romantic:  {"romance", "r-n-b", "soul", "jazz", "bossanova"},
}

// InvalidMoodError reports a label that is not in the catalog.
type InvalidMoodError struct {
	Label string
}

func (e *InvalidMoodError) Error() string {
	return fmt.Sprintf("%v: %q (expected one of %s)", shared.ErrInvalidMood, e.Label, strings.Join(Labels(), ", "))
}

func (e *InvalidMoodError) Is(target error) bool {
	return target == shared.ErrInvalidMood
}

// All returns every mood in display order.
func All() []Mood {
	return slices.Clone(order)
}

// Labels returns the canonical label of every mood in display order.
func Labels() []string {
	labels := make([]string, len(order))
	for i, m := range order {
		labels[i] = string(m)
	}
	return labels
}

// Parse normalizes label and resolves it to a [Mood].
func Parse(label string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(label)))
	if _, ok := catalog[m]; !ok {
		return "", &InvalidMoodError{Label: label}
	}
	return m, nil
}

// Seeds resolves label and returns its genre seeds.
func Seeds(label string) ([]string, error) {
	m, err := Parse(label)
	if err != nil {
		return nil, err
	}
	return m.Seeds(), nil
}

// Seeds returns a copy of the mood's ordered genre seeds; nil for an unknown mood.
func (m Mood) Seeds() []string {
	return slices.Clone(catalog[m])
}

// Title returns the label with its first letter upper-cased.
func (m Mood) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// PlaylistName is the name given to playlists generated for m, e.g. "Energetic Vibes Playlist".
func (m Mood) PlaylistName() string {
	return m.Title() + " " + playlistSuffix
}

// Description is the playlist description for m.
func (m Mood) Description() string {
	return fmt.Sprintf("A mood-based playlist for when you're feeling %s.", m)
}

func (m Mood) String() string {
	return string(m)
}

// Validate compares every mood's seeds against the provider's accepted genre vocabulary and returns the
// seeds it does not recognize, keyed by mood. Moods with no unknown seeds are omitted.
func Validate(available []string) map[Mood][]string {
	accepted := make(map[string]struct{}, len(available))
	for _, g := range available {
		accepted[strings.ToLower(g)] = struct{}{}
	}

	invalid := make(map[Mood][]string)
	for _, m := range order {
		for _, seed := range catalog[m] {
			if _, ok := accepted[seed]; !ok {
				invalid[m] = append(invalid[m], seed)
			}
		}
	}
	return invalid
}

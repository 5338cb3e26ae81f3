// package formatter renders generated playlists and playlist history as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/shared"
)

// Format is an output format name.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

const playlistURL = "https://open.spotify.com/playlist/"

// Formats lists the supported output formats.
func Formats() []string {
	return []string{string(Text), string(Markdown), string(CSV), string(JSON)}
}

// ParseFormat resolves a format name; "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidFlag, s, strings.Join(Formats(), ", "))
	}
}

// PlaylistURL returns the web player link for a playlist id.
func PlaylistURL(id string) string {
	return playlistURL + id
}

// Result renders a generation result in the given format.
func Result(f Format, result *models.PlaylistResult) ([]byte, error) {
	switch f {
	case Text:
		return ResultToText(result)
	case Markdown:
		return ResultToMarkdown(result)
	case CSV:
		return ResultToCSV(result)
	case JSON:
		return shared.MarshalJSON(result, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// History renders logged playlists in the given format.
func History(f Format, playlists []*models.GeneratedPlaylist) ([]byte, error) {
	switch f {
	case Text:
		return HistoryToText(playlists)
	case Markdown:
		return HistoryToMarkdown(playlists)
	case CSV:
		return HistoryToCSV(playlists)
	case JSON:
		return shared.MarshalJSON(HistoryEntries(playlists), true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ResultToText converts a PlaylistResult to plain text format
func ResultToText(result *models.PlaylistResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", result.Name)
	fmt.Fprintf(&buf, "ID: %s\n", result.PlaylistID)
	fmt.Fprintf(&buf, "URL: %s\n", PlaylistURL(result.PlaylistID))
	fmt.Fprintf(&buf, "Mood: %s\n", result.Mood)
	fmt.Fprintf(&buf, "Seeds: %s\n", strings.Join(result.Seeds, ", "))
	fmt.Fprintf(&buf, "Tracks: %d\n", result.TrackCount)

	if len(result.Tracks) > 0 {
		buf.WriteString("\n")
		for i, track := range result.Tracks {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, trackLabel(track))
		}
	}

	return buf.Bytes(), nil
}

// ResultToMarkdown converts a PlaylistResult to Markdown format
func ResultToMarkdown(result *models.PlaylistResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", result.Name)
	fmt.Fprintf(&buf, "**Mood**: %s\n", result.Mood)
	fmt.Fprintf(&buf, "**Seeds**: %s\n", strings.Join(result.Seeds, ", "))
	fmt.Fprintf(&buf, "**Tracks**: %d\n", result.TrackCount)
	fmt.Fprintf(&buf, "**Link**: [%s](%s)\n", result.PlaylistID, PlaylistURL(result.PlaylistID))

	if len(result.Tracks) > 0 {
		buf.WriteString("\n## Tracks\n\n")
		for i, track := range result.Tracks {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, trackLabel(track))
		}
	}

	return buf.Bytes(), nil
}

// ResultToCSV converts a PlaylistResult's tracks to CSV with columns: Position, ID, URI, Title, Artist
func ResultToCSV(result *models.PlaylistResult) ([]byte, error) {
	records := make([][]string, 0, len(result.Tracks))
	for i, track := range result.Tracks {
		records = append(records, []string{strconv.Itoa(i + 1), track.ID, track.URI, track.Name, track.Artist})
	}
	return writeCSV([]string{"Position", "ID", "URI", "Title", "Artist"}, records)
}

// HistoryEntry is the serialized form of a logged playlist.
type HistoryEntry struct {
	Sequence   int       `json:"sequence"`
	PlaylistID string    `json:"playlist_id"`
	Name       string    `json:"name"`
	Mood       string    `json:"mood"`
	Seeds      []string  `json:"seeds"`
	TrackCount int       `json:"track_count"`
	Status     string    `json:"status"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryEntries converts logged playlists to their serialized form.
func HistoryEntries(playlists []*models.GeneratedPlaylist) []HistoryEntry {
	entries := make([]HistoryEntry, len(playlists))
	for i, p := range playlists {
		entries[i] = HistoryEntry{
			Sequence:   p.Sequence(),
			PlaylistID: p.PlaylistID(),
			Name:       p.Name(),
			Mood:       p.Mood(),
			Seeds:      p.Seeds(),
			TrackCount: p.TrackCount(),
			Status:     string(p.Status()),
			OwnerID:    p.OwnerID(),
			CreatedAt:  p.CreatedAt(),
		}
	}
	return entries
}

// HistoryToText converts logged playlists to plain text, one per line
func HistoryToText(playlists []*models.GeneratedPlaylist) ([]byte, error) {
	var buf bytes.Buffer

	if len(playlists) == 0 {
		buf.WriteString("No playlists generated yet.\n")
		return buf.Bytes(), nil
	}

	for _, p := range playlists {
		fmt.Fprintf(&buf, "#%d  %s  %-10s %2d tracks  %s  %s",
			p.Sequence(), p.CreatedAt().Format(time.DateTime), p.Mood(), p.TrackCount(), p.Name(), p.PlaylistID())
		if p.Status() == models.StatusPartial {
			buf.WriteString("  (partial)")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// HistoryToMarkdown converts logged playlists to a Markdown table
func HistoryToMarkdown(playlists []*models.GeneratedPlaylist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Playlist History\n\n")
	buf.WriteString("| # | Created | Mood | Playlist | Tracks | Status |\n")
	buf.WriteString("|---|---------|------|----------|--------|--------|\n")

	for _, p := range playlists {
		fmt.Fprintf(&buf, "| %d | %s | %s | [%s](%s) | %d | %s |\n",
			p.Sequence(), p.CreatedAt().Format(time.DateTime), p.Mood(), p.Name(), PlaylistURL(p.PlaylistID()), p.TrackCount(), p.Status())
	}

	return buf.Bytes(), nil
}

// HistoryToCSV converts logged playlists to CSV with columns: Sequence, PlaylistID, Name, Mood, Seeds, Tracks, Status, Owner, CreatedAt
func HistoryToCSV(playlists []*models.GeneratedPlaylist) ([]byte, error) {
	records := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		records = append(records, []string{
			strconv.Itoa(p.Sequence()),
			p.PlaylistID(),
			p.Name(),
			p.Mood(),
			p.SeedString(),
			strconv.Itoa(p.TrackCount()),
			string(p.Status()),
			p.OwnerID(),
			p.CreatedAt().Format(time.RFC3339),
		})
	}
	return writeCSV([]string{"Sequence", "PlaylistID", "Name", "Mood", "Seeds", "Tracks", "Status", "Owner", "CreatedAt"}, records)
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func trackLabel(track models.TrackRef) string {
	if track.Artist == "" {
		return track.Name
	}
	return track.Artist + " - " + track.Name
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodlist/internal/models"
	"github.com/desertthunder/moodlist/internal/shared"
)

const playlistColumns = `id, sequence, playlist_id, owner_id, owner_name, mood, name, seeds, track_count, status, created_at, updated_at, deleted_at`

// PlaylistRepository implements models.Repository[*models.GeneratedPlaylist] for the generated playlist log.
//
// Handles CRUD operations with soft delete support, history queries by owner and mood,
// and satisfies tasks.Recorder through [PlaylistRepository.Record].
type PlaylistRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.GeneratedPlaylist] = (*PlaylistRepository)(nil)

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Record logs a playlist produced by a generation run.
func (r *PlaylistRepository) Record(ctx context.Context, identity models.Identity, result models.PlaylistResult, status models.PlaylistStatus) error {
	return r.CreateContext(ctx, models.NewGeneratedPlaylist(identity, result, status))
}

// Create inserts a new playlist into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.GeneratedPlaylist) error {
	return r.CreateContext(context.Background(), playlist)
}

// CreateContext is [PlaylistRepository.Create] bound to ctx.
func (r *PlaylistRepository) CreateContext(ctx context.Context, playlist *models.GeneratedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequenceContext(ctx, r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO playlists (id, sequence, playlist_id, owner_id, owner_name, mood, name, seeds, track_count, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		playlist.PlaylistID(),
		playlist.OwnerID(),
		playlist.OwnerName(),
		playlist.Mood(),
		playlist.Name(),
		playlist.SeedString(),
		playlist.TrackCount(),
		string(playlist.Status()),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	playlist.SetID(id)
	playlist.SetSequence(sequence)
	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.GeneratedPlaylist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByPlaylistID retrieves the most recent log entry for a provider playlist id
func (r *PlaylistRepository) GetByPlaylistID(playlistID string) (*models.GeneratedPlaylist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE playlist_id = ? AND deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, playlistID))
}

// Update modifies the track count and status of an existing playlist
func (r *PlaylistRepository) Update(playlist *models.GeneratedPlaylist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		UPDATE playlists
		SET track_count = ?, status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, playlist.TrackCount(), string(playlist.Status()), now, playlist.ID())
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	if err := affected(result, playlist.ID()); err != nil {
		return err
	}

	playlist.SetUpdatedAt(now)
	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return affected(result, id)
}

// List retrieves playlists matching the given criteria, newest first, excluding soft-deleted playlists.
//
// Supported criteria: "owner_id", "mood", "status" (strings) and "limit" (int).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.GeneratedPlaylist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE deleted_at IS NULL`
	args := []any{}

	for _, column := range []string{"owner_id", "mood", "status"} {
		if value, ok := criteria[column].(string); ok && value != "" {
			query += " AND " + column + " = ?"
			args = append(args, value)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.GeneratedPlaylist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// scanOne scans a single row into a [models.GeneratedPlaylist]
func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.GeneratedPlaylist, error) {
	playlist, err := scanPlaylist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlaylistNotFound
	}
	return playlist, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (*models.GeneratedPlaylist, error) {
	var (
		id         string
		sequence   int
		playlistID string
		ownerID    string
		ownerName  string
		mood       string
		name       string
		seeds      string
		trackCount int
		status     string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := s.Scan(&id, &sequence, &playlistID, &ownerID, &ownerName, &mood, &name, &seeds, &trackCount, &status, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	playlist := &models.GeneratedPlaylist{}
	playlist.SetID(id)
	playlist.SetSequence(sequence)
	playlist.SetPlaylist(playlistID, name, mood)
	playlist.SetOwner(ownerID, ownerName)
	playlist.SetSeedString(seeds)
	playlist.SetTrackCount(trackCount)
	playlist.SetStatus(models.PlaylistStatus(status))
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}

	return playlist, nil
}

func affected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLChannelRepository handles database operations for channels
type SQLChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *SQLChannelRepository {
	return &SQLChannelRepository{db: db}
}

// UpsertChannel registers a configured channel. Changing the channel ID of an
// existing name resets its sync state.
func (r *SQLChannelRepository) UpsertChannel(ctx context.Context, name, channelID string) error {
	now := formatTime(time.Now())

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO channels (name, channel_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			uploads_playlist_id = CASE WHEN channels.channel_id = excluded.channel_id
				THEN channels.uploads_playlist_id ELSE '' END,
			last_synced_at = CASE WHEN channels.channel_id = excluded.channel_id
				THEN channels.last_synced_at ELSE NULL END,
			next_poll_at = CASE WHEN channels.channel_id = excluded.channel_id
				THEN channels.next_poll_at ELSE NULL END,
			channel_id = excluded.channel_id,
			updated_at = excluded.updated_at
	`, name, channelID, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert channel %s: %w", name, err)
	}

	return nil
}

// GetChannel returns a channel by name, or nil when it is not registered
func (r *SQLChannelRepository) GetChannel(ctx context.Context, name string) (*Channel, error) {
	var channel Channel
	var lastSyncedAt, nextPollAt sql.NullString
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, `
		SELECT name, channel_id, uploads_playlist_id, title,
		       last_synced_at, next_poll_at, created_at, updated_at
		FROM channels
		WHERE name = ?
	`, name).Scan(
		&channel.Name, &channel.ChannelID, &channel.UploadsPlaylistID, &channel.Title,
		&lastSyncedAt, &nextPollAt, &createdAt, &updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	if channel.LastSyncedAt, err = parseNullTime(lastSyncedAt); err != nil {
		return nil, err
	}
	if channel.NextPollAt, err = parseNullTime(nextPollAt); err != nil {
		return nil, err
	}
	if channel.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if channel.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &channel, nil
}

// GetChannelCount returns the number of registered channels
func (r *SQLChannelRepository) GetChannelCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM channels").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get channel count: %w", err)
	}
	return count, nil
}

// UpdateChannelSync records a completed full sync
func (r *SQLChannelRepository) UpdateChannelSync(ctx context.Context, name, uploadsPlaylistID, title string, syncedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE channels
		SET uploads_playlist_id = ?, title = ?, last_synced_at = ?, updated_at = ?
		WHERE name = ?
	`, uploadsPlaylistID, title, formatTime(syncedAt), formatTime(time.Now()), name)

	if err != nil {
		return fmt.Errorf("failed to update channel sync: %w", err)
	}

	return nil
}

// UpdateNextPoll schedules the next feed poll of a channel
func (r *SQLChannelRepository) UpdateNextPoll(ctx context.Context, name string, nextPoll time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE channels
		SET next_poll_at = ?, updated_at = ?
		WHERE name = ?
	`, formatTime(nextPoll), formatTime(time.Now()), name)

	if err != nil {
		return fmt.Errorf("failed to update next poll: %w", err)
	}

	return nil
}

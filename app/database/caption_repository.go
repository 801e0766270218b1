package database

import (
	"context"
	"fmt"
	"time"
)

// SQLCaptionRepository handles database operations for captions
type SQLCaptionRepository struct {
	db *DB
}

// NewCaptionRepository creates a new caption repository
func NewCaptionRepository(db *DB) *SQLCaptionRepository {
	return &SQLCaptionRepository{db: db}
}

// ReplaceCaptions swaps the caption track of a video in one transaction and
// records that the track was fetched. An empty slice marks the video as having
// no captions so it is not fetched again.
func (r *SQLCaptionRepository) ReplaceCaptions(ctx context.Context, videoID string, captions []Caption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE videos
		SET captions_available = ?, captions_fetched_at = ?
		WHERE video_id = ?
	`, len(captions) > 0, formatTime(time.Now()), videoID)
	if err != nil {
		return fmt.Errorf("failed to update caption state for %s: %w", videoID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check caption state update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrVideoNotFound, videoID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM captions WHERE video_id = ?`, videoID); err != nil {
		return fmt.Errorf("failed to delete captions for %s: %w", videoID, err)
	}

	if len(captions) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO captions (video_id, offset_ms, duration_ms, text, text_folded)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare caption insert: %w", err)
		}
		defer stmt.Close()

		for _, caption := range captions {
			_, err := stmt.ExecContext(ctx, videoID, caption.Offset.Milliseconds(),
				caption.Duration.Milliseconds(), caption.Text, Fold(caption.Text))
			if err != nil {
				return fmt.Errorf("failed to insert caption for %s: %w", videoID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit captions for %s: %w", videoID, err)
	}

	return nil
}

// GetCaptions returns the captions of a video ordered by offset
func (r *SQLCaptionRepository) GetCaptions(ctx context.Context, videoID string) ([]Caption, error) {
	captions, err := loadCaptions(ctx, r.db, []string{videoID})
	if err != nil {
		return nil, err
	}
	if captions[videoID] == nil {
		return []Caption{}, nil
	}
	return captions[videoID], nil
}

// GetCaptionCount returns the total number of caption segments
func (r *SQLCaptionRepository) GetCaptionCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM captions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get caption count: %w", err)
	}
	return count, nil
}

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrVideoNotFound is returned by writes that target a video which is not stored
var ErrVideoNotFound = errors.New("video not found")

const videoColumns = `v.video_id, v.published_at, v.channel_id, v.title, v.description,
	v.duration, v.duration_seconds, v.view_count, v.like_count, v.comment_count,
	v.embed_html, v.captions_available, v.captions_fetched_at, v.updated_at`

// idChunkSize bounds the number of bound parameters in IN (...) lists
const idChunkSize = 500

// SQLVideoRepository handles database operations for videos
type SQLVideoRepository struct {
	db *DB
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *DB) *SQLVideoRepository {
	return &SQLVideoRepository{db: db}
}

// UpsertVideo inserts a video or refreshes its metadata. Caption state is owned
// by the caption repository and is left untouched on update.
func (r *SQLVideoRepository) UpsertVideo(ctx context.Context, video Video) error {
	if video.VideoID == "" {
		return fmt.Errorf("video ID is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO videos (
			video_id, published_at, channel_id, title, description,
			duration, duration_seconds, view_count, like_count, comment_count,
			embed_html, captions_available, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			published_at = excluded.published_at,
			channel_id = excluded.channel_id,
			title = excluded.title,
			description = excluded.description,
			duration = excluded.duration,
			duration_seconds = excluded.duration_seconds,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			embed_html = excluded.embed_html,
			updated_at = excluded.updated_at
	`, video.VideoID, formatTime(video.PublishedAt), video.ChannelID, video.Title, video.Description,
		video.Duration, video.DurationSeconds, nonNegative(video.ViewCount), nonNegative(video.LikeCount),
		nonNegative(video.CommentCount), video.EmbedHTML, formatTime(time.Now()))

	if err != nil {
		return fmt.Errorf("failed to upsert video %s: %w", video.VideoID, err)
	}

	return nil
}

// DeleteVideo removes a video; its captions go with it through the foreign key cascade
func (r *SQLVideoRepository) DeleteVideo(ctx context.Context, videoID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM videos WHERE video_id = ?`, videoID)
	if err != nil {
		return fmt.Errorf("failed to delete video %s: %w", videoID, err)
	}
	return nil
}

// GetVideo returns a video with its captions, or nil when it does not exist
func (r *SQLVideoRepository) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos v WHERE v.video_id = ?`, videoID)

	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	captions, err := loadCaptions(ctx, r.db, []string{videoID})
	if err != nil {
		return nil, err
	}
	video.Captions = captions[videoID]

	return &video, nil
}

// ListVideos returns every stored video, newest first, without captions
func (r *SQLVideoRepository) ListVideos(ctx context.Context) ([]Video, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+videoColumns+`
		FROM videos v
		ORDER BY v.published_at DESC, v.video_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

// GetVideoCount returns the total number of videos
func (r *SQLVideoRepository) GetVideoCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get video count: %w", err)
	}
	return count, nil
}

// ExistingVideoIDs reports which of the given IDs are already stored
func (r *SQLVideoRepository) ExistingVideoIDs(ctx context.Context, videoIDs []string) (map[string]bool, error) {
	existing := make(map[string]bool, len(videoIDs))

	for start := 0; start < len(videoIDs); start += idChunkSize {
		end := min(start+idChunkSize, len(videoIDs))
		chunk := videoIDs[start:end]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := r.db.QueryContext(ctx,
			`SELECT video_id FROM videos WHERE video_id IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing videos: %w", err)
		}

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan video id: %w", err)
			}
			existing[id] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("error iterating video ids: %w", err)
		}
	}

	return existing, nil
}

// VideoIDsWithoutCaptions returns videos of a channel whose caption track was never fetched
func (r *SQLVideoRepository) VideoIDsWithoutCaptions(ctx context.Context, channelID string, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT video_id
		FROM videos
		WHERE channel_id = ?
		  AND captions_fetched_at IS NULL
		ORDER BY published_at DESC
		LIMIT ?
	`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get videos without captions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating video ids: %w", err)
	}

	return ids, nil
}

// Search returns one page of videos matching query together with the number of
// matches before paging. Count and page are read in the same transaction.
func (r *SQLVideoRepository) Search(ctx context.Context, query VideoQuery) ([]Video, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin search transaction: %w", err)
	}
	defer tx.Rollback()

	where, args := query.where()

	var total int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos v`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count videos: %w", err)
	}

	videos := []Video{}
	if total == 0 || query.Limit <= 0 || query.Offset >= total {
		return videos, total, tx.Commit()
	}

	pageArgs := append(append([]any{}, args...), query.Limit, query.Offset)
	rows, err := tx.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos v`+where+
		query.orderBy()+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search videos: %w", err)
	}
	videos, err = scanVideos(rows)
	rows.Close()
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(videos))
	for i, video := range videos {
		ids[i] = video.VideoID
	}

	captions, err := loadCaptions(ctx, tx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range videos {
		videos[i].Captions = captions[videos[i].VideoID]
		if videos[i].Captions == nil {
			videos[i].Captions = []Caption{}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to finish search transaction: %w", err)
	}

	return videos, total, nil
}

func (q VideoQuery) where() (string, []any) {
	var conditions []string
	var args []any

	if keywords := Fold(q.Keywords); keywords != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM captions c
			WHERE c.video_id = v.video_id AND instr(c.text_folded, ?) > 0)`)
		args = append(args, keywords)
	}

	if q.PublishYear > 0 {
		start := time.Date(q.PublishYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		conditions = append(conditions, `v.published_at >= ? AND v.published_at < ?`)
		args = append(args, formatTime(start), formatTime(start.AddDate(1, 0, 0)))
	}

	if q.MinDurationSeconds > 0 {
		conditions = append(conditions, `v.duration_seconds >= ?`)
		args = append(args, q.MinDurationSeconds)
	}

	if q.MaxDurationSeconds > 0 {
		conditions = append(conditions, `v.duration_seconds < ?`)
		args = append(args, q.MaxDurationSeconds)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderBy only ever emits column names from the closed set below; client input
// never reaches the SQL text.
func (q VideoQuery) orderBy() string {
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}
	return " ORDER BY " + q.SortField.column() + " " + direction + ", v.video_id " + direction
}

func (f SortField) column() string {
	switch f {
	case SortViewCount:
		return "v.view_count"
	case SortLikeCount:
		return "v.like_count"
	case SortCommentCount:
		return "v.comment_count"
	case SortTitle:
		return "v.title COLLATE NOCASE"
	case SortDuration:
		return "v.duration_seconds"
	default:
		return "v.published_at"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (Video, error) {
	var video Video
	var publishedAt, updatedAt string
	var captionsFetchedAt sql.NullString

	err := row.Scan(
		&video.VideoID, &publishedAt, &video.ChannelID, &video.Title, &video.Description,
		&video.Duration, &video.DurationSeconds, &video.ViewCount, &video.LikeCount, &video.CommentCount,
		&video.EmbedHTML, &video.CaptionsAvailable, &captionsFetchedAt, &updatedAt,
	)
	if err != nil {
		return Video{}, err
	}

	if video.PublishedAt, err = parseTime(publishedAt); err != nil {
		return Video{}, err
	}
	if video.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Video{}, err
	}
	if video.CaptionsFetchedAt, err = parseNullTime(captionsFetchedAt); err != nil {
		return Video{}, err
	}

	return video, nil
}

func scanVideos(rows *sql.Rows) ([]Video, error) {
	videos := []Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video row: %w", err)
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating video rows: %w", err)
	}

	return videos, nil
}

func nonNegative(n int64) int64 {
	return max(n, 0)
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadCaptions fetches the captions of the given videos ordered by offset, grouped by video ID
func loadCaptions(ctx context.Context, q queryer, videoIDs []string) (map[string][]Caption, error) {
	grouped := make(map[string][]Caption, len(videoIDs))
	if len(videoIDs) == 0 {
		return grouped, nil
	}

	args := make([]any, len(videoIDs))
	for i, id := range videoIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT caption_id, video_id, offset_ms, duration_ms, text
		FROM captions
		WHERE video_id IN (`+placeholders(len(videoIDs))+`)
		ORDER BY video_id, offset_ms, caption_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load captions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var caption Caption
		var offsetMs, durationMs int64
		if err := rows.Scan(&caption.CaptionID, &caption.VideoID, &offsetMs, &durationMs, &caption.Text); err != nil {
			return nil, fmt.Errorf("failed to scan caption row: %w", err)
		}
		caption.Offset = time.Duration(offsetMs) * time.Millisecond
		caption.Duration = time.Duration(durationMs) * time.Millisecond
		grouped[caption.VideoID] = append(grouped[caption.VideoID], caption)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating caption rows: %w", err)
	}

	return grouped, nil
}

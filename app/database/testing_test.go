package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "starchives.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, _, err = RunMigrations(db)
	require.NoError(t, err)

	return db
}

func testVideo(id string, published time.Time) Video {
	return Video{
		VideoID:         id,
		PublishedAt:     published,
		ChannelID:       "UC-channel",
		Title:           "Video " + id,
		Description:     "Description of " + id,
		Duration:        "PT10M",
		DurationSeconds: 600,
		ViewCount:       100,
		LikeCount:       10,
		CommentCount:    1,
		EmbedHTML:       `<iframe src="https://www.youtube.com/embed/` + id + `"></iframe>`,
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

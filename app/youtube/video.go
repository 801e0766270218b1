package youtube

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sosodev/duration"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/starchives/starchives/app/database"
)

const (
	maxTitleRunes       = 100
	maxDescriptionBytes = 5000
)

func convertVideo(item *ytapi.Video) (database.Video, error) {
	video := database.Video{VideoID: item.Id}

	if item.Snippet != nil {
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			return database.Video{}, fmt.Errorf("invalid publish time for video %s: %w", item.Id, err)
		}
		video.PublishedAt = publishedAt.UTC()
		video.ChannelID = item.Snippet.ChannelId
		video.Title = truncateRunes(item.Snippet.Title, maxTitleRunes)
		video.Description = truncateBytes(item.Snippet.Description, maxDescriptionBytes)
	}

	if item.ContentDetails != nil {
		video.Duration = item.ContentDetails.Duration
		video.DurationSeconds = DurationSeconds(item.ContentDetails.Duration)
	}

	if item.Statistics != nil {
		video.ViewCount = clampCount(item.Statistics.ViewCount)
		video.LikeCount = clampCount(item.Statistics.LikeCount)
		video.CommentCount = clampCount(item.Statistics.CommentCount)
	}

	if item.Player != nil {
		video.EmbedHTML = item.Player.EmbedHtml
	}

	return video, nil
}

// DurationSeconds converts an ISO-8601 duration such as PT15M33S into whole
// seconds. Unparseable values, including the P0D of live streams, yield 0.
func DurationSeconds(iso string) int64 {
	if iso == "" {
		return 0
	}
	d, err := duration.Parse(iso)
	if err != nil {
		return 0
	}
	return int64(d.ToTimeDuration() / time.Second)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// truncateBytes cuts s to at most limit bytes without splitting a rune
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.ToValidUTF8(s[:cut], "")
}

func clampCount(n uint64) int64 {
	const maxCount = uint64(1<<63 - 1)
	if n > maxCount {
		return int64(maxCount)
	}
	return int64(n)
}

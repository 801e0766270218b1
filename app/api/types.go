package api

import (
	"html/template"
	"time"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
	"github.com/starchives/starchives/app/logbuf"
	"github.com/starchives/starchives/app/search"
	"github.com/starchives/starchives/app/shared"
	"github.com/starchives/starchives/app/tasks"
)

type Handler struct {
	videoRepo   database.VideoRepository
	captionRepo database.CaptionRepository
	channelRepo database.ChannelRepository
	planner     *search.Planner
	configCache *channel.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
	logs        *logbuf.Buffer
	title       *shared.Title
	page        *template.Template
	version     string
}

// VideoSummary is a video without its caption track
type VideoSummary struct {
	VideoID           string    `json:"videoId"`
	PublishedAt       time.Time `json:"publishedAt"`
	ChannelID         string    `json:"channelId"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Duration          string    `json:"duration"`
	ViewCount         int64     `json:"viewCount"`
	LikeCount         int64     `json:"likeCount"`
	CommentCount      int64     `json:"commentCount"`
	EmbedHTML         string    `json:"embedHtml"`
	CaptionsAvailable bool      `json:"captionsAvailable"`
}

type VideoDetail struct {
	VideoSummary
	Captions []search.CaptionResult `json:"captions"`
}

type titleRequest struct {
	Title string `json:"title" binding:"required"`
}

func summarize(video database.Video) VideoSummary {
	return VideoSummary{
		VideoID:           video.VideoID,
		PublishedAt:       video.PublishedAt,
		ChannelID:         video.ChannelID,
		Title:             video.Title,
		Description:       video.Description,
		Duration:          video.Duration,
		ViewCount:         video.ViewCount,
		LikeCount:         video.LikeCount,
		CommentCount:      video.CommentCount,
		EmbedHTML:         video.EmbedHTML,
		CaptionsAvailable: video.CaptionsAvailable,
	}
}

package search

import (
	"context"
	"fmt"
	"time"

	"github.com/starchives/starchives/app/database"
)

// Store is the part of the video repository the planner reads from
type Store interface {
	Search(ctx context.Context, query database.VideoQuery) ([]database.Video, int, error)
}

var _ Store = (*database.SQLVideoRepository)(nil)

// Page is the pagination envelope returned to clients
type Page struct {
	CurrentPage int           `json:"currentPage"`
	PageSize    int           `json:"pageSize"`
	TotalCount  int           `json:"totalCount"`
	TotalPages  int           `json:"totalPages"`
	Data        []VideoResult `json:"data"`
}

type VideoResult struct {
	VideoID      string          `json:"videoId"`
	Title        string          `json:"title"`
	PublishedAt  time.Time       `json:"publishedAt"`
	Duration     string          `json:"duration"`
	ViewCount    int64           `json:"viewCount"`
	LikeCount    int64           `json:"likeCount"`
	CommentCount int64           `json:"commentCount"`
	Captions     []CaptionResult `json:"captions"`
}

type CaptionResult struct {
	OffsetMs   int64  `json:"offsetMs"`
	DurationMs int64  `json:"durationMs"`
	Text       string `json:"text"`
}

// Planner runs paginated video searches. It holds no mutable state and is
// safe for concurrent use.
type Planner struct {
	store Store
}

func NewPlanner(store Store) *Planner {
	return &Planner{store: store}
}

// Run normalises params and returns the requested page
func (p *Planner) Run(ctx context.Context, params Params) (*Page, error) {
	return p.Search(ctx, Normalize(params))
}

// Search returns one page of videos for an already normalised request
func (p *Planner) Search(ctx context.Context, req Request) (*Page, error) {
	videos, total, err := p.store.Search(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	page := &Page{
		CurrentPage: req.Page,
		PageSize:    req.PageSize,
		TotalCount:  total,
		TotalPages:  TotalPages(total, req.PageSize),
		Data:        make([]VideoResult, 0, len(videos)),
	}

	for _, video := range videos {
		page.Data = append(page.Data, project(video))
	}

	return page, nil
}

// TotalPages is ceil(total / pageSize)
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func project(video database.Video) VideoResult {
	result := VideoResult{
		VideoID:      video.VideoID,
		Title:        video.Title,
		PublishedAt:  video.PublishedAt,
		Duration:     video.Duration,
		ViewCount:    video.ViewCount,
		LikeCount:    video.LikeCount,
		CommentCount: video.CommentCount,
		Captions:     make([]CaptionResult, 0, len(video.Captions)),
	}

	for _, caption := range video.Captions {
		result.Captions = append(result.Captions, CaptionResult{
			OffsetMs:   caption.Offset.Milliseconds(),
			DurationMs: caption.Duration.Milliseconds(),
			Text:       caption.Text,
		})
	}

	return result
}

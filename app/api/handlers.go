package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/starchives/starchives/app/channel"
	"github.com/starchives/starchives/app/database"
	"github.com/starchives/starchives/app/logbuf"
	"github.com/starchives/starchives/app/search"
	"github.com/starchives/starchives/app/shared"
	"github.com/starchives/starchives/app/tasks"
)

// NewHandler wires the HTTP handlers. scheduler may be nil when ingestion is disabled.
func NewHandler(videoRepo database.VideoRepository, captionRepo database.CaptionRepository,
	channelRepo database.ChannelRepository, planner *search.Planner, configCache *channel.ConfigCache,
	scheduler tasks.TaskSchedulerInterface, logs *logbuf.Buffer, title *shared.Title, version string) *Handler {
	return &Handler{
		videoRepo:   videoRepo,
		captionRepo: captionRepo,
		channelRepo: channelRepo,
		planner:     planner,
		configCache: configCache,
		scheduler:   scheduler,
		logs:        logs,
		title:       title,
		page:        pageTemplate,
		version:     version,
	}
}

func paramsFromQuery(c *gin.Context) search.Params {
	return search.Params{
		Keywords:      c.Query("keywords"),
		PublishYear:   c.Query("publishYear"),
		Duration:      c.Query("duration"),
		SortBy:        c.Query("sortBy"),
		SortDirection: c.Query("sortDirection"),
		Page:          c.Query("page"),
		PageSize:      c.Query("pageSize"),
	}
}

func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.videoRepo.ListVideos(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	summaries := make([]VideoSummary, 0, len(videos))
	for _, video := range videos {
		summaries = append(summaries, summarize(video))
	}

	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) SearchVideos(c *gin.Context) {
	page, err := h.planner.Run(c.Request.Context(), paramsFromQuery(c))
	if err != nil {
		slog.Error("Database error", "operation", "search_videos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetVideo(c *gin.Context) {
	id := c.Param("id")

	video, err := h.videoRepo.GetVideo(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "get_video", "video_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}

	detail := VideoDetail{
		VideoSummary: summarize(*video),
		Captions:     make([]search.CaptionResult, 0, len(video.Captions)),
	}
	for _, caption := range video.Captions {
		detail.Captions = append(detail.Captions, search.CaptionResult{
			OffsetMs:   caption.Offset.Milliseconds(),
			DurationMs: caption.Duration.Milliseconds(),
			Text:       caption.Text,
		})
	}

	c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"ingestion": h.scheduler != nil,
	}

	if videoCount, err := h.videoRepo.GetVideoCount(ctx); err == nil {
		health["videos"] = videoCount
	}

	if captionCount, err := h.captionRepo.GetCaptionCount(ctx); err == nil {
		health["captions"] = captionCount
	}

	if channelCount, err := h.channelRepo.GetChannelCount(ctx); err == nil {
		health["channels"] = channelCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetLogs(c *gin.Context) {
	lines := h.logs.Lines()
	c.JSON(http.StatusOK, gin.H{
		"lines": lines,
		"count": len(lines),
	})
}

func (h *Handler) GetTitle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"title": h.title.Get()})
}

func (h *Handler) SetTitle(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing title"})
		return
	}

	if !h.title.Set(req.Title) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title must not be blank"})
		return
	}

	slog.Info("Site title changed", "title", h.title.Get())
	c.JSON(http.StatusOK, gin.H{"title": h.title.Get()})
}

// TitleEvents streams the site title as server-sent events, starting with the current one
func (h *Handler) TitleEvents(c *gin.Context) {
	updates, cancel := h.title.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("title", h.title.Get())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case title, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("title", title)
			return true
		}
	})
}

func (h *Handler) SyncChannel(c *gin.Context) {
	name := c.Param("name")

	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ingestion is disabled"})
		return
	}

	task, err := h.scheduler.TriggerSync(name)
	switch {
	case errors.Is(err, tasks.ErrUnknownChannel):
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel configuration not found"})
		return
	case errors.Is(err, tasks.ErrAlreadyPending):
		c.JSON(http.StatusConflict, gin.H{"error": "Sync already pending"})
		return
	case err != nil:
		slog.Error("Failed to enqueue channel sync", "channel", name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to enqueue sync"})
		return
	}

	slog.Info("Channel sync requested", "channel", name, "task_id", task.GetID())
	c.JSON(http.StatusAccepted, gin.H{
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

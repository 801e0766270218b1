package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/starchives/starchives/app/database"
)

// MaxResultsPerPage is the largest page the Data API serves for list calls
const MaxResultsPerPage = 50

var ErrChannelNotFound = errors.New("channel not found")

var videoParts = []string{"snippet", "contentDetails", "statistics", "player"}

// Client wraps the YouTube Data API v3 calls used for ingestion
type Client struct {
	service *ytapi.Service
}

// NewClient creates a Data API client authenticated with an API key.
// Extra options are appended last and may override the endpoint or HTTP client.
func NewClient(ctx context.Context, apiKey, userAgent string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	options := append([]option.ClientOption{
		option.WithAPIKey(apiKey),
		option.WithUserAgent(userAgent),
	}, opts...)

	service, err := ytapi.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// UploadsPlaylistID resolves the playlist holding every upload of a channel,
// together with the channel's display title.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, string, error) {
	resp, err := c.service.Channels.List([]string{"snippet", "contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to get channel %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return "", "", fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	item := resp.Items[0]
	title := ""
	if item.Snippet != nil {
		title = item.Snippet.Title
	}

	return item.ContentDetails.RelatedPlaylists.Uploads, title, nil
}

// UploadIDPages walks a playlist page by page and hands each page of video IDs
// to fn. Returning an error from fn stops the walk.
func (c *Client) UploadIDPages(ctx context.Context, playlistID string, fn func(ids []string) error) error {
	call := c.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(MaxResultsPerPage)

	pageToken := ""
	for {
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to list playlist %s: %w", playlistID, err)
		}

		ids := make([]string, 0, len(resp.Items))
		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		if len(ids) > 0 {
			if err := fn(ids); err != nil {
				return err
			}
		}

		if resp.NextPageToken == "" {
			return nil
		}
		pageToken = resp.NextPageToken
	}
}

// Videos fetches full details for the given IDs, at most MaxResultsPerPage per request.
// IDs the API does not return (private or deleted videos) are skipped.
func (c *Client) Videos(ctx context.Context, ids []string) ([]database.Video, error) {
	videos := make([]database.Video, 0, len(ids))

	for start := 0; start < len(ids); start += MaxResultsPerPage {
		end := min(start+MaxResultsPerPage, len(ids))

		resp, err := c.service.Videos.List(videoParts).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get video details: %w", err)
		}

		for _, item := range resp.Items {
			video, err := convertVideo(item)
			if err != nil {
				return nil, err
			}
			videos = append(videos, video)
		}
	}

	return videos, nil
}

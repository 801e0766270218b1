package youtube

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
)

const DefaultFeedURL = "https://www.youtube.com/feeds/videos.xml"

// FeedReader reads a channel's public uploads feed. The feed lists the most
// recent uploads and costs no API quota.
type FeedReader struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	baseURL      string
	userAgent    string
}

func NewFeedReader(httpClient *http.Client, baseURL, userAgent string) *FeedReader {
	if baseURL == "" {
		baseURL = DefaultFeedURL
	}
	return &FeedReader{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		baseURL:      baseURL,
		userAgent:    userAgent,
	}
}

// RecentVideoIDs returns the video IDs of the channel's feed, newest first
func (r *FeedReader) RecentVideoIDs(ctx context.Context, channelID string) ([]string, error) {
	data, err := r.fetch(ctx, r.baseURL+"?channel_id="+url.QueryEscape(channelID))
	if err != nil {
		return nil, err
	}

	feed, err := r.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	ids := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if id := videoIDFromItem(item); id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (r *FeedReader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrChannelNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func videoIDFromItem(item *gofeed.Item) string {
	if yt, ok := item.Extensions["yt"]; ok {
		if values := yt["videoId"]; len(values) > 0 && values[0].Value != "" {
			return values[0].Value
		}
	}
	return strings.TrimPrefix(item.GUID, "yt:video:")
}

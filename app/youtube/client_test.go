package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), "test-key", "Starchives/test",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "ua")
	assert.Error(t, err)
}

func TestUploadsPlaylistID(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/channels", r.URL.Path)
		assert.Equal(t, []string{"UC123"}, r.URL.Query()["id"])

		writeJSON(t, w, map[string]any{
			"items": []any{map[string]any{
				"id":      "UC123",
				"snippet": map[string]any{"title": "Starbase"},
				"contentDetails": map[string]any{
					"relatedPlaylists": map[string]any{"uploads": "UU123"},
				},
			}},
		})
	}))

	playlistID, title, err := client.UploadsPlaylistID(context.Background(), "UC123")
	require.NoError(t, err)
	assert.Equal(t, "UU123", playlistID)
	assert.Equal(t, "Starbase", title)
}

func TestUploadsPlaylistIDUnknownChannel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"items": []any{}})
	}))

	_, _, err := client.UploadsPlaylistID(context.Background(), "UCnope")
	assert.True(t, errors.Is(err, ErrChannelNotFound))
}

func TestUploadIDPagesFollowsPageTokens(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/playlistItems", r.URL.Path)
		assert.Equal(t, "UU123", r.URL.Query().Get("playlistId"))
		assert.Equal(t, "50", r.URL.Query().Get("maxResults"))

		item := func(id string) map[string]any {
			return map[string]any{"contentDetails": map[string]any{"videoId": id}}
		}

		switch r.URL.Query().Get("pageToken") {
		case "":
			writeJSON(t, w, map[string]any{"items": []any{item("a"), item("b")}, "nextPageToken": "p2"})
		case "p2":
			writeJSON(t, w, map[string]any{"items": []any{item("c")}})
		default:
			http.Error(w, "unexpected page", http.StatusBadRequest)
		}
	}))

	var pages [][]string
	err := client.UploadIDPages(context.Background(), "UU123", func(ids []string) error {
		pages = append(pages, ids)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, pages)
}

func TestUploadIDPagesStopsOnCallbackError(t *testing.T) {
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(t, w, map[string]any{
			"items":         []any{map[string]any{"contentDetails": map[string]any{"videoId": "a"}}},
			"nextPageToken": "more",
		})
	}))

	stop := errors.New("stop")
	err := client.UploadIDPages(context.Background(), "UU123", func([]string) error { return stop })
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestVideosBatchesRequests(t *testing.T) {
	var batches []int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/youtube/v3/videos", r.URL.Path)
		ids := r.URL.Query()["id"]
		batches = append(batches, len(ids))

		items := make([]any, 0, len(ids))
		for _, id := range ids {
			items = append(items, map[string]any{
				"id": id,
				"snippet": map[string]any{
					"publishedAt": "2024-03-14T15:09:26Z",
					"channelId":   "UC123",
					"title":       "Video " + id,
					"description": "About " + id,
				},
				"contentDetails": map[string]any{"duration": "PT15M33S"},
				"statistics": map[string]any{
					"viewCount":    "1200",
					"likeCount":    "34",
					"commentCount": "5",
				},
				"player": map[string]any{"embedHtml": "<iframe></iframe>"},
			})
		}
		writeJSON(t, w, map[string]any{"items": items})
	}))

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("v%03d", i)
	}

	videos, err := client.Videos(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 50, 20}, batches)
	require.Len(t, videos, 120)

	first := videos[0]
	assert.Equal(t, "v000", first.VideoID)
	assert.Equal(t, "UC123", first.ChannelID)
	assert.Equal(t, time.Date(2024, time.March, 14, 15, 9, 26, 0, time.UTC), first.PublishedAt)
	assert.Equal(t, "PT15M33S", first.Duration)
	assert.Equal(t, int64(933), first.DurationSeconds)
	assert.Equal(t, int64(1200), first.ViewCount)
	assert.Equal(t, int64(34), first.LikeCount)
	assert.Equal(t, int64(5), first.CommentCount)
	assert.Equal(t, "<iframe></iframe>", first.EmbedHTML)
}

func TestVideosPropagatesAPIErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quotaExceeded"}}`, http.StatusForbidden)
	}))

	_, err := client.Videos(context.Background(), []string{"a"})
	assert.Error(t, err)
}

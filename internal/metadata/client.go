// Package metadata looks up display metadata (title, thumbnail, duration)
// for YouTube videos through the Data API v3.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jiwonMe/slamslam/internal/ytid"
)

// DefaultVideosURL is the YouTube Data API v3 videos endpoint.
const DefaultVideosURL = "https://www.googleapis.com/youtube/v3/videos"

// ErrNotFound means the upstream API returned no items for the video id.
var ErrNotFound = errors.New("video not found")

// VideoInfo is the display metadata attached to a playlist entry at
// creation time.
type VideoInfo struct {
	Title         string `json:"title"`
	ThumbnailURL  string `json:"thumbnailUrl"`
	DurationLabel string `json:"durationLabel"`
}

// Source resolves a video id into display metadata.
type Source interface {
	Lookup(ctx context.Context, videoID string) (VideoInfo, error)
}

// Fallback is the placeholder record returned when metadata cannot be
// fetched. Playlist insertion must never be blocked by the metadata source,
// so callers substitute this on any lookup failure.
func Fallback() VideoInfo {
	return VideoInfo{
		Title:         "(unknown video)",
		ThumbnailURL:  "/placeholder-thumbnail.jpg",
		DurationLabel: "0:00",
	}
}

// Client calls the YouTube Data API. The API key stays server-side; browsers
// reach this through the same-origin /metadata endpoint.
type Client struct {
	apiKey    string
	videosURL string
	http      *http.Client
}

func NewClient(apiKey, videosURL string) *Client {
	if videosURL == "" {
		videosURL = DefaultVideosURL
	}
	return &Client{
		apiKey:    apiKey,
		videosURL: videosURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type ytVideosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *Client) Lookup(ctx context.Context, videoID string) (VideoInfo, error) {
	val := url.Values{}
	val.Set("part", "snippet,contentDetails")
	val.Set("id", videoID)
	val.Set("key", c.apiKey)

	reqURL := c.videosURL + "?" + val.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return VideoInfo{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return VideoInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VideoInfo{}, fmt.Errorf("youtube status %d", resp.StatusCode)
	}

	var body ytVideosResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return VideoInfo{}, err
	}

	if len(body.Items) == 0 {
		return VideoInfo{}, ErrNotFound
	}

	item := body.Items[0]
	thumbs := item.Snippet.Thumbnails
	thumb := thumbs.Medium.URL
	if thumb == "" {
		thumb = thumbs.High.URL
	}
	if thumb == "" {
		thumb = thumbs.Default.URL
	}

	return VideoInfo{
		Title:         item.Snippet.Title,
		ThumbnailURL:  thumb,
		DurationLabel: ytid.FormatDuration(item.ContentDetails.Duration),
	}, nil
}

package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"video-qa/internal/models"
)

// CaptionClient fetches timed transcript segments from YouTube.
type CaptionClient struct {
	client *youtube.Client
}

// NewCaptionClient returns a client that issues every request through
// httpClient. A nil httpClient uses the library default.
func NewCaptionClient(httpClient *http.Client) *CaptionClient {
	return &CaptionClient{client: &youtube.Client{HTTPClient: httpClient}}
}

// Segments returns the transcript for lang, or for the first available
// language when lang is empty.
func (c *CaptionClient) Segments(ctx context.Context, videoID, lang string) ([]models.Segment, error) {
	video, err := c.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVideoUnavailable, err)
	}

	if len(video.CaptionTracks) == 0 {
		return nil, ErrTranscriptsDisabled
	}

	code, ok := matchTrack(video.CaptionTracks, lang)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLanguageUnavailable, lang)
	}

	transcript, err := c.client.GetTranscriptCtx(ctx, video, code)
	if err != nil {
		if errors.Is(err, youtube.ErrTranscriptDisabled) {
			return nil, ErrTranscriptsDisabled
		}
		return nil, fmt.Errorf("failed to get transcript for %s (%s): %w", videoID, code, err)
	}

	segments := make([]models.Segment, 0, len(transcript))
	for _, s := range transcript {
		segments = append(segments, models.Segment{
			Text:     s.Text,
			Start:    time.Duration(s.StartMs) * time.Millisecond,
			Duration: time.Duration(s.Duration) * time.Millisecond,
		})
	}
	return segments, nil
}

// matchTrack resolves a requested language to a concrete track code.
// Exact matches win over regional variants ("en" matches "en-GB").
func matchTrack(tracks []youtube.CaptionTrack, lang string) (string, bool) {
	if lang == "" {
		return tracks[0].LanguageCode, true
	}
	for _, t := range tracks {
		if t.LanguageCode == lang {
			return t.LanguageCode, true
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, lang+"-") {
			return t.LanguageCode, true
		}
	}
	return "", false
}

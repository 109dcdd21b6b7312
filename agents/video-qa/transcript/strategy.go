// Package transcript turns a video reference into transcript text by
// running an ordered chain of acquisition strategies.
package transcript

import (
	"context"
	"errors"
	"strings"
	"time"

	"video-qa/internal/models"
)

var (
	ErrEmptyTranscript    = errors.New("transcript is empty")
	ErrNoCaptionTracks    = errors.New("no eligible caption track")
	ErrProxyPoolExhausted = errors.New("all proxies failed")
)

// Strategy is one self-contained way of acquiring transcript text.
// A nil error must come with non-empty text.
type Strategy interface {
	Name() string
	Acquire(ctx context.Context, ref models.VideoReference) (string, error)
}

// SegmentSource fetches timed transcript segments. An empty lang means
// the first available language.
type SegmentSource interface {
	Segments(ctx context.Context, videoID, lang string) ([]models.Segment, error)
}

// VideoInfoExtractor enumerates subtitle and caption tracks of a video
// without downloading media.
type VideoInfoExtractor interface {
	Extract(ctx context.Context, rawURL string, languages []string) (*models.VideoInfo, error)
}

// AudioDownloader saves the best audio-only stream under basePath plus an
// extension and returns the path written.
type AudioDownloader interface {
	Download(ctx context.Context, rawURL, basePath string) (string, error)
}

// Recognizer turns a local audio file into text.
type Recognizer interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// TitleSource resolves display titles.
type TitleSource interface {
	Title(ctx context.Context, ref models.VideoReference) (string, error)
}

type timeoutStrategy struct {
	Strategy
	timeout time.Duration
}

// WithTimeout bounds every Acquire call of s. A non-positive timeout
// returns s unchanged.
func WithTimeout(s Strategy, timeout time.Duration) Strategy {
	if timeout <= 0 {
		return s
	}
	return &timeoutStrategy{Strategy: s, timeout: timeout}
}

func (t *timeoutStrategy) Acquire(ctx context.Context, ref models.VideoReference) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.Strategy.Acquire(ctx, ref)
}

// JoinSegments concatenates segment texts with single spaces in their
// original order. Entries are used as returned, blank ones included.
func JoinSegments(segments []models.Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

package transcript

import (
	"context"
	"fmt"
	"strings"

	"video-qa/internal/models"
	"video-qa/shared/logging"
)

// DirectStrategy fetches the transcript straight from the platform.
type DirectStrategy struct {
	source    SegmentSource
	languages []string
}

func NewDirectStrategy(source SegmentSource, languages []string) *DirectStrategy {
	return &DirectStrategy{source: source, languages: languages}
}

func (d *DirectStrategy) Name() string {
	return "direct"
}

func (d *DirectStrategy) Acquire(ctx context.Context, ref models.VideoReference) (string, error) {
	text, err := fetchWithFallback(ctx, d.source, ref.ID, d.languages)
	if err != nil {
		return "", fmt.Errorf("direct transcript fetch failed: %w", err)
	}
	return text, nil
}

// fetchWithFallback tries each preferred language in order and then any
// language. It returns the last cause when every attempt fails.
func fetchWithFallback(ctx context.Context, source SegmentSource, videoID string, languages []string) (string, error) {
	log := logging.FromContext(ctx)

	attempts := make([]string, 0, len(languages)+1)
	attempts = append(attempts, languages...)
	attempts = append(attempts, "")

	var lastErr error
	for _, lang := range attempts {
		segments, err := source.Segments(ctx, videoID, lang)
		if err != nil {
			log.WithError(err).WithField("language", langLabel(lang)).Debug("transcript fetch attempt failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if text := JoinSegments(segments); strings.TrimSpace(text) != "" {
			return text, nil
		}
		lastErr = ErrEmptyTranscript
	}

	return "", lastErr
}

func langLabel(lang string) string {
	if lang == "" {
		return "any"
	}
	return lang
}

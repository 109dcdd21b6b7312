package transcript

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"video-qa/internal/models"
	"video-qa/shared/logging"
)

const maxSubtitleBytes = 16 << 20

// Formats the subtitle parser understands, best first.
var captionFormats = []string{"vtt", "srt"}

// CaptionStrategy downloads a subtitle or automatic caption track listed
// by a video-info extractor and parses it to plain text.
type CaptionStrategy struct {
	extractor VideoInfoExtractor
	client    *http.Client
	languages []string

	retryInitial time.Duration
	maxTries     uint
}

func NewCaptionStrategy(extractor VideoInfoExtractor, client *http.Client, languages []string) *CaptionStrategy {
	if client == nil {
		client = http.DefaultClient
	}
	return &CaptionStrategy{
		extractor:    extractor,
		client:       client,
		languages:    languages,
		retryInitial: time.Second,
		maxTries:     3,
	}
}

func (c *CaptionStrategy) Name() string {
	return "captions"
}

func (c *CaptionStrategy) Acquire(ctx context.Context, ref models.VideoReference) (string, error) {
	log := logging.FromContext(ctx)

	info, err := c.extractor.Extract(ctx, ref.WatchURL(), c.languages)
	if err != nil {
		return "", fmt.Errorf("video info extraction failed: %w", err)
	}

	candidates := RankCaptionTracks(info, c.languages)
	if len(candidates) == 0 {
		return "", ErrNoCaptionTracks
	}

	var lastErr error
	for _, track := range candidates {
		fields := logrus.Fields{
			"language":  track.Language,
			"format":    track.Format,
			"automatic": track.Automatic,
		}

		text, err := c.download(ctx, track)
		if err != nil {
			log.WithError(err).WithFields(fields).Debug("caption track download failed")
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if text == "" {
			lastErr = ErrEmptyTranscript
			continue
		}

		log.WithFields(fields).Info("caption track parsed")
		return text, nil
	}

	return "", fmt.Errorf("%w: %d candidates failed: %w", ErrNoCaptionTracks, len(candidates), lastErr)
}

func (c *CaptionStrategy) download(ctx context.Context, track models.CaptionTrack) (string, error) {
	operation := func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
		if err != nil {
			return "", backoff.Permanent(err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			return "", fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return "", backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		text, err := ParseSubtitles(io.LimitReader(resp.Body, maxSubtitleBytes))
		if err != nil {
			return "", backoff.Permanent(err)
		}
		return text, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	bo.MaxInterval = 10 * c.retryInitial

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxTries), backoff.WithMaxElapsedTime(30*time.Second))
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// RankCaptionTracks orders the eligible tracks of info. Preferred
// languages come first (in the given order), then any English variant,
// then everything else. Inside each group explicit subtitles beat
// automatic captions, languages sort alphabetically, and vtt beats srt.
// Other formats are dropped.
func RankCaptionTracks(info *models.VideoInfo, languages []string) []models.CaptionTrack {
	if info == nil {
		return nil
	}

	type ranked struct {
		track    models.CaptionTrack
		langRank int
		auto     int
		format   int
		name     string
	}

	var all []ranked
	add := func(tracks map[string][]models.CaptionTrack, auto int) {
		for lang, list := range tracks {
			for _, t := range list {
				f := formatRank(t.Format)
				if f < 0 || t.URL == "" {
					continue
				}
				if t.Language == "" {
					t.Language = lang
				}
				all = append(all, ranked{
					track:    t,
					langRank: languageRank(lang, languages),
					auto:     auto,
					format:   f,
					name:     lang,
				})
			}
		}
	}
	add(info.Subtitles, 0)
	add(info.AutomaticCaptions, 1)

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.langRank != b.langRank {
			return a.langRank < b.langRank
		}
		if a.auto != b.auto {
			return a.auto < b.auto
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.format < b.format
	})

	out := make([]models.CaptionTrack, 0, len(all))
	for _, r := range all {
		out = append(out, r.track)
	}
	return out
}

// languageRank returns the index of the first preferred language matching
// lang, len(languages) for other English variants and len(languages)+1
// for the rest.
func languageRank(lang string, languages []string) int {
	for i, pref := range languages {
		if lang == pref || strings.HasPrefix(lang, pref+"-") {
			return i
		}
	}
	if lang == "en" || strings.HasPrefix(lang, "en-") {
		return len(languages)
	}
	return len(languages) + 1
}

func formatRank(format string) int {
	for i, f := range captionFormats {
		if strings.EqualFold(format, f) {
			return i
		}
	}
	return -1
}

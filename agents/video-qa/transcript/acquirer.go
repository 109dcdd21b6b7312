package transcript

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"video-qa/agents/video-qa/youtube"
	"video-qa/internal/models"
	"video-qa/shared/logging"
)

type Options struct {
	// TitleTimeout bounds the metadata lookup. Zero means no extra bound.
	TitleTimeout time.Duration
	// OnAttempt is called after every strategy run.
	OnAttempt func(attempt models.AcquisitionAttempt)
}

// Acquirer runs the strategies in order and stops at the first one that
// yields text. It keeps no per-request state and is safe for concurrent use.
type Acquirer struct {
	titles     TitleSource
	strategies []Strategy
	opts       Options
}

func NewAcquirer(titles TitleSource, opts Options, strategies ...Strategy) *Acquirer {
	return &Acquirer{
		titles:     titles,
		strategies: strategies,
		opts:       opts,
	}
}

// Strategies returns the names of the configured strategies in run order.
func (a *Acquirer) Strategies() []string {
	names := make([]string, 0, len(a.strategies))
	for _, s := range a.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Acquire resolves the title and transcript of the video at rawURL. The
// only error it returns is youtube.ErrInvalidURL. Title lookup failures
// degrade to models.UnknownTitle, and when no strategy succeeds the
// transcript is models.NoTranscript.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string) (*models.TranscriptResult, error) {
	ref, err := youtube.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithFields(ctx, logrus.Fields{"video_id": ref.ID})
	log := logging.FromContext(ctx)

	result := &models.TranscriptResult{
		Video:      ref,
		Title:      a.resolveTitle(ctx, ref),
		Transcript: models.NoTranscript,
	}

	for _, s := range a.strategies {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("request cancelled before all strategies ran")
			break
		}

		attempt := a.run(ctx, s, ref, result)
		if a.opts.OnAttempt != nil {
			a.opts.OnAttempt(attempt)
		}
		if attempt.Success {
			log.WithFields(logrus.Fields{
				"strategy": s.Name(),
				"chars":    len(result.Transcript),
				"took":     attempt.Duration,
			}).Info("transcript acquired")
			return result, nil
		}
	}

	log.WithField("attempts", len(result.Attempts)).Warn("no transcript available")
	return result, nil
}

func (a *Acquirer) resolveTitle(ctx context.Context, ref models.VideoReference) string {
	if a.titles == nil {
		return models.UnknownTitle
	}

	if a.opts.TitleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.TitleTimeout)
		defer cancel()
	}

	title, err := a.titles.Title(ctx, ref)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("title lookup failed")
		return models.UnknownTitle
	}
	if title = strings.TrimSpace(title); title == "" {
		return models.UnknownTitle
	}
	return title
}

func (a *Acquirer) run(ctx context.Context, s Strategy, ref models.VideoReference, result *models.TranscriptResult) models.AcquisitionAttempt {
	ctx = logging.WithFields(ctx, logrus.Fields{"strategy": s.Name()})

	start := time.Now()
	text, err := s.Acquire(ctx, ref)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = ErrEmptyTranscript
	}

	attempt := models.AcquisitionAttempt{
		Strategy: s.Name(),
		Success:  err == nil,
		Err:      err,
		Duration: time.Since(start),
	}
	if err != nil {
		attempt.Cause = err.Error()
		logging.FromContext(ctx).WithError(err).WithField("took", attempt.Duration).Warn("transcript strategy failed")
	} else {
		result.Transcript = text
		result.Found = true
		result.Strategy = s.Name()
	}

	result.Attempts = append(result.Attempts, attempt)
	return attempt
}

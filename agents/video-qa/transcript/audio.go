package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"video-qa/agents/video-qa/youtube"
	"video-qa/internal/models"
	"video-qa/shared/ai"
	"video-qa/shared/logging"
)

// AudioTempPrefix starts the name of every temporary audio file.
const AudioTempPrefix = "audio-"

// AudioStrategy downloads the audio track and runs speech recognition over
// the whole file.
type AudioStrategy struct {
	downloader AudioDownloader
	recognizer Recognizer
	tempDir    string
}

func NewAudioStrategy(downloader AudioDownloader, recognizer Recognizer, tempDir string) *AudioStrategy {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &AudioStrategy{
		downloader: downloader,
		recognizer: recognizer,
		tempDir:    tempDir,
	}
}

func (a *AudioStrategy) Name() string {
	return "audio"
}

func (a *AudioStrategy) Acquire(ctx context.Context, ref models.VideoReference) (string, error) {
	log := logging.FromContext(ctx)

	if err := os.MkdirAll(a.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	// Unique per call so concurrent requests never share a file
	base := filepath.Join(a.tempDir, AudioTempPrefix+uuid.NewString())
	defer a.cleanup(ctx, base)

	path, err := a.downloader.Download(ctx, ref.WatchURL(), base)
	if err != nil {
		if !errors.Is(err, youtube.ErrNoAudioStream) && !errors.Is(err, youtube.ErrDownloadFailed) {
			err = fmt.Errorf("%w: %w", youtube.ErrDownloadFailed, err)
		}
		return "", err
	}
	log.WithField("file", filepath.Base(path)).Debug("audio downloaded")

	text, err := a.recognizer.Transcribe(ctx, path)
	if err != nil {
		if !errors.Is(err, ai.ErrUnintelligible) && !errors.Is(err, ai.ErrRecognizerUnavailable) {
			err = fmt.Errorf("%w: %w", ai.ErrRecognizerUnavailable, err)
		}
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ai.ErrUnintelligible
	}
	return text, nil
}

// cleanup removes every file that starts with base, including partial
// downloads left by a failed transfer.
func (a *AudioStrategy) cleanup(ctx context.Context, base string) {
	prefix := filepath.Base(base)
	entries, err := os.ReadDir(a.tempDir)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("failed to list temp dir for cleanup")
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(a.tempDir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).WithError(err).WithField("file", e.Name()).Warn("failed to remove temp audio file")
		}
	}
}

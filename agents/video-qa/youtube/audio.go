package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// AudioClient downloads the best audio-only stream of a video.
type AudioClient struct {
	client *youtube.Client
}

func NewAudioClient(httpClient *http.Client) *AudioClient {
	return &AudioClient{client: &youtube.Client{HTTPClient: httpClient}}
}

// Download writes the audio stream to basePath plus a container extension
// and returns the final path. On failure a partial file may remain at
// basePath.*; the caller owns its removal.
func (a *AudioClient) Download(ctx context.Context, rawURL, basePath string) (string, error) {
	video, err := a.client.GetVideoContext(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: video info: %w", ErrDownloadFailed, err)
	}

	format := findBestAudioFormat(video.Formats)
	if format == nil {
		return "", ErrNoAudioStream
	}

	path := basePath + audioExtension(format.MimeType)

	stream, _, err := a.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("%w: open stream: %w", ErrDownloadFailed, err)
	}
	defer stream.Close()

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrDownloadFailed, path, err)
	}

	n, copyErr := io.Copy(file, stream)
	closeErr := file.Close()
	if copyErr != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, copyErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, closeErr)
	}
	if n == 0 {
		return "", fmt.Errorf("%w: empty audio stream", ErrDownloadFailed)
	}

	return path, nil
}

// findBestAudioFormat prefers audio-only mp4 streams, then higher bitrate.
func findBestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil {
			best = f
			continue
		}
		fMP4 := strings.Contains(f.MimeType, "mp4")
		bestMP4 := strings.Contains(best.MimeType, "mp4")
		if fMP4 != bestMP4 {
			if fMP4 {
				best = f
			}
			continue
		}
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

func audioExtension(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return ".webm"
	case strings.HasPrefix(mimeType, "audio/mpeg"):
		return ".mp3"
	case strings.HasPrefix(mimeType, "audio/ogg"):
		return ".ogg"
	}
	return ".m4a"
}

package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"video-qa/internal/models"
)

// YtDlp extracts video metadata, including subtitle listings, by running
// the yt-dlp CLI without downloading media.
type YtDlp struct {
	path string
}

func NewYtDlp(path string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlp{path: path}
}

// ytDlpInfo is the part of yt-dlp's --dump-single-json output we read.
type ytDlpInfo struct {
	ID           string                    `json:"id"`
	Title        string                    `json:"title"`
	Subtitles    map[string][]ytDlpSubtitle `json:"subtitles"`
	AutoCaptions map[string][]ytDlpSubtitle `json:"automatic_captions"`
}

type ytDlpSubtitle struct {
	URL string `json:"url"`
	Ext string `json:"ext"`
}

func (y *YtDlp) Extract(ctx context.Context, rawURL string, languages []string) (*models.VideoInfo, error) {
	args := []string{
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--write-subs",
		"--write-auto-subs",
	}
	if langs := subLangs(languages); langs != "" {
		args = append(args, "--sub-langs", langs)
	}
	args = append(args, rawURL)

	// exec.CommandContext kills yt-dlp when ctx is done
	cmd := exec.CommandContext(ctx, y.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseVideoInfo(out)
}

func parseVideoInfo(data []byte) (*models.VideoInfo, error) {
	var raw ytDlpInfo
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	return &models.VideoInfo{
		ID:                raw.ID,
		Title:             raw.Title,
		Subtitles:         convertTracks(raw.Subtitles, false),
		AutomaticCaptions: convertTracks(raw.AutoCaptions, true),
	}, nil
}

func convertTracks(in map[string][]ytDlpSubtitle, automatic bool) map[string][]models.CaptionTrack {
	out := make(map[string][]models.CaptionTrack, len(in))
	for lang, subs := range in {
		for _, s := range subs {
			if s.URL == "" {
				continue
			}
			out[lang] = append(out[lang], models.CaptionTrack{
				Language:  lang,
				Format:    s.Ext,
				URL:       s.URL,
				Automatic: automatic,
			})
		}
	}
	return out
}

// subLangs turns ["en","de"] into "en,en.*,de,de.*".
func subLangs(languages []string) string {
	var parts []string
	for _, l := range languages {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		parts = append(parts, l, l+".*")
	}
	return strings.Join(parts, ",")
}

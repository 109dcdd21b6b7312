package youtube

import (
	"errors"
	"regexp"

	"video-qa/internal/models"
)

// ErrInvalidURL is returned when no video identifier can be found in a URL.
var ErrInvalidURL = errors.New("invalid YouTube URL")

var videoIDRe = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// ExtractVideoID pulls the first 11-character identifier that follows
// either "v=" or a slash.
func ExtractVideoID(rawURL string) (models.VideoReference, error) {
	m := videoIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return models.VideoReference{}, ErrInvalidURL
	}
	return models.VideoReference{ID: m[1], URL: rawURL}, nil
}

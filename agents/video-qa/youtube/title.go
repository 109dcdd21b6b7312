package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"video-qa/internal/models"
)

var (
	// ErrMissingAPIKey is fatal. The process cannot look up titles without it.
	ErrMissingAPIKey = errors.New("YouTube API key is not configured")
	ErrVideoNotFound = errors.New("video not found")
)

// TitleFetcher resolves video titles through the YouTube Data API.
type TitleFetcher struct {
	service *youtube.Service
}

func NewTitleFetcher(ctx context.Context, apiKey string, opts ...option.ClientOption) (*TitleFetcher, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &TitleFetcher{service: service}, nil
}

func (f *TitleFetcher) Title(ctx context.Context, ref models.VideoReference) (string, error) {
	if f == nil || f.service == nil {
		return "", ErrMissingAPIKey
	}

	resp, err := f.service.Videos.List([]string{"snippet"}).
		Id(ref.ID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to get video %s: %w", ref.ID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("%w: %s", ErrVideoNotFound, ref.ID)
	}

	return resp.Items[0].Snippet.Title, nil
}

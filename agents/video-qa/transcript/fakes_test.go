package transcript

import (
	"context"
	"errors"
	"os"
	"sync"

	"video-qa/internal/models"
)

type segmentResult struct {
	segments []models.Segment
	err      error
}

// fakeSource answers per language and records what was asked.
type fakeSource struct {
	mu      sync.Mutex
	results map[string]segmentResult
	calls   []string
}

func (f *fakeSource) Segments(_ context.Context, _ string, lang string) ([]models.Segment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, lang)
	r, ok := f.results[lang]
	if !ok {
		return nil, errors.New("language unavailable")
	}
	return r.segments, r.err
}

func segs(texts ...string) []models.Segment {
	out := make([]models.Segment, len(texts))
	for i, t := range texts {
		out[i] = models.Segment{Text: t}
	}
	return out
}

type fakeStrategy struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Acquire(context.Context, models.VideoReference) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeTitles struct {
	title string
	err   error
}

func (f fakeTitles) Title(context.Context, models.VideoReference) (string, error) {
	return f.title, f.err
}

type fakeExtractor struct {
	info *models.VideoInfo
	err  error
}

func (f fakeExtractor) Extract(context.Context, string, []string) (*models.VideoInfo, error) {
	return f.info, f.err
}

// fakeDownloader writes a small file (or a partial one on failure).
type fakeDownloader struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (f *fakeDownloader) Download(_ context.Context, _ string, basePath string) (string, error) {
	path := basePath + ".m4a"
	if f.err != nil {
		_ = os.WriteFile(basePath+".m4a.part", []byte("partial"), 0o600)
		return "", f.err
	}
	if err := os.WriteFile(path, []byte("audio"), 0o600); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return path, nil
}

type fakeRecognizer struct {
	text string
	err  error
	// exists records whether the audio file was present during recognition.
	mu     sync.Mutex
	exists []bool
}

func (f *fakeRecognizer) Transcribe(_ context.Context, path string) (string, error) {
	_, err := os.Stat(path)
	f.mu.Lock()
	f.exists = append(f.exists, err == nil)
	f.mu.Unlock()
	return f.text, f.err
}

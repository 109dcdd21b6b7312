package transcript

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/agents/video-qa/youtube"
	"video-qa/shared/ai"
)

func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAudioStrategySuccessCleansUp(t *testing.T) {
	dir := t.TempDir()
	dl := &fakeDownloader{}
	rec := &fakeRecognizer{text: "  spoken words  "}

	text, err := NewAudioStrategy(dl, rec, dir).Acquire(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "spoken words", text)

	require.Len(t, dl.paths, 1)
	assert.True(t, strings.HasPrefix(dl.paths[0][len(dir)+1:], AudioTempPrefix))
	assert.Equal(t, []bool{true}, rec.exists, "file exists while recognizing")
	assert.Empty(t, tempFiles(t, dir))
}

func TestAudioStrategyRecognitionFailureCleansUp(t *testing.T) {
	tests := []struct {
		name    string
		rec     *fakeRecognizer
		wantErr error
	}{
		{name: "unintelligible", rec: &fakeRecognizer{err: ai.ErrUnintelligible}, wantErr: ai.ErrUnintelligible},
		{name: "service down", rec: &fakeRecognizer{err: ai.ErrRecognizerUnavailable}, wantErr: ai.ErrRecognizerUnavailable},
		{name: "untyped error", rec: &fakeRecognizer{err: errors.New("connection reset")}, wantErr: ai.ErrRecognizerUnavailable},
		{name: "blank text", rec: &fakeRecognizer{text: "   "}, wantErr: ai.ErrUnintelligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := NewAudioStrategy(&fakeDownloader{}, tt.rec, dir).Acquire(context.Background(), ref)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, tempFiles(t, dir))
		})
	}
}

func TestAudioStrategyDownloadFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "no audio stream", err: youtube.ErrNoAudioStream, wantErr: youtube.ErrNoAudioStream},
		{name: "typed download failure", err: youtube.ErrDownloadFailed, wantErr: youtube.ErrDownloadFailed},
		{name: "untyped failure", err: errors.New("403 forbidden"), wantErr: youtube.ErrDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			rec := &fakeRecognizer{text: "never called"}
			_, err := NewAudioStrategy(&fakeDownloader{err: tt.err}, rec, dir).Acquire(context.Background(), ref)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, rec.exists)
			assert.Empty(t, tempFiles(t, dir), "partial downloads are removed")
		})
	}
}

func TestAudioStrategyConcurrentRequestsUseDistinctFiles(t *testing.T) {
	dir := t.TempDir()
	dl := &fakeDownloader{}
	rec := &fakeRecognizer{err: ai.ErrUnintelligible}
	s := NewAudioStrategy(dl, rec, dir)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Acquire(context.Background(), ref)
			assert.ErrorIs(t, err, ai.ErrUnintelligible)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range dl.paths {
		assert.False(t, seen[p], "duplicate temp path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, 8)
	assert.Equal(t, []bool{true, true, true, true, true, true, true, true}, rec.exists)
	assert.Empty(t, tempFiles(t, dir))
}

func TestAudioStrategyLeavesUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/keep.txt", []byte("x"), 0o600))

	_, err := NewAudioStrategy(&fakeDownloader{}, &fakeRecognizer{text: "ok"}, dir).Acquire(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.txt"}, tempFiles(t, dir))
}

package transcript

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-qa/internal/models"
)

func track(lang, format, url string, auto bool) models.CaptionTrack {
	return models.CaptionTrack{Language: lang, Format: format, URL: url, Automatic: auto}
}

func TestRankCaptionTracks(t *testing.T) {
	info := &models.VideoInfo{
		Subtitles: map[string][]models.CaptionTrack{
			"fr":    {track("fr", "vtt", "u/fr-sub.vtt", false)},
			"en-GB": {track("en-GB", "srt", "u/engb-sub.srt", false), track("en-GB", "vtt", "u/engb-sub.vtt", false)},
		},
		AutomaticCaptions: map[string][]models.CaptionTrack{
			"en": {track("en", "json3", "u/en-auto.json3", true), track("en", "vtt", "u/en-auto.vtt", true)},
			"de": {track("de", "vtt", "u/de-auto.vtt", true)},
			"es": {track("es", "ttml", "u/es-auto.ttml", true)},
			"fr": {track("fr", "srt", "", true)},
		},
	}

	got := RankCaptionTracks(info, []string{"en"})

	var urls []string
	for _, tr := range got {
		urls = append(urls, tr.URL)
	}
	assert.Equal(t, []string{
		"u/engb-sub.vtt",
		"u/engb-sub.srt",
		"u/en-auto.vtt",
		"u/fr-sub.vtt",
		"u/de-auto.vtt",
	}, urls)
}

func TestRankCaptionTracksPreferredNonEnglish(t *testing.T) {
	info := &models.VideoInfo{
		AutomaticCaptions: map[string][]models.CaptionTrack{
			"en": {track("en", "vtt", "u/en.vtt", true)},
			"de": {track("de", "vtt", "u/de.vtt", true)},
			"it": {track("it", "vtt", "u/it.vtt", true)},
		},
	}

	got := RankCaptionTracks(info, []string{"de"})
	require.Len(t, got, 3)
	assert.Equal(t, "u/de.vtt", got[0].URL)
	assert.Equal(t, "u/en.vtt", got[1].URL, "english variants rank ahead of other languages")
	assert.Equal(t, "u/it.vtt", got[2].URL)
}

func TestRankCaptionTracksNil(t *testing.T) {
	assert.Empty(t, RankCaptionTracks(nil, []string{"en"}))
	assert.Empty(t, RankCaptionTracks(&models.VideoInfo{}, []string{"en"}))
}

const sampleVTT = "WEBVTT\nKind: captions\nLanguage: en\n\n00:00:00.000 --> 00:00:01.000\nhello\n\n00:00:01.000 --> 00:00:02.000\nworld\n"

func fastCaptionStrategy(info *models.VideoInfo, err error) *CaptionStrategy {
	s := NewCaptionStrategy(fakeExtractor{info: info, err: err}, nil, []string{"en"})
	s.retryInitial = time.Millisecond
	return s
}

func TestCaptionStrategyDownloadsBestTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, sampleVTT)
	}))
	defer srv.Close()

	info := &models.VideoInfo{Subtitles: map[string][]models.CaptionTrack{
		"en": {track("en", "vtt", srv.URL+"/en.vtt", false)},
	}}

	text, err := fastCaptionStrategy(info, nil).Acquire(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestCaptionStrategyRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, sampleVTT)
	}))
	defer srv.Close()

	info := &models.VideoInfo{Subtitles: map[string][]models.CaptionTrack{
		"en": {track("en", "vtt", srv.URL+"/en.vtt", false)},
	}}

	text, err := fastCaptionStrategy(info, nil).Acquire(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCaptionStrategyFallsThroughCandidates(t *testing.T) {
	var goneHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone.vtt":
			goneHits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		case "/empty.vtt":
			_, _ = io.WriteString(w, "WEBVTT\n\n")
		default:
			_, _ = io.WriteString(w, sampleVTT)
		}
	}))
	defer srv.Close()

	info := &models.VideoInfo{
		Subtitles: map[string][]models.CaptionTrack{
			"en": {track("en", "vtt", srv.URL+"/gone.vtt", false)},
		},
		AutomaticCaptions: map[string][]models.CaptionTrack{
			"en": {track("en", "vtt", srv.URL+"/empty.vtt", true)},
			"de": {track("de", "vtt", srv.URL+"/de.vtt", true)},
		},
	}

	text, err := fastCaptionStrategy(info, nil).Acquire(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, int32(1), goneHits.Load(), "404 is not retried")
}

func TestCaptionStrategyNoTracks(t *testing.T) {
	info := &models.VideoInfo{AutomaticCaptions: map[string][]models.CaptionTrack{
		"en": {track("en", "json3", "u/x.json3", true)},
	}}

	_, err := fastCaptionStrategy(info, nil).Acquire(context.Background(), ref)
	assert.ErrorIs(t, err, ErrNoCaptionTracks)
}

func TestCaptionStrategyExtractorFailure(t *testing.T) {
	boom := errors.New("yt-dlp not installed")
	_, err := fastCaptionStrategy(nil, boom).Acquire(context.Background(), ref)
	assert.ErrorIs(t, err, boom)
}

func TestCaptionStrategyAllDownloadsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	info := &models.VideoInfo{Subtitles: map[string][]models.CaptionTrack{
		"en": {track("en", "vtt", srv.URL+"/a.vtt", false), track("en", "srt", srv.URL+"/a.srt", false)},
	}}

	_, err := fastCaptionStrategy(info, nil).Acquire(context.Background(), ref)
	assert.ErrorIs(t, err, ErrNoCaptionTracks)
}

package youtube

import (
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBestAudioFormat(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000},
		{ItagNo: 139, MimeType: `audio/mp4; codecs="mp4a.40.5"`, Bitrate: 48000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000},
	}

	best := findBestAudioFormat(formats)
	require.NotNil(t, best)
	assert.Equal(t, 140, best.ItagNo)
}

func TestFindBestAudioFormatWebmOnly(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 249, MimeType: `audio/webm; codecs="opus"`, Bitrate: 50000},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000},
	}

	best := findBestAudioFormat(formats)
	require.NotNil(t, best)
	assert.Equal(t, 251, best.ItagNo)
	assert.Equal(t, ".webm", audioExtension(best.MimeType))
}

func TestFindBestAudioFormatNone(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`},
	}
	assert.Nil(t, findBestAudioFormat(formats))
}

func TestMatchTrack(t *testing.T) {
	tracks := []youtube.CaptionTrack{
		{LanguageCode: "de", Kind: "asr"},
		{LanguageCode: "en-GB"},
		{LanguageCode: "fr"},
	}

	tests := []struct {
		lang   string
		want   string
		wantOK bool
	}{
		{lang: "", want: "de", wantOK: true},
		{lang: "fr", want: "fr", wantOK: true},
		{lang: "en", want: "en-GB", wantOK: true},
		{lang: "es", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got, ok := matchTrack(tracks, tt.lang)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

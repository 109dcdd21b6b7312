package youtube

import "errors"

// Typed causes reported by the transcript and media collaborators.
var (
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
	ErrLanguageUnavailable = errors.New("no transcript in requested language")
	ErrVideoUnavailable    = errors.New("video is unavailable")
	ErrNoAudioStream       = errors.New("no audio-only stream found")
	ErrDownloadFailed      = errors.New("audio download failed")
)

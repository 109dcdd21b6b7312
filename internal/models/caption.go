package models

// CaptionTrack is one downloadable subtitle resource.
type CaptionTrack struct {
	Language  string `json:"language"`
	Format    string `json:"format"`
	URL       string `json:"url"`
	Automatic bool   `json:"automatic"`
}

// VideoInfo is the subset of video-info extraction output the caption
// strategy consumes. Keys are language codes.
type VideoInfo struct {
	ID                string                    `json:"id"`
	Title             string                    `json:"title"`
	Subtitles         map[string][]CaptionTrack `json:"subtitles"`
	AutomaticCaptions map[string][]CaptionTrack `json:"automatic_captions"`
}

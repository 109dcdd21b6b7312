package models

import "time"

const (
	// UnknownTitle is used when the metadata lookup yields nothing.
	UnknownTitle = "Unknown Title"
	// NoTranscript replaces the transcript once every strategy has failed.
	NoTranscript = "[No transcript available]"
)

// VideoReference is a validated 11-character video identifier.
type VideoReference struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (v VideoReference) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Segment is one timed unit of a transcript. Timing is informational only.
type Segment struct {
	Text     string        `json:"text"`
	Start    time.Duration `json:"start"`
	Duration time.Duration `json:"duration"`
}

// AcquisitionAttempt records the outcome of a single strategy run.
type AcquisitionAttempt struct {
	Strategy string        `json:"strategy"`
	Success  bool          `json:"success"`
	Err      error         `json:"-"`
	Cause    string        `json:"cause,omitempty"`
	Duration time.Duration `json:"duration"`
}

type TranscriptResult struct {
	Video      VideoReference       `json:"video"`
	Title      string               `json:"title"`
	Transcript string               `json:"transcript"`
	Found      bool                 `json:"found"`
	Strategy   string               `json:"strategy,omitempty"`
	Attempts   []AcquisitionAttempt `json:"attempts,omitempty"`
}

package models

import "time"

// Chunk is one stored passage of a processed video.
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocID      string    `json:"doc_id"`
	VideoID    string    `json:"video_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ChunkIndex int       `json:"chunk_index"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoredChunk is a retrieval hit.
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}

type ProcessResult struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	VideoID    string `json:"video_id"`
	Strategy   string `json:"strategy,omitempty"`
	Found      bool   `json:"found"`
	ChunkCount int    `json:"chunk_count"`
}

// Package videoqa turns a video URL into searchable transcript passages and
// answers questions about them.
package videoqa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"video-qa/internal/models"
	"video-qa/shared/logging"
	"video-qa/shared/monitoring"
)

// NoRelevantInfo is the answer when retrieval finds nothing for the document.
const NoRelevantInfo = "No relevant information found."

var ErrInvalidRequest = errors.New("invalid request")

type Acquirer interface {
	Acquire(ctx context.Context, rawURL string) (*models.TranscriptResult, error)
}

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ChunkStore interface {
	UpsertChunks(ctx context.Context, chunks []models.Chunk) error
	Query(ctx context.Context, docID string, vector []float32, topK int) ([]models.ScoredChunk, error)
}

type Options struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Agent ties transcript acquisition to the retrieval pipeline.
type Agent struct {
	acquirer  Acquirer
	embedder  Embedder
	generator Generator
	store     ChunkStore
	monitor   *monitoring.Monitor
	opts      Options
}

func NewAgent(acquirer Acquirer, embedder Embedder, generator Generator, store ChunkStore, monitor *monitoring.Monitor, opts Options) *Agent {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.ChunkOverlap < 0 || opts.ChunkOverlap >= opts.ChunkSize {
		opts.ChunkOverlap = 0
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}
	return &Agent{
		acquirer:  acquirer,
		embedder:  embedder,
		generator: generator,
		store:     store,
		monitor:   monitor,
		opts:      opts,
	}
}

func (a *Agent) Name() string {
	return "Video QA"
}

// Process acquires the transcript of rawURL, splits it into passages and
// stores them under a fresh document id. A video without a transcript is
// stored with the placeholder text like any other.
func (a *Agent) Process(ctx context.Context, rawURL string) (*models.ProcessResult, error) {
	start := time.Now()

	transcript, err := a.acquirer.Acquire(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	a.monitor.RecordProcessed(transcript.Found)

	docID := uuid.NewString()
	ctx = logging.WithFields(ctx, logrus.Fields{"doc_id": docID, "video_id": transcript.Video.ID})
	log := logging.FromContext(ctx)

	texts := ChunkText(transcript.Transcript, a.opts.ChunkSize, a.opts.ChunkOverlap)
	vectors, err := a.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed transcript: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("failed to embed transcript: got %d embeddings for %d chunks", len(vectors), len(texts))
	}

	now := time.Now()
	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{
			ChunkID:    fmt.Sprintf("%s_%d", docID, i),
			DocID:      docID,
			VideoID:    transcript.Video.ID,
			Title:      transcript.Title,
			Content:    text,
			ChunkIndex: i,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}
	if err := a.store.UpsertChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}

	log.WithFields(logrus.Fields{
		"chunks":   len(chunks),
		"strategy": transcript.Strategy,
		"took":     time.Since(start),
	}).Info("video processed")

	return &models.ProcessResult{
		DocID:      docID,
		Title:      transcript.Title,
		VideoID:    transcript.Video.ID,
		Strategy:   transcript.Strategy,
		Found:      transcript.Found,
		ChunkCount: len(chunks),
	}, nil
}

// Ask answers question from the passages stored under docID.
func (a *Agent) Ask(ctx context.Context, question, docID string) (string, error) {
	question = strings.TrimSpace(question)
	docID = strings.TrimSpace(docID)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	if docID == "" {
		return "", fmt.Errorf("%w: doc_id is required", ErrInvalidRequest)
	}

	ctx = logging.WithFields(ctx, logrus.Fields{"doc_id": docID})
	a.monitor.RecordQuestion()

	vector, err := a.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := a.store.Query(ctx, docID, vector, a.opts.TopK)
	if err != nil {
		return "", fmt.Errorf("failed to search transcript: %w", err)
	}
	if len(hits) == 0 {
		logging.FromContext(ctx).Info("no passages matched")
		return NoRelevantInfo, nil
	}

	contexts := make([]string, len(hits))
	for i, h := range hits {
		contexts[i] = h.Content
	}

	answer, err := a.generator.Generate(ctx, BuildPrompt(question, contexts))
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}

func BuildPrompt(question string, contexts []string) string {
	return fmt.Sprintf("Analyze this context and answer the question:\n\nContext:\n%s\n\nQuestion: %s\n\nProvide a concise and accurate answer:",
		strings.Join(contexts, " "), question)
}

// ChunkText splits text into windows of size words, each starting
// size-overlap words after the previous one.
func ChunkText(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || size <= 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := min(i+size, len(words))
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}

package ai

import (
	"context"
	"fmt"
	"strings"

	"video-qa/shared/config"

	"google.golang.org/genai"
)

// Client wraps the Gemini API for embeddings and answer generation.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	batchSize      int
	workers        int

	// embedBatch is swapped out in tests.
	embedBatch func(ctx context.Context, texts []string, taskType string) ([][]float32, error)
}

func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	client, err := newGenAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	c := &Client{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		batchSize:      cfg.EmbedBatchSize,
		workers:        cfg.EmbedWorkers,
	}
	c.embedBatch = c.embedContent
	return c, nil
}

func newGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Generate sends a single-turn prompt and returns the text reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}
	return text, nil
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	openaioption "github.com/openai/openai-go/v3/option"
	"google.golang.org/genai"

	"video-qa/shared/config"
)

var (
	// ErrUnintelligible means the recognizer ran but produced no usable text.
	ErrUnintelligible = errors.New("speech not recognized")
	// ErrRecognizerUnavailable means the recognition service could not be reached or failed.
	ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")
)

const (
	defaultWhisperModel = "whisper-1"
	// Larger files go through the Files API instead of inline bytes.
	inlineAudioLimit = 15 << 20
	transcribePrompt = "Transcribe the speech in this audio accurately. Return only the transcript text. If there is no intelligible speech, return nothing."
)

// Recognizer turns an audio file into text.
type Recognizer interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// NewRecognizer builds the recognizer selected by cfg.Provider.
func NewRecognizer(ctx context.Context, cfg *config.Config) (Recognizer, error) {
	switch cfg.Speech.Provider {
	case "openai":
		return NewOpenAIRecognizer(cfg.Speech.OpenAIAPIKey, cfg.Speech.Model), nil
	case "gemini", "":
		model := cfg.Speech.Model
		if model == "" {
			model = cfg.AI.Model
		}
		return NewGeminiRecognizer(ctx, cfg.AI.GeminiAPIKey, model)
	}
	return nil, fmt.Errorf("unknown speech provider %q", cfg.Speech.Provider)
}

// GeminiRecognizer transcribes audio with a multimodal Gemini model.
type GeminiRecognizer struct {
	client *genai.Client
	model  string
}

func NewGeminiRecognizer(ctx context.Context, apiKey, model string) (*GeminiRecognizer, error) {
	client, err := newGenAIClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return &GeminiRecognizer{client: client, model: model}, nil
}

func (g *GeminiRecognizer) Transcribe(ctx context.Context, path string) (string, error) {
	mimeType, err := resolveAudioMIMEType(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat audio file: %w", err)
	}

	var audio *genai.Part
	if info.Size() > inlineAudioLimit {
		file, err := g.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{MIMEType: mimeType})
		if err != nil {
			return "", fmt.Errorf("%w: upload: %w", ErrRecognizerUnavailable, err)
		}
		defer func() {
			_, _ = g.client.Files.Delete(context.WithoutCancel(ctx), file.Name, nil)
		}()
		audio = genai.NewPartFromURI(file.URI, file.MIMEType)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read audio file: %w", err)
		}
		audio = genai.NewPartFromBytes(data, mimeType)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(transcribePrompt), audio}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognizerUnavailable, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

// OpenAIRecognizer transcribes audio with the Whisper API.
type OpenAIRecognizer struct {
	client openai.Client
	model  string
}

func NewOpenAIRecognizer(apiKey, model string, opts ...openaioption.RequestOption) *OpenAIRecognizer {
	if model == "" {
		model = defaultWhisperModel
	}
	opts = append([]openaioption.RequestOption{openaioption.WithAPIKey(apiKey)}, opts...)
	return &OpenAIRecognizer{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (o *OpenAIRecognizer) Transcribe(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(o.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRecognizerUnavailable, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ErrRecognizerUnavailable)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrUnintelligible
	}
	return text, nil
}

func resolveAudioMIMEType(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case "":
		return "", fmt.Errorf("audio file extension is required to determine mime type")
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", fmt.Errorf("unsupported audio file extension: %s", ext)
	}
	return mimeType, nil
}

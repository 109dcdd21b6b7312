package videoqa

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"

	"video-qa/agents/video-qa/transcript"
	"video-qa/agents/video-qa/youtube"
	"video-qa/shared/ai"
	"video-qa/shared/config"
	"video-qa/shared/logging"
	"video-qa/shared/monitoring"
	"video-qa/shared/storage"
)

// Service holds the long-lived collaborators built from configuration.
type Service struct {
	Agent    *Agent
	Acquirer *transcript.Acquirer
	Store    *storage.ChunkStore
	Monitor  *monitoring.Monitor
	Janitor  *Janitor
}

// NewAcquirer wires the title fetcher and the enabled strategies.
func NewAcquirer(ctx context.Context, cfg *config.Config, monitor *monitoring.Monitor) (*transcript.Acquirer, error) {
	var titleOpts []option.ClientOption
	if cfg.YouTube.Endpoint != "" {
		titleOpts = append(titleOpts, option.WithEndpoint(cfg.YouTube.Endpoint))
	}
	titles, err := youtube.NewTitleFetcher(ctx, cfg.YouTube.APIKey, titleOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create title fetcher: %w", err)
	}

	var recognizer transcript.Recognizer
	if cfg.Transcript.StrategyEnabled(config.StrategyAudio) {
		r, err := ai.NewRecognizer(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create speech recognizer: %w", err)
		}
		recognizer = r
	}

	strategies := buildStrategies(cfg.Transcript, recognizer)
	opts := transcript.Options{TitleTimeout: cfg.Transcript.APITimeout}
	if monitor != nil {
		opts.OnAttempt = monitor.RecordAttempt
	}

	acquirer := transcript.NewAcquirer(titles, opts, strategies...)
	logging.FromContext(ctx).WithField("strategies", acquirer.Strategies()).Info("transcript strategies configured")
	return acquirer, nil
}

// buildStrategies returns the enabled strategies in their fixed order:
// direct, proxy, captions, audio. The proxy strategy needs a non-empty
// pool and the audio strategy needs a recognizer.
func buildStrategies(cfg config.TranscriptConfig, recognizer transcript.Recognizer) []transcript.Strategy {
	var strategies []transcript.Strategy

	if cfg.StrategyEnabled(config.StrategyDirect) {
		client := youtube.NewCaptionClient(youtube.NewHTTPClient(cfg.UserAgent, cfg.APITimeout))
		strategies = append(strategies, transcript.WithTimeout(
			transcript.NewDirectStrategy(client, cfg.Languages), cfg.APITimeout))
	}

	if pool := cfg.ProxyPool(); cfg.StrategyEnabled(config.StrategyProxy) && len(pool) > 0 {
		newSource := func(c *http.Client) transcript.SegmentSource {
			return youtube.NewCaptionClient(c)
		}
		strategies = append(strategies,
			transcript.NewProxyStrategy(pool, newSource, cfg.UserAgent, cfg.ProxyTimeout, cfg.Languages))
	}

	if cfg.StrategyEnabled(config.StrategyCaptions) {
		s := transcript.NewCaptionStrategy(
			youtube.NewYtDlp(cfg.YtDlpPath),
			youtube.NewHTTPClient(cfg.UserAgent, cfg.CaptionTimeout),
			cfg.Languages,
		)
		strategies = append(strategies, transcript.WithTimeout(s, cfg.CaptionTimeout))
	}

	if cfg.StrategyEnabled(config.StrategyAudio) && recognizer != nil {
		// no client timeout; the strategy deadline bounds the download
		downloader := youtube.NewAudioClient(youtube.NewHTTPClient(cfg.UserAgent, 0))
		s := transcript.NewAudioStrategy(downloader, recognizer, cfg.TempDir)
		strategies = append(strategies, transcript.WithTimeout(s, cfg.AudioTimeout))
	}

	return strategies
}

// NewService builds every collaborator the HTTP server and scheduler need.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	monitor := monitoring.NewMonitor()

	acquirer, err := NewAcquirer(ctx, cfg, monitor)
	if err != nil {
		return nil, err
	}

	aiClient, err := ai.NewClient(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	store, err := storage.NewChunkStore(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk store: %w", err)
	}

	agent := NewAgent(acquirer, aiClient, aiClient, store, monitor, Options{
		ChunkSize:    cfg.Chunking.Size,
		ChunkOverlap: cfg.Chunking.Overlap,
		TopK:         cfg.Retrieval.TopK,
	})

	return &Service{
		Agent:    agent,
		Acquirer: acquirer,
		Store:    store,
		Monitor:  monitor,
		Janitor:  NewJanitor(cfg.Transcript.TempDir, cfg.Janitor.TempFileAge, store, cfg.Storage.Retention),
	}, nil
}

func (s *Service) Close() error {
	return s.Store.Close()
}

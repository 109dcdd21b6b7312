package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Speech     SpeechConfig     `yaml:"speech"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Janitor    JanitorConfig    `yaml:"janitor"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	// Endpoint overrides the Data API base URL. Used by tests.
	Endpoint string `yaml:"endpoint"`
}

type AIConfig struct {
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`
	EmbedWorkers   int    `yaml:"embed_workers"`
}

type ProxyConfig struct {
	HTTP  string `yaml:"http"`
	HTTPS string `yaml:"https"`
}

type RotatingProxyConfig struct {
	Username string `yaml:"username" env:"PROXY_USERNAME"`
	Password string `yaml:"password" env:"PROXY_PASSWORD"`
	Endpoint string `yaml:"endpoint" env:"PROXY_ENDPOINT"`
}

type TranscriptConfig struct {
	Languages []string `yaml:"languages"`
	// Strategies lists enabled strategies. Execution order is always
	// direct, proxy, captions, audio regardless of list order.
	Strategies     []string            `yaml:"strategies"`
	Proxies        []ProxyConfig       `yaml:"proxies"`
	RotatingProxy  RotatingProxyConfig `yaml:"rotating_proxy"`
	UserAgent      string              `yaml:"user_agent"`
	APITimeout     time.Duration       `yaml:"api_timeout"`
	ProxyTimeout   time.Duration       `yaml:"proxy_timeout"`
	CaptionTimeout time.Duration       `yaml:"caption_timeout"`
	AudioTimeout   time.Duration       `yaml:"audio_timeout"`
	TempDir        string              `yaml:"temp_dir"`
	YtDlpPath      string              `yaml:"ytdlp_path" env:"YTDLP_PATH"`
}

type SpeechConfig struct {
	// Provider is "gemini" or "openai".
	Provider     string `yaml:"provider"`
	Model        string `yaml:"model"`
	OpenAIAPIKey string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver    string        `yaml:"driver"`
	DSN       string        `yaml:"dsn" env:"DATABASE_URL"`
	Retention time.Duration `yaml:"retention"`
}

type ServerConfig struct {
	Port           int      `yaml:"port" env:"PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	// ProcessRate is the sustained number of /process requests per minute.
	ProcessRate  int `yaml:"process_rate"`
	ProcessBurst int `yaml:"process_burst"`
}

type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type JanitorConfig struct {
	Schedule    string        `yaml:"schedule"`
	TempFileAge time.Duration `yaml:"temp_file_age"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format"`
}

const (
	StrategyDirect   = "direct"
	StrategyProxy    = "proxy"
	StrategyCaptions = "captions"
	StrategyAudio    = "audio"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile, explicit := os.LookupEnv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// Environment-only deployments have no config file
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.Speech.OpenAIAPIKey == "" {
		c.Speech.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Transcript.RotatingProxy.Username == "" {
		c.Transcript.RotatingProxy.Username = os.Getenv("PROXY_USERNAME")
	}
	if c.Transcript.RotatingProxy.Password == "" {
		c.Transcript.RotatingProxy.Password = os.Getenv("PROXY_PASSWORD")
	}
	if c.Transcript.RotatingProxy.Endpoint == "" {
		c.Transcript.RotatingProxy.Endpoint = os.Getenv("PROXY_ENDPOINT")
	}
	if c.Transcript.YtDlpPath == "" {
		c.Transcript.YtDlpPath = os.Getenv("YTDLP_PATH")
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = os.Getenv("DATABASE_URL")
	}
	if c.Server.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Server.Port = port
		}
	}
	if len(c.Server.AllowedOrigins) == 0 {
		for _, o := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = os.Getenv("LOG_LEVEL")
	}
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.0-flash"
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "text-embedding-004"
	}
	if c.AI.EmbedBatchSize == 0 {
		c.AI.EmbedBatchSize = 100
	}
	if c.AI.EmbedWorkers == 0 {
		c.AI.EmbedWorkers = 4
	}

	t := &c.Transcript
	if len(t.Languages) == 0 {
		t.Languages = []string{"en"}
	}
	if len(t.Strategies) == 0 {
		t.Strategies = []string{StrategyDirect, StrategyProxy, StrategyCaptions, StrategyAudio}
	}
	if t.RotatingProxy.Endpoint == "" {
		t.RotatingProxy.Endpoint = "p.webshare.io:80"
	}
	if t.UserAgent == "" {
		t.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	}
	if t.APITimeout == 0 {
		t.APITimeout = 10 * time.Second
	}
	if t.ProxyTimeout == 0 {
		t.ProxyTimeout = 15 * time.Second
	}
	if t.CaptionTimeout == 0 {
		t.CaptionTimeout = 30 * time.Second
	}
	if t.AudioTimeout == 0 {
		t.AudioTimeout = 5 * time.Minute
	}
	if t.TempDir == "" {
		t.TempDir = os.TempDir()
	}
	if t.YtDlpPath == "" {
		t.YtDlpPath = "yt-dlp"
	}

	if c.Speech.Provider == "" {
		c.Speech.Provider = "gemini"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
		if strings.HasPrefix(c.Storage.DSN, "postgres://") || strings.HasPrefix(c.Storage.DSN, "postgresql://") {
			c.Storage.Driver = "postgres"
		}
	}
	if c.Storage.DSN == "" && c.Storage.Driver == "sqlite" {
		c.Storage.DSN = "data/video-qa.db"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.ProcessRate == 0 {
		c.Server.ProcessRate = 10
	}
	if c.Server.ProcessBurst == 0 {
		c.Server.ProcessBurst = 3
	}

	if c.Chunking.Size == 0 {
		c.Chunking.Size = 500
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 50
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}

	if c.Janitor.Schedule == "" {
		c.Janitor.Schedule = "0 */15 * * * *" // Every 15 minutes
	}
	if c.Janitor.TempFileAge == 0 {
		c.Janitor.TempFileAge = time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	for _, s := range c.Transcript.Strategies {
		switch s {
		case StrategyDirect, StrategyProxy, StrategyCaptions, StrategyAudio:
		default:
			return fmt.Errorf("unknown transcript strategy %q (valid: direct, proxy, captions, audio)", s)
		}
	}
	switch c.Speech.Provider {
	case "gemini":
	case "openai":
		if c.Speech.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required for speech.provider openai (set OPENAI_API_KEY or speech.openai_api_key)")
		}
	default:
		return fmt.Errorf("unknown speech provider %q (valid: gemini, openai)", c.Speech.Provider)
	}
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage driver %q (valid: sqlite, postgres)", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage DSN is required for %s (set DATABASE_URL or storage.dsn)", c.Storage.Driver)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunking.size (%d)", c.Chunking.Overlap, c.Chunking.Size)
	}
	return nil
}

// StrategyEnabled reports whether the named transcript strategy is enabled.
func (t TranscriptConfig) StrategyEnabled(name string) bool {
	for _, s := range t.Strategies {
		if s == name {
			return true
		}
	}
	return false
}

// ProxyPool returns the static proxies followed by the rotating proxy, if
// credentials are configured. An empty pool disables the proxy strategy.
func (t TranscriptConfig) ProxyPool() []ProxyConfig {
	pool := make([]ProxyConfig, 0, len(t.Proxies)+1)
	for _, p := range t.Proxies {
		if p.HTTP == "" && p.HTTPS == "" {
			continue
		}
		pool = append(pool, p)
	}
	rp := t.RotatingProxy
	if rp.Username != "" && rp.Password != "" {
		u := (&url.URL{Scheme: "http", User: url.UserPassword(rp.Username, rp.Password), Host: rp.Endpoint}).String()
		pool = append(pool, ProxyConfig{HTTP: u, HTTPS: u})
	}
	return pool
}

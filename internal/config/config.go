package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when the environment variable named by a
// provider's api_key_env is empty.
var ErrMissingAPIKey = errors.New("missing API key")

// DefaultIndexName is the document set queried when none is configured.
const DefaultIndexName = "recycle-info"

// ServerConfig configures the web front end.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxSessions int    `yaml:"max_sessions"`
	CookieName  string `yaml:"cookie_name"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	CacheSize int                   `yaml:"cache_size"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	TopK     int             `yaml:"top_k"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PineconeConfig contains connection details for a Pinecone index.
// Host is the index data-plane host, e.g. https://recycle-info-abc123.svc.pinecone.io.
type PineconeConfig struct {
	Host        string `yaml:"host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Namespace   string `yaml:"namespace"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OpenAIGeneratorConfig configures an OpenAI-compatible chat completion endpoint.
type OpenAIGeneratorConfig struct {
	BaseURL         string `yaml:"base_url"`
	APIKeyEnv       string `yaml:"api_key_env"`
	Model           string `yaml:"model"`
	ClassifierModel string `yaml:"classifier_model"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// GeminiGeneratorConfig configures the Gemini API.
type GeminiGeneratorConfig struct {
	APIKeyEnv       string `yaml:"api_key_env"`
	Model           string `yaml:"model"`
	ClassifierModel string `yaml:"classifier_model"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// GeneratorConfig selects the generative model used for answers and classification.
type GeneratorConfig struct {
	Type   string                 `yaml:"type"`
	OpenAI *OpenAIGeneratorConfig `yaml:"openai,omitempty"`
	Gemini *GeminiGeneratorConfig `yaml:"gemini,omitempty"`
}

// ClassifierConfig toggles the off-topic gate.
type ClassifierConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ResponderConfig tunes answer generation.
type ResponderConfig struct {
	CondenseQuestion bool   `yaml:"condense_question"`
	SystemPrompt     string `yaml:"system_prompt"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// CorpusConfig lists local guidance documents indexed at startup.
type CorpusConfig struct {
	Paths []string `yaml:"paths"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Demo        bool              `yaml:"demo"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	Responder   ResponderConfig   `yaml:"responder"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Corpus      CorpusConfig      `yaml:"corpus"`
}

// envOverrides are applied on top of the YAML file.
type envOverrides struct {
	Addr      string `env:"RECYCLEBOT_ADDR"`
	LogLevel  string `env:"RECYCLEBOT_LOG_LEVEL"`
	LogFormat string `env:"RECYCLEBOT_LOG_FORMAT"`
	LogFile   string `env:"RECYCLEBOT_LOG_FILE"`
	Demo      *bool  `env:"RECYCLEBOT_DEMO"`
	IndexName string `env:"RECYCLEBOT_INDEX_NAME"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			if err := applyEnv(cfg); err != nil {
				return nil, err
			}
			applyConfigDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and fills defaults.
func Parse(data []byte) (*AppConfig, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/recyclebot/config.yaml.
// If neither exists, it writes defaults to ~/.config/recyclebot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	applyConfigDefaults(cfg)
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, "", err
	}
	applyConfigDefaults(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// APIKey resolves the value of the environment variable envName.
func APIKey(envName string) (string, error) {
	key := strings.TrimSpace(os.Getenv(envName))
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, envName)
	}
	return key, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "recyclebot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server:      ServerConfig{Addr: ":8080", MaxSessions: 1000, CookieName: "recyclebot_session"},
		Log:         LogConfig{Level: "info", Format: "console"},
		Embedder:    EmbedderConfig{Type: "openai", CacheSize: 512},
		Chunker:     ChunkerConfig{Type: "sentence", SentencesPerChunk: 5, OverlapSentences: 1},
		VectorStore: VectorStoreConfig{Type: "pinecone", TopK: 3},
		Generator:   GeneratorConfig{Type: "openai"},
		Classifier:  ClassifierConfig{Enabled: true},
		Summarizer:  SummarizerConfig{Type: "frequency", MaxSentences: 5},
	}
}

func applyEnv(cfg *AppConfig) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if ov.Addr != "" {
		cfg.Server.Addr = ov.Addr
	}
	if ov.LogLevel != "" {
		cfg.Log.Level = ov.LogLevel
	}
	if ov.LogFormat != "" {
		cfg.Log.Format = ov.LogFormat
	}
	if ov.LogFile != "" {
		cfg.Log.File = ov.LogFile
	}
	if ov.Demo != nil {
		cfg.Demo = *ov.Demo
	}
	if ov.IndexName != "" {
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		cfg.VectorStore.Qdrant.Collection = ov.IndexName
	}
	return nil
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MaxSessions <= 0 {
		cfg.Server.MaxSessions = 1000
	}
	if cfg.Server.CookieName == "" {
		cfg.Server.CookieName = "recyclebot_session"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 5
	}
	if cfg.VectorStore.TopK <= 0 {
		cfg.VectorStore.TopK = 3
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	switch cfg.VectorStore.Type {
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		if cfg.VectorStore.Qdrant.URL == "" {
			cfg.VectorStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.VectorStore.Qdrant.APIKeyEnv == "" {
			cfg.VectorStore.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
		}
		if cfg.VectorStore.Qdrant.Collection == "" {
			cfg.VectorStore.Qdrant.Collection = DefaultIndexName
		}
		if cfg.VectorStore.Qdrant.TimeoutSecs == 0 {
			cfg.VectorStore.Qdrant.TimeoutSecs = 15
		}
	case "pinecone":
		if cfg.VectorStore.Pinecone == nil {
			cfg.VectorStore.Pinecone = &PineconeConfig{}
		}
		if cfg.VectorStore.Pinecone.APIKeyEnv == "" {
			cfg.VectorStore.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.VectorStore.Pinecone.TimeoutSecs == 0 {
			cfg.VectorStore.Pinecone.TimeoutSecs = 15
		}
	}
	switch cfg.Generator.Type {
	case "openai", "":
		cfg.Generator.Type = "openai"
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIGeneratorConfig{}
		}
		g := cfg.Generator.OpenAI
		if g.BaseURL == "" {
			g.BaseURL = "https://api.openai.com/v1"
		}
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "OPENAI_API_KEY"
		}
		if g.Model == "" {
			g.Model = "gpt-4o"
		}
		if g.ClassifierModel == "" {
			g.ClassifierModel = "gpt-4o-mini"
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 60
		}
	case "gemini":
		if cfg.Generator.Gemini == nil {
			cfg.Generator.Gemini = &GeminiGeneratorConfig{}
		}
		g := cfg.Generator.Gemini
		if g.APIKeyEnv == "" {
			g.APIKeyEnv = "GEMINI_API_KEY"
		}
		if g.Model == "" {
			g.Model = "gemini-2.5-flash"
		}
		if g.ClassifierModel == "" {
			g.ClassifierModel = "gemini-2.5-flash-lite"
		}
		if g.TimeoutSecs == 0 {
			g.TimeoutSecs = 60
		}
	}
}

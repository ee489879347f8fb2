package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Prefix      string `yaml:"prefix"`
	APIKeyEnv   string `yaml:"api_key_env"`
	SeedDir     string `yaml:"seed_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects and configures the text embedder implementation.
// Dimension is fixed for the lifetime of a catalog.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// OracleConfig selects the language-model provider.
type OracleConfig struct {
	Provider    string `yaml:"provider"`
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// CatalogStoreConfig selects and configures the catalog store implementation.
type CatalogStoreConfig struct {
	Type     string          `yaml:"type"`
	SQLite   *SQLiteConfig   `yaml:"sqlite,omitempty"`
	Postgres *PostgresConfig `yaml:"postgres,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
}

// SQLiteConfig points at the sqlite-vec database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig contains connection details for a pgvector database.
type PostgresConfig struct {
	DSNEnv string `yaml:"dsn_env"`
	Table  string `yaml:"table"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QuoteConfig tunes the quote composer.
type QuoteConfig struct {
	TopK          int     `yaml:"top_k"`
	DefaultMargin float64 `yaml:"default_margin"`
	Verify        string  `yaml:"verify"`
}

// ImportConfig tunes the import pipeline.
type ImportConfig struct {
	LinesPerChunk int `yaml:"lines_per_chunk"`
}

// ArchiveConfig enables archiving of uploaded import files to object storage.
type ArchiveConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	Bucket       string `yaml:"bucket"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server       ServerConfig       `yaml:"server"`
	Embedder     EmbedderConfig     `yaml:"embedder"`
	Oracle       OracleConfig       `yaml:"oracle"`
	CatalogStore CatalogStoreConfig `yaml:"catalog_store"`
	Quote        QuoteConfig        `yaml:"quote"`
	Import       ImportConfig       `yaml:"import"`
	Archive      ArchiveConfig      `yaml:"archive"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/quoterag/config.yaml.
// If neither exists, it writes defaults to ~/.config/quoterag/config.yaml and returns them.
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
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
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

// Secret reads the environment variable named by a *_env config field.
func Secret(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "quoterag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder:     EmbedderConfig{Type: "hashing"},
		CatalogStore: CatalogStoreConfig{Type: "sqlite"},
		Oracle:       OracleConfig{Provider: "zhipu"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8081"
	}
	if cfg.Server.Prefix == "" {
		cfg.Server.Prefix = "/scene1/api"
	}
	if cfg.Server.APIKeyEnv == "" {
		cfg.Server.APIKeyEnv = "QUOTERAG_API_KEY"
	}
	if cfg.Server.SeedDir == "" {
		cfg.Server.SeedDir = "."
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 16
	}

	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://open.bigmodel.cn/api/paas/v4"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "ZHIPU_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "embedding-3"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.Dimension == 0 {
			cfg.Embedder.Dimension = 2048
		}
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 256
	}

	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = "zhipu"
	}
	if cfg.Oracle.APIKeyEnv == "" {
		cfg.Oracle.APIKeyEnv = defaultOracleKeyEnv(cfg.Oracle.Provider)
	}
	if cfg.Oracle.MaxTokens == 0 {
		cfg.Oracle.MaxTokens = 4096
	}
	if cfg.Oracle.TimeoutSecs == 0 {
		cfg.Oracle.TimeoutSecs = 120
	}

	if cfg.CatalogStore.Type == "" {
		cfg.CatalogStore.Type = "sqlite"
	}
	switch cfg.CatalogStore.Type {
	case "sqlite":
		if cfg.CatalogStore.SQLite == nil {
			cfg.CatalogStore.SQLite = &SQLiteConfig{}
		}
		if cfg.CatalogStore.SQLite.Path == "" {
			cfg.CatalogStore.SQLite.Path = "catalog.db"
		}
	case "pgvector":
		if cfg.CatalogStore.Postgres == nil {
			cfg.CatalogStore.Postgres = &PostgresConfig{}
		}
		if cfg.CatalogStore.Postgres.DSNEnv == "" {
			cfg.CatalogStore.Postgres.DSNEnv = "DATABASE_URL"
		}
		if cfg.CatalogStore.Postgres.Table == "" {
			cfg.CatalogStore.Postgres.Table = "price_library"
		}
	case "qdrant":
		if cfg.CatalogStore.Qdrant == nil {
			cfg.CatalogStore.Qdrant = &QdrantConfig{}
		}
		if cfg.CatalogStore.Qdrant.URL == "" {
			cfg.CatalogStore.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.CatalogStore.Qdrant.Collection == "" {
			cfg.CatalogStore.Qdrant.Collection = "price_library"
		}
		if cfg.CatalogStore.Qdrant.TimeoutSecs == 0 {
			cfg.CatalogStore.Qdrant.TimeoutSecs = 15
		}
	}

	if cfg.Quote.TopK == 0 {
		cfg.Quote.TopK = 5
	}
	if cfg.Quote.Verify == "" {
		cfg.Quote.Verify = "warn"
	}

	if cfg.Import.LinesPerChunk == 0 {
		cfg.Import.LinesPerChunk = 40
	}

	if cfg.Archive.Enabled {
		if cfg.Archive.Endpoint == "" {
			cfg.Archive.Endpoint = "localhost:9000"
		}
		if cfg.Archive.AccessKeyEnv == "" {
			cfg.Archive.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if cfg.Archive.SecretKeyEnv == "" {
			cfg.Archive.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
		if cfg.Archive.Bucket == "" {
			cfg.Archive.Bucket = "price-imports"
		}
	}
}

func defaultOracleKeyEnv(provider string) string {
	switch provider {
	case "claude":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "zhipu":
		return "ZHIPU_API_KEY"
	case "deepseek":
		return "DEEPSEEK_API_KEY"
	case "ollama":
		return ""
	default:
		return "ORACLE_API_KEY"
	}
}

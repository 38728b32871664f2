package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	JWTSecret  string           `json:"jwt_secret"`
	CORSAllow  []string         `json:"cors_allow_origins"`
	LogConfig  logger.LogConfig `json:"log_config"`
	Database   DatabaseConfig   `json:"database"`
	FileStore  FileStoreConfig  `json:"file_store"`
	AI         AIConfig         `json:"ai"`
	Transcribe TranscribeConfig `json:"transcribe"`
	Extraction ExtractionConfig `json:"extraction"`
	Generation GenerationConfig `json:"generation"`
	Jobs       JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Model         string      `json:"model"`
	EmbedProvider string      `json:"embed_provider"`
	EmbedModel    string      `json:"embed_model"`
	Data          interface{} `json:"data"`
	EmbedData     interface{} `json:"embed_data"`
}

type TranscribeConfig struct {
	Endpoint string `json:"endpoint"`
	Language string `json:"language"`
}

// ExtractionConfig points at an optional text-extraction sidecar for
// formats the built-in extractors cannot read.
type ExtractionConfig struct {
	Endpoint string   `json:"endpoint"`
	Types    []string `json:"types"`
}

type GenerationConfig struct {
	ChunkSize      int `json:"chunk_size"`
	ChunkOverlap   int `json:"chunk_overlap"`
	RetrievalTopK  int `json:"retrieval_top_k"`
	EmbedBatchSize int `json:"embed_batch_size"`
}

type JobsConfig struct {
	MaterialSweepSpec        string `json:"material_sweep_spec"`
	EmbeddingCacheSpec       string `json:"embedding_cache_spec"`
	EmbeddingCacheKeepDays   int    `json:"embedding_cache_keep_days"`
	StaleGenerationSpec      string `json:"stale_generation_spec"`
	StaleGenerationAfterMins int    `json:"stale_generation_after_mins"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.EmbedData == nil {
		cfg.AI.EmbedData = cfg.AI.Data
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.Generation.ChunkSize == 0 {
		cfg.Generation.ChunkSize = 1000
	}
	if cfg.Generation.ChunkOverlap == 0 {
		cfg.Generation.ChunkOverlap = 200
	}
	if cfg.Generation.ChunkOverlap >= cfg.Generation.ChunkSize {
		return nil, fmt.Errorf("generation.chunk_overlap must be smaller than chunk_size")
	}
	if cfg.Generation.RetrievalTopK == 0 {
		cfg.Generation.RetrievalTopK = 5
	}
	if cfg.Generation.EmbedBatchSize == 0 {
		cfg.Generation.EmbedBatchSize = 32
	}
	if cfg.Extraction.Endpoint != "" && len(cfg.Extraction.Types) == 0 {
		cfg.Extraction.Types = []string{"pdf", "docx", "pptx"}
	}
	if cfg.Jobs.MaterialSweepSpec == "" {
		cfg.Jobs.MaterialSweepSpec = "* * * * *"
	}
	if cfg.Jobs.EmbeddingCacheSpec == "" {
		cfg.Jobs.EmbeddingCacheSpec = "30 3 * * *"
	}
	if cfg.Jobs.EmbeddingCacheKeepDays == 0 {
		cfg.Jobs.EmbeddingCacheKeepDays = 30
	}
	if cfg.Jobs.StaleGenerationSpec == "" {
		cfg.Jobs.StaleGenerationSpec = "*/10 * * * *"
	}
	if cfg.Jobs.StaleGenerationAfterMins == 0 {
		cfg.Jobs.StaleGenerationAfterMins = 30
	}
	return &cfg, nil
}

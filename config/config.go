// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/tedrag/ai"
	"github.com/poiesic/tedrag/chunking"
	"github.com/poiesic/tedrag/dataset"
	"github.com/poiesic/tedrag/ingestion"
	"github.com/poiesic/tedrag/rag"
	"github.com/poiesic/tedrag/server"
	"github.com/poiesic/tedrag/vectorstore"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvLLMAPIKey      = "LLMOD_API_KEY"
	EnvLLMBaseURL     = "LLMOD_BASE_URL"
	EnvPineconeAPIKey = "PINECONE_API_KEY"
	EnvIndexBackend   = "TEDRAG_INDEX_BACKEND"
	EnvIndexPath      = "TEDRAG_INDEX_PATH"
	EnvPort           = "PORT"
)

// Index backends.
const (
	BackendPinecone = "pinecone"
	BackendChromem  = "chromem"
	BackendBadger   = "badger"
)

// AIConfig selects the embedding and chat models.
type AIConfig struct {
	Host           string `yaml:"host"`
	EmbeddingHost  string `yaml:"embedding_host,omitempty"`
	ChatHost       string `yaml:"chat_host,omitempty"`
	APIKey         string `yaml:"api_key,omitempty"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
}

// IndexConfig selects and configures the vector index.
// Path and InMemory apply to the embedded backends only.
type IndexConfig struct {
	Backend      string        `yaml:"backend"`
	Name         string        `yaml:"name"`
	Namespace    string        `yaml:"namespace"`
	Dimension    int           `yaml:"dimension"`
	Metric       string        `yaml:"metric"`
	Cloud        string        `yaml:"cloud"`
	Region       string        `yaml:"region"`
	APIKey       string        `yaml:"api_key,omitempty"`
	Host         string        `yaml:"host,omitempty"`
	ReadyTimeout time.Duration `yaml:"ready_timeout,omitempty"`
	Path         string        `yaml:"path,omitempty"`
	InMemory     bool          `yaml:"in_memory,omitempty"`
}

// ChunkingConfig configures transcript splitting.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// IngestionConfig configures dataset reduction and ingestion.
type IngestionConfig struct {
	Source    string `yaml:"source"`
	Dataset   string `yaml:"dataset"`
	Rows      int    `yaml:"rows"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
}

// RetrievalConfig configures the query service.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Mode         string        `yaml:"mode"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Config is the root configuration document.
type Config struct {
	AI        AIConfig        `yaml:"ai"`
	Index     IndexConfig     `yaml:"index"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Server    ServerConfig    `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	spec := vectorstore.DefaultSpec()
	srv := server.DefaultConfig()

	return &Config{
		AI: AIConfig{
			Host:           aiDefaults.EmbeddingHost,
			EmbeddingModel: aiDefaults.EmbeddingModel,
			ChatModel:      aiDefaults.ChatModel,
		},
		Index: IndexConfig{
			Backend:   BackendPinecone,
			Name:      spec.Name,
			Namespace: vectorstore.DefaultNamespace,
			Dimension: spec.Dimension,
			Metric:    string(spec.Metric),
			Cloud:     spec.Cloud,
			Region:    spec.Region,
			Path:      filepath.Join("data", "index"),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    chunking.DefaultChunkSize,
			ChunkOverlap: chunking.DefaultChunkOverlap,
		},
		Ingestion: IngestionConfig{
			Source:    "ted_talks_en.csv",
			Dataset:   "mini_dataset.csv",
			Rows:      dataset.DefaultRows,
			BatchSize: ingestion.DefaultBatchSize,
			Workers:   1,
		},
		Retrieval: RetrievalConfig{
			TopK: rag.DefaultTopK,
		},
		Server: ServerConfig{
			Host:         srv.Host,
			Port:         srv.Port,
			Mode:         srv.Mode,
			ReadTimeout:  srv.ReadTimeout,
			WriteTimeout: srv.WriteTimeout,
			IdleTimeout:  srv.IdleTimeout,
		},
	}
}

// Load reads the YAML file at path over the defaults.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnvFile loads variables from the given .env files into the process
// environment. Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields with any environment variables that are set.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvLLMAPIKey); ok {
		c.AI.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvLLMBaseURL); ok && v != "" {
		c.AI.Host = v
	}
	if v, ok := os.LookupEnv(EnvPineconeAPIKey); ok {
		c.Index.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvIndexBackend); ok && v != "" {
		c.Index.Backend = v
	}
	if v, ok := os.LookupEnv(EnvIndexPath); ok && v != "" {
		c.Index.Path = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Index.Backend {
	case BackendPinecone:
		if c.Index.APIKey == "" {
			return fmt.Errorf("index backend %s requires %s", BackendPinecone, EnvPineconeAPIKey)
		}
		if c.Index.ReadyTimeout < 0 {
			return fmt.Errorf("index ready timeout must not be negative, got %s", c.Index.ReadyTimeout)
		}
	case BackendChromem, BackendBadger:
		if !c.Index.InMemory && c.Index.Path == "" {
			return fmt.Errorf("index backend %s requires a path", c.Index.Backend)
		}
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
	if c.Index.Namespace == "" {
		return errors.New("index namespace is required")
	}
	if err := c.IndexSpec().Validate(); err != nil {
		return err
	}
	if c.Chunking.ChunkSize < 1 {
		return chunking.ErrInvalidChunkSize
	}
	if c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return chunking.ErrInvalidOverlap
	}
	if c.Ingestion.BatchSize < 1 {
		return fmt.Errorf("ingestion batch size must be positive, got %d", c.Ingestion.BatchSize)
	}
	if c.Retrieval.TopK < 1 {
		return vectorstore.ErrInvalidTopK
	}
	if err := c.ServerConfig().Validate(); err != nil {
		return err
	}
	return c.AIConfig().Validate()
}

// AIConfig returns the model client configuration.
func (c *Config) AIConfig() *ai.Config {
	embeddingHost := c.AI.EmbeddingHost
	if embeddingHost == "" {
		embeddingHost = c.AI.Host
	}
	chatHost := c.AI.ChatHost
	if chatHost == "" {
		chatHost = c.AI.Host
	}
	return ai.NewConfig(
		ai.WithEmbeddingHost(embeddingHost),
		ai.WithChatHost(chatHost),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithChatModel(c.AI.ChatModel),
	)
}

// IndexSpec returns the spec the index is provisioned with.
func (c *Config) IndexSpec() vectorstore.IndexSpec {
	return vectorstore.IndexSpec{
		Name:      c.Index.Name,
		Dimension: c.Index.Dimension,
		Metric:    vectorstore.Metric(c.Index.Metric),
		Cloud:     c.Index.Cloud,
		Region:    c.Index.Region,
	}
}

// ServerConfig returns the HTTP server configuration.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Host:         c.Server.Host,
		Port:         c.Server.Port,
		Mode:         c.Server.Mode,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
		IdleTimeout:  c.Server.IdleTimeout,
	}
}

// Save writes cfg as YAML, creating parent directories as needed.
// API keys are omitted.
func Save(path string, cfg *Config) error {
	clean := *cfg
	clean.AI.APIKey = ""
	clean.Index.APIKey = ""

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(&clean)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

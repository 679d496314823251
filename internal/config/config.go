package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Address string `yaml:"address"`
}

// LLMConfig names one model endpoint. Provider is "openai" for any
// OpenAI-compatible API or "ollama" for a local server.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type StoreConfig struct {
	// Driver selects the vector backend: "chromem" or "postgres".
	Driver     string         `yaml:"driver"`
	Path       string         `yaml:"path"`
	Collection string         `yaml:"collection"`
	InMemory   bool           `yaml:"in_memory"`
	Database   DatabaseConfig `yaml:"database"`
}

// SummarizerConfig documents the strategy thresholds as configuration
// rather than burying them in code.
type SummarizerConfig struct {
	DirectMaxChars       int `yaml:"direct_max_chars"`
	RefineMaxChars       int `yaml:"refine_max_chars"`
	ChunkSize            int `yaml:"chunk_size"`
	ChunkOverlap         int `yaml:"chunk_overlap"`
	BatchSize            int `yaml:"batch_size"`
	ChunkSummaryMaxWords int `yaml:"chunk_summary_max_words"`
	DirectInputCap       int `yaml:"direct_input_cap"`
}

type MCQConfig struct {
	DirectMaxChars int `yaml:"direct_max_chars"`
	ChunkSize      int `yaml:"chunk_size"`
	MaxChunks      int `yaml:"max_chunks"`
	ChunkInputCap  int `yaml:"chunk_input_cap"`
}

type QAConfig struct {
	HistoryPairs      int `yaml:"history_pairs"`
	ContextCap        int `yaml:"context_cap"`
	RetrievalK        int `yaml:"retrieval_k"`
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
	MaxSessions       int `yaml:"max_sessions"`
}

type UploadConfig struct {
	Dir           string `yaml:"dir"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	LLM        LLMConfig        `yaml:"llm"`
	Embedding  LLMConfig        `yaml:"embedding"`
	Store      StoreConfig      `yaml:"store"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	MCQ        MCQConfig        `yaml:"mcq"`
	QA         QAConfig         `yaml:"qa"`
	Upload     UploadConfig     `yaml:"upload"`
}

// Load reads the YAML config and applies environment overrides. A .env
// file next to the process is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.LLM.Key == "" {
			c.LLM.Key = key
		}
		if c.Embedding.Key == "" {
			c.Embedding.Key = key
		}
	}
	if pw := os.Getenv("DATABASE_PASSWORD"); pw != "" && c.Store.Database.Password == "" {
		c.Store.Database.Password = pw
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = c.LLM.Provider
	}
	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = c.LLM.BaseURL
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "chromem"
	}
	if c.Store.Path == "" {
		c.Store.Path = "./chromem_db"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "scholarnet_docs"
	}
	if c.QA.SessionTTLMinutes == 0 {
		c.QA.SessionTTLMinutes = 120
	}
	if c.QA.MaxSessions == 0 {
		c.QA.MaxSessions = 1000
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "./uploads"
	}
	if c.Upload.MaxFileSizeMB == 0 {
		c.Upload.MaxFileSizeMB = 10
	}
	if c.Upload.ChunkSize == 0 {
		c.Upload.ChunkSize = 1000
	}
	if c.Upload.ChunkOverlap == 0 {
		c.Upload.ChunkOverlap = 200
	}
}

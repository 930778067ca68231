// Package config loads application configuration from file, defaults,
// and environment variables via viper. Configuration is read once at
// startup into an explicit struct passed into each component.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Extractor LLMConfig       `mapstructure:"extractor"`
	Query     LLMConfig       `mapstructure:"query"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Breaker   BreakerConfig   `mapstructure:"circuit_breaker"`

	MaxFileSizeMB int `mapstructure:"max_file_size_mb"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GraphConfig selects and configures the graph backend.
type GraphConfig struct {
	// Mode is "embedded" or "neo4j".
	Mode         string `mapstructure:"mode"`
	URI          string `mapstructure:"uri"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// LLMConfig holds configuration for one language model backend.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, gemini
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// ChunkingConfig holds text chunking geometry.
type ChunkingConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// CacheConfig holds the extraction cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// TelemetryConfig holds telemetry output settings.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ParquetPath string `mapstructure:"parquet_path"`
}

// BreakerConfig holds circuit breaker settings for LLM calls.
type BreakerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	MaxRequests uint32  `mapstructure:"max_requests"`
	Interval    int     `mapstructure:"interval"` // seconds
	Timeout     int     `mapstructure:"timeout"`  // seconds
	TripRatio   float64 `mapstructure:"trip_ratio"`
}

// Load reads configuration from the optional config file, applies
// defaults, then environment overrides.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("factgraph")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.factgraph")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(cfg)
	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")

	viper.SetDefault("graph.mode", "embedded")
	viper.SetDefault("graph.uri", "bolt://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.password", "password")
	viper.SetDefault("graph.database", "neo4j")
	viper.SetDefault("graph.snapshot_path", "factgraph_data.json")

	viper.SetDefault("extractor.provider", "openai")
	viper.SetDefault("extractor.model", "gpt-4o-mini")
	viper.SetDefault("extractor.temperature", 0.0)

	viper.SetDefault("query.provider", "gemini")
	viper.SetDefault("query.model", "gemini-1.5-flash")
	viper.SetDefault("query.temperature", 0.0)

	viper.SetDefault("chunking.size", 1000)
	viper.SetDefault("chunking.overlap", 200)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.dir", ".factgraph_cache")

	viper.SetDefault("telemetry.enabled", false)
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("telemetry.parquet_path", home+"/.factgraph/telemetry")
	}

	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.trip_ratio", 0.6)

	viper.SetDefault("max_file_size_mb", 10)
}

func overrideWithEnv(cfg *Config) {
	if mode := os.Getenv("GRAPH_MODE"); mode != "" {
		cfg.Graph.Mode = mode
	}
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		cfg.Graph.URI = uri
	}
	if user := os.Getenv("NEO4J_USERNAME"); user != "" {
		cfg.Graph.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		cfg.Graph.Password = pass
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Extractor.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Extractor.Model = model
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		cfg.Query.APIKey = key
	}

	if size := os.Getenv("CHUNK_SIZE"); size != "" {
		if v, err := strconv.Atoi(size); err == nil {
			cfg.Chunking.Size = v
		}
	}
	if overlap := os.Getenv("CHUNK_OVERLAP"); overlap != "" {
		if v, err := strconv.Atoi(overlap); err == nil {
			cfg.Chunking.Overlap = v
		}
	}
}

// Validation is the outcome of Validate: a flag plus human-readable
// issue list. Issues disable subsystems, they do not abort startup.
type Validation struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Validate reports configuration problems worth surfacing at startup.
func (c *Config) Validate() Validation {
	var issues []string

	if c.Extractor.APIKey == "" {
		issues = append(issues, "extractor API key is not set; falling back to heuristic extraction")
	}
	if c.Query.APIKey == "" {
		issues = append(issues, "query API key is not set; natural-language queries disabled")
	}
	if c.Graph.Mode == "neo4j" && (c.Graph.Password == "" || c.Graph.Password == "password") {
		issues = append(issues, "neo4j password should be changed from default")
	}
	if c.Chunking.Overlap >= c.Chunking.Size || c.Chunking.Size <= 0 {
		issues = append(issues, fmt.Sprintf("invalid chunking geometry size=%d overlap=%d", c.Chunking.Size, c.Chunking.Overlap))
	}

	return Validation{Valid: len(issues) == 0, Issues: issues}
}

package config

import (
	"time"

	"github.com/jackzampolin/pdfx/internal/providers"
)

// Config holds pdfx configuration.
// Stored at: ~/.pdfx/config.yaml or ./config.yaml
type Config struct {
	LLM        LLMCfg        `mapstructure:"llm" yaml:"llm"`
	Cache      CacheCfg      `mapstructure:"cache" yaml:"cache"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
	Batch      BatchCfg      `mapstructure:"batch" yaml:"batch"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
}

// LLMCfg configures the field-extraction model.
type LLMCfg struct {
	Provider    string            `mapstructure:"provider" yaml:"provider"` // "openai" or "mock"
	Model       string            `mapstructure:"model" yaml:"model"`
	APIKey      string            `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL     string            `mapstructure:"base_url" yaml:"base_url"`
	Timeout     string            `mapstructure:"timeout" yaml:"timeout"` // Go duration, e.g. "60s"
	Structured  bool              `mapstructure:"structured" yaml:"structured"`
	HistorySize int               `mapstructure:"history_size" yaml:"history_size"`
	Pricing     providers.Pricing `mapstructure:"pricing" yaml:"pricing"`
}

// CacheCfg configures the result cache.
type CacheCfg struct {
	// MaxEntries bounds the cache with LRU eviction. 0 means unbounded.
	MaxEntries    int  `mapstructure:"max_entries" yaml:"max_entries"`
	StoreFailures bool `mapstructure:"store_failures" yaml:"store_failures"`
}

type ExtractionCfg struct {
	MaxInFlight int `mapstructure:"max_in_flight" yaml:"max_in_flight"`
}

type BatchCfg struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

type ServerCfg struct {
	Host           string `mapstructure:"host" yaml:"host"`
	Port           int    `mapstructure:"port" yaml:"port"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

const (
	// DefaultProviderName is the registry name of the configured LLM client.
	DefaultProviderName = "default"

	defaultTimeout = 60 * time.Second
)

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMCfg{
			Provider:    providers.OpenAIName,
			Model:       providers.DefaultModel,
			APIKey:      "${OPENAI_API_KEY}",
			Timeout:     defaultTimeout.String(),
			HistorySize: 200,
		},
		Cache: CacheCfg{
			StoreFailures: true,
		},
		Extraction: ExtractionCfg{
			MaxInFlight: 1,
		},
		Batch: BatchCfg{
			BaseDir: "files",
		},
		Server: ServerCfg{
			Host:           "0.0.0.0",
			Port:           8000,
			MaxUploadBytes: 32 << 20,
		},
	}
}

// TimeoutDuration parses the configured LLM timeout, falling back to 60s
// when it is empty or invalid.
func (c LLMCfg) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return defaultTimeout
	}
	return d
}

// ResolvedAPIKey returns the API key with ${ENV_VAR} references expanded.
func (c LLMCfg) ResolvedAPIKey() string {
	return ResolveEnvVars(c.APIKey)
}

// ToProviderRegistryConfig converts the LLM section to a provider registry
// config with a single client named DefaultProviderName.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	return providers.RegistryConfig{
		LLMProviders: map[string]providers.LLMProviderConfig{
			DefaultProviderName: {
				Type:    c.LLM.Provider,
				Model:   c.LLM.Model,
				APIKey:  c.LLM.ResolvedAPIKey(),
				BaseURL: c.LLM.BaseURL,
				Timeout: c.LLM.TimeoutDuration(),
				Pricing: c.LLM.Pricing,
				Enabled: c.LLM.Provider != "",
			},
		},
	}
}

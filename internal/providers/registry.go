package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds named LLM clients.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	llmClients map[string]LLMClient
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	if r.logger != nil {
		r.logger.Info("registered LLM client", "name", name)
	}
}

// UnregisterLLM removes an LLM client by name.
func (r *Registry) UnregisterLLM(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.llmClients, name)
	if r.logger != nil {
		r.logger.Info("unregistered LLM client", "name", name)
	}
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasLLM checks if an LLM client is registered.
func (r *Registry) HasLLM(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.llmClients[name]
	return ok
}

// RegistryConfig defines the providers to instantiate from config.
type RegistryConfig struct {
	LLMProviders map[string]LLMProviderConfig
}

// LLMProviderConfig is a single provider entry with its API key resolved.
type LLMProviderConfig struct {
	Type    string // "openai" or "mock"
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Pricing Pricing
	Enabled bool
}

func (c LLMProviderConfig) usable() bool {
	if !c.Enabled {
		return false
	}
	return c.Type == MockClientName || c.APIKey != ""
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with valid API keys will be registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.usable() {
			continue
		}
		if client := createLLMClient(provCfg); client != nil {
			r.llmClients[name] = client
		}
	}
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.LLMProviders {
		if !provCfg.usable() {
			continue
		}
		want[name] = true

		existing, hasExisting := r.llmClients[name]
		if hasExisting && !needsLLMUpdate(existing, provCfg) {
			continue
		}
		client := createLLMClient(provCfg)
		if client == nil {
			continue
		}
		r.llmClients[name] = client
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated LLM client", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered LLM client", "name", name, "type", provCfg.Type)
			}
		}
	}

	for name := range r.llmClients {
		if !want[name] {
			delete(r.llmClients, name)
			if r.logger != nil {
				r.logger.Info("unregistered LLM client", "name", name)
			}
		}
	}
}

func createLLMClient(cfg LLMProviderConfig) LLMClient {
	switch cfg.Type {
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Pricing: cfg.Pricing,
			Timeout: cfg.Timeout,
			BaseURL: cfg.BaseURL,
		})
	case MockClientName:
		m := NewMockClient()
		if cfg.Model != "" {
			m.Model = cfg.Model
		}
		m.Pricing = cfg.Pricing
		return m
	default:
		return nil
	}
}

func needsLLMUpdate(client LLMClient, cfg LLMProviderConfig) bool {
	switch c := client.(type) {
	case *OpenAIClient:
		return cfg.Type != OpenAIName ||
			c.apiKey != cfg.APIKey ||
			c.model != modelOrDefault(cfg.Model) ||
			c.baseURL != cfg.BaseURL ||
			c.pricing != cfg.Pricing ||
			c.timeout != timeoutOrDefault(cfg.Timeout)
	case *MockClient:
		return cfg.Type != MockClientName ||
			c.Model != modelOrDefault(cfg.Model) ||
			c.Pricing != cfg.Pricing
	default:
		return true
	}
}

func modelOrDefault(model string) string {
	if model == "" {
		return DefaultModel
	}
	return model
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d == 0 {
		return openAIDefaultTimeout
	}
	return d
}

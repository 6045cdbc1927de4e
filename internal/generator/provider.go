// Package generator produces the vending-machine text for a catalog
// service. The external completion call is opaque to the entitlement
// core: it may be slow or fail, and a failure after a granted permit is
// surfaced to the caller without refunding the consumed trial.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/adetolarazak567-alt/AI-Smartvendoo/pkg/config"
)

// Provider is a text-completion backend.
type Provider interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and configures the completion provider.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIURL    string
	MaxTokens int
}

// LoadConfig reads provider configuration from GEN_* env vars.
func LoadConfig() Config {
	return Config{
		Provider:  config.GetEnv("GEN_PROVIDER", "canned"),
		Model:     config.GetEnv("GEN_MODEL", ""),
		APIKey:    config.GetEnv("GEN_API_KEY", ""),
		APIURL:    config.GetEnv("GEN_API_URL", ""),
		MaxTokens: config.GetEnvInt("GEN_MAX_TOKENS", 1024),
	}
}

// NewProvider builds the configured provider. The "canned" provider is
// nil: the generator then falls back to the catalog's canned templates.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "canned", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}

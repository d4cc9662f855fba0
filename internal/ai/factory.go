package ai

import (
	"fmt"

	"github.com/helpdesk/support-desk/internal/config"
)

// NewProvider selects the backend named by cfg.Provider.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "rules":
		return NewRules(), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("AI_API_KEY is required for the openai provider")
		}
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout()), nil
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.Provider)
	}
}

package ai

import (
	"tidybook/models"
	"tidybook/utils"

	"go.uber.org/zap"
)

// Resolve picks a usable provider from integration settings: the configured
// active provider first, then the remaining providers in FallbackOrder. A
// provider is usable when enabled with a non-empty API key. ErrNoProvider when
// nothing qualifies.
func Resolve(settings *models.IntegrationSettings) (Provider, error) {
	if settings == nil {
		return nil, ErrNoProvider
	}

	tried := map[string]bool{}
	order := make([]string, 0, len(FallbackOrder)+1)
	if settings.ActiveProvider != "" {
		order = append(order, settings.ActiveProvider)
	}
	order = append(order, FallbackOrder...)

	for _, name := range order {
		if tried[name] {
			continue
		}
		tried[name] = true

		cfg, ok := settings.Providers[name]
		if !ok || !cfg.Enabled || cfg.APIKey == "" {
			continue
		}
		provider, err := build(name, cfg)
		if err != nil {
			utils.GetLogger().Warn("failed to build AI provider, trying next",
				zap.String("provider", name), zap.Error(err))
			continue
		}
		if name != settings.ActiveProvider && settings.ActiveProvider != "" {
			utils.GetLogger().Info("active AI provider unusable, fell back",
				zap.String("active", settings.ActiveProvider), zap.String("using", name))
		}
		return provider, nil
	}
	return nil, ErrNoProvider
}

func build(name string, cfg models.AIProviderSettings) (Provider, error) {
	switch name {
	case ProviderGemini:
		return NewGeminiProvider(cfg)
	default:
		return NewOpenAIProvider(name, cfg), nil
	}
}

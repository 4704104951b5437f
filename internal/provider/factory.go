package provider

import (
	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/errors"
)

// ProviderConstructor is a function that creates a new LLMProvider.
type ProviderConstructor func(baseURL, apiKey string, extraHeaders map[string]string) (LLMProvider, error)

// registry holds registered provider constructors.
var registry = map[string]ProviderConstructor{}

// RegisterProvider registers a provider constructor by name.
func RegisterProvider(name string, constructor ProviderConstructor) {
	registry[name] = constructor
}

// NewProvider creates the LLMProvider selected by cfg.Reasoning.Provider.
// The provider package must have been imported for its init side effect.
func NewProvider(cfg *config.Config) (LLMProvider, error) {
	rc := cfg.Reasoning
	constructor, ok := registry[rc.Provider]
	if !ok {
		return nil, errors.Newf("unknown provider: %q", rc.Provider)
	}

	envVar := config.APIKeyEnvVar(rc.Provider)
	apiKey, err := config.ResolveAPIKey(rc.APIKeySource, rc.APIKey, envVar)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s API key", rc.Provider)
	}

	p, err := constructor(rc.BaseURL, apiKey, rc.ExtraHeaders)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s provider", rc.Provider)
	}
	return p, nil
}

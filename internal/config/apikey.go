package config

import (
	"os"

	"github.com/julianshen/componentdoc/internal/errors"
)

// ResolveAPIKey resolves an API key based on the given source.
// Supported sources: "env" (from environment variable), "config" (from the
// config value), "none" (keyless endpoints such as a local Ollama).
func ResolveAPIKey(source, configValue, envVar string) (string, error) {
	switch source {
	case "env", "":
		return resolveFromEnv(envVar)
	case "config":
		if configValue == "" {
			return "", errors.New("api_key_source is 'config' but no api_key value provided")
		}
		return configValue, nil
	case "none":
		return "", nil
	default:
		return "", errors.Newf("unknown api_key_source: %q", source)
	}
}

// APIKeyEnvVar names the environment variable consulted for a provider.
func APIKeyEnvVar(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func resolveFromEnv(envVar string) (string, error) {
	if envVar == "" {
		return "", errors.New("no environment variable name specified")
	}
	val := os.Getenv(envVar)
	if val == "" {
		return "", errors.WithHintf(
			errors.Newf("environment variable %s is not set", envVar),
			"export %s or set reasoning.api_key_source = \"config\"", envVar,
		)
	}
	return val, nil
}

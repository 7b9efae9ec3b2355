package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	apperrors "audio2json/internal/app/errors"
)

// APIKeys holds all API keys loaded from environment
type APIKeys struct {
	Gemini string
	// Source is the environment variable the Gemini key was read from.
	Source string
}

// Environment variables consulted for the Gemini key, in priority order.
var geminiKeyVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// LoadEnv loads environment variables from the first .env file found.
// A missing file is not an error; variables may be set system-wide.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			return nil
		}
	}

	return nil
}

// GetAPIKeys retrieves and validates API keys from environment variables.
// An absent key is allowed here; RequireAPIKeys enforces presence.
func GetAPIKeys() (*APIKeys, error) {
	apiKeys := &APIKeys{}
	for _, name := range geminiKeyVars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			apiKeys.Gemini = v
			apiKeys.Source = name
			break
		}
	}

	if apiKeys.Gemini != "" {
		if !strings.HasPrefix(apiKeys.Gemini, "AIza") {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidAPIKey, "invalid %s format: must start with 'AIza'", apiKeys.Source)
		}
		if len(apiKeys.Gemini) < 30 {
			return nil, apperrors.Wrapf(apperrors.ErrInvalidAPIKey, "invalid %s format: too short", apiKeys.Source)
		}
	}

	return apiKeys, nil
}

// RequireAPIKeys fails when no Gemini key is configured.
func RequireAPIKeys(apiKeys *APIKeys) error {
	if apiKeys == nil || apiKeys.Gemini == "" {
		return apperrors.Wrapf(apperrors.ErrMissingAPIKey,
			"set %s in the environment or a .env file", strings.Join(geminiKeyVars, " or "))
	}
	return nil
}

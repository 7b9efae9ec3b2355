package config

import (
	"os"
)

// NetworkConfig holds endpoint overrides for the Gemini API.
type NetworkConfig struct {
	// GeminiBaseURL replaces the default endpoint, e.g. for a corporate proxy.
	GeminiBaseURL string
	// GeminiAPIVersion pins the REST API version ("v1beta" when empty).
	GeminiAPIVersion string
}

// GetNetworkConfig returns network configuration from environment or defaults
func GetNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		GeminiBaseURL:    getEnvOrDefault("GEMINI_BASE_URL", ""),
		GeminiAPIVersion: getEnvOrDefault("GEMINI_API_VERSION", ""),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import "time"

// Gemini defaults. Decoding favors low variance output.
const (
	DefaultModel            = "gemini-1.5-flash"
	DefaultTemperature      = 0.2
	DefaultTopP             = 0.95
	DefaultTopK             = 40
	DefaultMaxOutputTokens  = 8192
	DefaultResponseMIMEType = "application/json"
)

// Directory defaults, relative to the working directory.
const (
	DefaultInputDir  = "AudioData"
	DefaultOutputDir = "TextOutput"
)

// Readiness polling defaults
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultPollMaxInterval = 30 * time.Second
	DefaultPollMultiplier  = 1.5
	DefaultPollTimeout     = 10 * time.Minute
)

// Output defaults
const (
	DefaultIndent          = "    "
	CollisionOverwrite     = "overwrite"
	CollisionDisambiguate  = "disambiguate"
	DefaultCollisionPolicy = CollisionOverwrite
)

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "audio2json/internal/app/errors"
	envconfig "audio2json/internal/config"
)

// TranscribeConfig is the full configuration of a transcription run.
type TranscribeConfig struct {
	Model      string           `yaml:"model" validate:"required"`
	InputDir   string           `yaml:"input_dir" validate:"required"`
	OutputDir  string           `yaml:"output_dir" validate:"required"`
	Generation GenerationConfig `yaml:"generation"`
	Prompts    PromptConfig     `yaml:"prompts"`
	Polling    PollingConfig    `yaml:"polling"`
	Output     OutputConfig     `yaml:"output"`

	// BaseURL and APIVersion override the Gemini endpoint when set.
	BaseURL    string `yaml:"base_url,omitempty" validate:"omitempty,url"`
	APIVersion string `yaml:"api_version,omitempty"`

	// APIKey is never read from or written to the file.
	APIKey string `yaml:"-"`
}

// GenerationConfig holds the decoding parameters sent with every request.
type GenerationConfig struct {
	Temperature      float32 `yaml:"temperature" validate:"gte=0,lte=2"`
	TopP             float32 `yaml:"top_p" validate:"gt=0,lte=1"`
	TopK             float32 `yaml:"top_k" validate:"gte=1"`
	MaxOutputTokens  int32   `yaml:"max_output_tokens" validate:"gt=0"`
	ResponseMIMEType string  `yaml:"response_mime_type" validate:"required"`
}

// PromptConfig holds the system instruction and the per-file user message.
type PromptConfig struct {
	System string `yaml:"system" validate:"required"`
	User   string `yaml:"user" validate:"required"`
}

// PollingConfig bounds the wait for uploaded files to become usable.
type PollingConfig struct {
	Interval    time.Duration `yaml:"interval" validate:"gt=0"`
	MaxInterval time.Duration `yaml:"max_interval" validate:"gtefield=Interval"`
	Multiplier  float64       `yaml:"multiplier" validate:"gte=1"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
}

// OutputConfig controls how transcriptions are named on disk. Indentation is
// fixed at four spaces.
type OutputConfig struct {
	Collision string `yaml:"collision" validate:"oneof=overwrite disambiguate"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *TranscribeConfig {
	return &TranscribeConfig{
		Model:     envconfig.DefaultModel,
		InputDir:  envconfig.DefaultInputDir,
		OutputDir: envconfig.DefaultOutputDir,
		Generation: GenerationConfig{
			Temperature:      envconfig.DefaultTemperature,
			TopP:             envconfig.DefaultTopP,
			TopK:             envconfig.DefaultTopK,
			MaxOutputTokens:  envconfig.DefaultMaxOutputTokens,
			ResponseMIMEType: envconfig.DefaultResponseMIMEType,
		},
		Prompts: PromptConfig{
			System: DefaultSystemPrompt,
			User:   DefaultUserPrompt,
		},
		Polling: PollingConfig{
			Interval:    envconfig.DefaultPollInterval,
			MaxInterval: envconfig.DefaultPollMaxInterval,
			Multiplier:  envconfig.DefaultPollMultiplier,
			Timeout:     envconfig.DefaultPollTimeout,
		},
		Output: OutputConfig{
			Collision: envconfig.DefaultCollisionPolicy,
		},
	}
}

// LoadTranscribeConfig reads configPath over the defaults. Keys missing from
// the file keep their default values. An empty path yields the defaults.
func LoadTranscribeConfig(configPath string) (*TranscribeConfig, error) {
	config := DefaultConfig()
	if configPath == "" {
		return config, nil
	}

	configPath = os.ExpandEnv(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	config.expandEnvironmentVariables()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveTranscribeConfig writes config to configPath as YAML.
func SaveTranscribeConfig(config *TranscribeConfig, configPath string) error {
	configPath = os.ExpandEnv(configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandEnvironmentVariables expands $VAR and ${VAR} in path-like fields.
func (c *TranscribeConfig) expandEnvironmentVariables() {
	c.Model = os.ExpandEnv(c.Model)
	c.InputDir = os.ExpandEnv(c.InputDir)
	c.OutputDir = os.ExpandEnv(c.OutputDir)
	c.BaseURL = os.ExpandEnv(c.BaseURL)
}

// ApplyNetwork fills endpoint overrides from the environment when the file left them empty.
func (c *TranscribeConfig) ApplyNetwork(network *envconfig.NetworkConfig) {
	if network == nil {
		return
	}
	if c.BaseURL == "" {
		c.BaseURL = network.GeminiBaseURL
	}
	if c.APIVersion == "" {
		c.APIVersion = network.GeminiAPIVersion
	}
}

// Validate validates the configuration
func (c *TranscribeConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.WithKind(apperrors.ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, describeFieldError(fe))
	}
	return apperrors.WithKind(apperrors.ErrInvalidConfig, fmt.Errorf("%s", strings.Join(problems, "; ")))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "TranscribeConfig.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gtefield":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// GetDefaultConfigPath returns the config file to use when none is given on the
// command line, or "" when no file exists and defaults apply.
func GetDefaultConfigPath() string {
	if path := os.Getenv("A2J_CONFIG"); path != "" {
		return path
	}

	path := UserConfigPath()
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// UserConfigPath is ~/.a2j/config.yaml, whether or not it exists.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".a2j", "config.yaml")
}

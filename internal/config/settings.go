package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	apperrors "call-transcriber/internal/app/errors"
)

const (
	ProviderElevenLabs = "elevenlabs"
	ProviderOpenAI     = "openai"
)

// Settings is the full run configuration. Values are layered as defaults,
// then the optional YAML file, then environment variables, then CLI flags.
type Settings struct {
	InputFolder      string        `yaml:"input_folder" env:"INPUT_FOLDER" validate:"required"`
	OutputCSV        string        `yaml:"output_csv" env:"OUTPUT_CSV" validate:"required"`
	LanguageCode     string        `yaml:"language_code" env:"LANGUAGE_CODE" validate:"required"`
	BatchSize        int           `yaml:"batch_size" env:"BATCH_SIZE" validate:"gt=0"`
	Provider         string        `yaml:"provider" env:"TRANSCRIPTION_PROVIDER" validate:"oneof=elevenlabs openai"`
	ModelID          string        `yaml:"model_id" env:"MODEL_ID"`
	BaseURL          string        `yaml:"base_url" env:"TRANSCRIPTION_BASE_URL" validate:"omitempty,url"`
	ElevenLabsAPIKey string        `yaml:"elevenlabs_api_key" env:"ELEVENLABS_API_KEY"`
	OpenAIAPIKey     string        `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gte=0"`
	LogDir           string        `yaml:"log_dir" env:"LOG_DIR" validate:"required"`
	SessionDir       string        `yaml:"session_dir" env:"SESSION_DIR" validate:"required"`
	EmergencyDir     string        `yaml:"emergency_dir" env:"EMERGENCY_DIR" validate:"required"`
	ProgressInterval time.Duration `yaml:"progress_interval" env:"PROGRESS_INTERVAL" validate:"gte=0"`
	RetryFailed      bool          `yaml:"retry_failed" env:"RETRY_FAILED"`
	MetricsFile      string        `yaml:"metrics_file" env:"METRICS_FILE"`
	ProgressBars     bool          `yaml:"progress_bars" env:"PROGRESS_BARS"`
	Debug            bool          `yaml:"debug" env:"DEBUG"`
}

func Defaults() Settings {
	return Settings{
		InputFolder:      "./clips",
		OutputCSV:        "./call_transcriptions.csv",
		LanguageCode:     "hin",
		BatchSize:        10,
		Provider:         ProviderElevenLabs,
		LogDir:           "logs",
		SessionDir:       ".",
		EmergencyDir:     ".",
		ProgressInterval: 30 * time.Second,
	}
}

// Load builds settings from the defaults, the YAML file at configPath (when
// not empty) and the process environment. Flags are applied by the caller
// before Validate.
func Load(configPath string) (Settings, error) {
	s := Defaults()
	if configPath != "" {
		if err := s.LoadFile(configPath); err != nil {
			return s, err
		}
	}
	if err := s.ApplyEnv(env.ToMap(os.Environ())); err != nil {
		return s, err
	}
	return s, nil
}

// LoadFile overlays the keys present in the YAML file onto s.
func (s *Settings) LoadFile(configPath string) error {
	configPath = os.ExpandEnv(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.Mark(fmt.Errorf("config file not found: %s", configPath), apperrors.ErrInvalidConfig)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return apperrors.Mark(fmt.Errorf("failed to parse YAML %s: %w", configPath, err), apperrors.ErrInvalidConfig)
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (s Settings) APIKey() string {
	switch s.Provider {
	case ProviderOpenAI:
		return s.OpenAIAPIKey
	default:
		return s.ElevenLabsAPIKey
	}
}

// APIKeyVar names the environment variable holding the selected provider's
// credential.
func (s Settings) APIKeyVar() string {
	if s.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "ELEVENLABS_API_KEY"
}

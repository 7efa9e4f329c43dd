package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgRetry "github.com/futig/interview-emotion/internal/pkg/retry"
	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr    string `env:"SERVER_ADDR,notEmpty"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"ws://localhost:8080"`

	// Browser origins allowed to call the API
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// External service configurations
	PredictorConnectorCfg PredictorConnectorConfig `envPrefix:"PREDICTOR_"`
	ASRConnectorCfg       ASRConnectorConfig       `envPrefix:"ASR_"`
	CallbackConnectorCfg  CallbackConnectorConfig  `envPrefix:"CALLBACK_"`

	// Interview session behaviour
	SessionCfg SessionConfig `envPrefix:"SESSION_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// File upload configuration
	FileUploadCfg FileUploadConfig `envPrefix:"FILE_UPLOAD_"`

	// Interview questions (loaded from JSON file)
	Questions []string

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS" envDefault:"false"`

	// Environment (set from flag, not from env var)
	Environment string
}

type PredictorConnectorConfig struct {
	HTTPClientConfig
	PredictEndpoint        string `env:"PREDICT_ENDPOINT" envDefault:"/predict"`
	PredictEmotionEndpoint string `env:"PREDICT_EMOTION_ENDPOINT" envDefault:"/predict_emotion"`
}

type ASRConnectorConfig struct {
	HTTPClientConfig
	TranscribeEndpoint string               `env:"TRANSCRIBE_ENDPOINT" envDefault:"/transcribe"`
	Interval           time.Duration        `env:"INTERVAL" envDefault:"2s"`
	Retry              pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type CallbackConnectorConfig struct {
	HTTPClientConfig
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"0s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"0s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// TranscriberKind selects where speech-to-text runs
type TranscriberKind string

const (
	TranscriberBrowser TranscriberKind = "browser" // fragments pushed by the live client
	TranscriberASR     TranscriberKind = "asr"     // server-side ASR over the audio feed
)

// SessionConfig holds the recording cycle timings
type SessionConfig struct {
	CountdownFrom  int             `env:"COUNTDOWN_FROM" envDefault:"3"`
	CountdownTick  time.Duration   `env:"COUNTDOWN_TICK" envDefault:"1s"`
	ElapsedTick    time.Duration   `env:"ELAPSED_TICK" envDefault:"1s"`
	SilenceWindow  time.Duration   `env:"SILENCE_WINDOW" envDefault:"1200ms"`
	Language       string          `env:"LANGUAGE" envDefault:"en-US"`
	TTL            time.Duration   `env:"TTL" envDefault:"2h"`
	CleanupPeriod  time.Duration   `env:"CLEANUP_PERIOD" envDefault:"10m"`
	CaptureTimeout time.Duration   `env:"CAPTURE_TIMEOUT" envDefault:"30s"`
	FlushTimeout   time.Duration   `env:"FLUSH_TIMEOUT" envDefault:"5s"`
	Transcriber    TranscriberKind `env:"TRANSCRIBER" envDefault:"browser"`
}

// FileUploadConfig holds file upload limits
type FileUploadConfig struct {
	MaxAudioFileSize int64 `env:"MAX_AUDIO_FILE_SIZE" envDefault:"26214400"` // 25 MiB
	MaxUploadSize    int64 `env:"MAX_UPLOAD_SIZE" envDefault:"33554432"`     // 32 MiB
}

// questionsFile represents the structure of questions.json
type questionsFile struct {
	Questions []string `json:"questions"`
}

const questionsPath = "internal/config/questions.json"

// LoadConfig loads .env.{environment} (if present) and parses the environment
func LoadConfig(environment string) (*Config, error) {
	envFile := getEnvFile(environment)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = environment

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Load interview questions from JSON file
	if err := loadQuestions(cfg, questionsPath); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	if cfg.SessionCfg.CountdownFrom < 0 || cfg.SessionCfg.CountdownFrom > 10 {
		errors = append(errors, fmt.Sprintf("SESSION_COUNTDOWN_FROM must be between 0 and 10, got %d", cfg.SessionCfg.CountdownFrom))
	}

	if cfg.SessionCfg.CountdownTick <= 0 {
		errors = append(errors, fmt.Sprintf("SESSION_COUNTDOWN_TICK must be positive, got %s", cfg.SessionCfg.CountdownTick))
	}

	if cfg.SessionCfg.ElapsedTick <= 0 {
		errors = append(errors, fmt.Sprintf("SESSION_ELAPSED_TICK must be positive, got %s", cfg.SessionCfg.ElapsedTick))
	}

	if cfg.SessionCfg.SilenceWindow <= 0 {
		errors = append(errors, fmt.Sprintf("SESSION_SILENCE_WINDOW must be positive, got %s", cfg.SessionCfg.SilenceWindow))
	}

	switch cfg.SessionCfg.Transcriber {
	case TranscriberBrowser, TranscriberASR:
	default:
		errors = append(errors, fmt.Sprintf("SESSION_TRANSCRIBER must be one of browser, asr, got %q", cfg.SessionCfg.Transcriber))
	}

	if !cfg.EnableMocks && cfg.PredictorConnectorCfg.Url == "" {
		errors = append(errors, "PREDICTOR_SERVICE_URL is required when ENABLE_MOCKS is false")
	}

	if !cfg.EnableMocks && cfg.SessionCfg.Transcriber == TranscriberASR && cfg.ASRConnectorCfg.Url == "" {
		errors = append(errors, "ASR_SERVICE_URL is required when SESSION_TRANSCRIBER is asr")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

var defaultQuestions = []string{
	"Introduce yourself.",
	"Why are you suitable for this role?",
	"Tell me about a challenge you solved.",
}

// DefaultQuestions returns a copy of the built-in interview prompts
func DefaultQuestions() []string {
	return append([]string(nil), defaultQuestions...)
}

func loadQuestions(cfg *Config, path string) error {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("Warning: questions file not found at %s, using default questions\n", path)
		cfg.Questions = DefaultQuestions()
		return nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read questions file: %w", err)
	}

	if len(data) == 0 {
		return fmt.Errorf("questions file is empty: %s", path)
	}

	var questionsData questionsFile
	if err := json.Unmarshal(data, &questionsData); err != nil {
		return fmt.Errorf("parse questions JSON: %w", err)
	}

	if len(questionsData.Questions) == 0 {
		return fmt.Errorf("questions file contains no questions: %s", path)
	}

	cfg.Questions = questionsData.Questions

	fmt.Printf("Loaded %d questions from %s\n", len(cfg.Questions), path)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}

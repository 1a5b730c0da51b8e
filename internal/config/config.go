// Package config loads AulaBot settings from the environment (and an
// optional .env file) and validates them per run mode.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode runs the HTTP service (and the LINE webhook when configured).
	ServerMode ValidationMode = iota
	// ConsoleMode runs the terminal REPL or offline commands.
	ConsoleMode
)

func (m ValidationMode) String() string {
	switch m {
	case ServerMode:
		return "server"
	case ConsoleMode:
		return "console"
	default:
		return "unknown"
	}
}

// Learned store backends.
const (
	LearnedBackendFile   = "file"
	LearnedBackendSQLite = "sqlite"
)

// Known external model providers, in default order.
var KnownProviders = []string{"gemini", "groq", "cerebras", "openai"}

// Thresholds are the fuzzy score cutoffs used by the dispatcher.
type Thresholds struct {
	Intent  int // classifier, accepted at >=
	Learned int // learned questions, accepted at >
	General int // general.csv keywords, accepted at >
	Course  int // course names, accepted at >
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Intent: 75, Learned: 85, General: 85, Course: 80}
}

// LLMConfig configures the external model.
type LLMConfig struct {
	Providers      []string
	Timeout        time.Duration
	MaxRetries     int
	Rephrase       bool // rephrase general.csv answers through the model
	ContextDocs    int  // BM25 snippets passed with intent-routed questions
	GeminiAPIKey   string
	GroqAPIKey     string
	CerebrasAPIKey string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiModels   []string
	GroqModels     []string
	CerebrasModels []string
	OpenAIModels   []string
}

// APIKey returns the key configured for provider.
func (c LLMConfig) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return c.GeminiAPIKey
	case "groq":
		return c.GroqAPIKey
	case "cerebras":
		return c.CerebrasAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// Models returns the model list configured for provider.
func (c LLMConfig) Models(provider string) []string {
	switch provider {
	case "gemini":
		return c.GeminiModels
	case "groq":
		return c.GroqModels
	case "cerebras":
		return c.CerebrasModels
	case "openai":
		return c.OpenAIModels
	default:
		return nil
	}
}

// Enabled reports whether any listed provider has a key.
func (c LLMConfig) Enabled() bool {
	for _, p := range c.Providers {
		if c.APIKey(p) != "" {
			return true
		}
	}
	return false
}

// RateLimitConfig holds token bucket settings.
type RateLimitConfig struct {
	GlobalRPS        float64
	UserBurst        float64
	UserRefillPerSec float64
	LLMBurst         float64
	LLMRefillPerHour float64
	LLMDailyLimit    int // 0 disables the daily cap
}

// R2Config holds the learned snapshot bucket.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	SnapshotKey     string
}

// Enabled reports whether every credential is set.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

// Endpoint is the account's R2 S3 endpoint.
func (c R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// SentryConfig holds error reporting settings.
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// Config holds all application configuration.
type Config struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	IndexFile       string

	LineChannelToken  string
	LineChannelSecret string
	WebhookTimeout    time.Duration

	DataDir          string
	WatchData        bool
	IntentsFile      string
	SessionTTL       time.Duration // 0 keeps sessions forever
	LearnedBackend   string
	LearnedFile      string
	IgnoredFile      string
	IgnoredMaxSizeMB int
	IgnoredBackups   int
	SQLitePath       string

	Thresholds Thresholds
	RateLimit  RateLimitConfig
	LLM        LLMConfig
	R2         R2Config
	Sentry     SentryConfig

	BetterStackToken    string
	BetterStackEndpoint string

	MetricsUsername string
	MetricsPassword string // empty leaves /metrics open
}

// Load reads configuration for server mode.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads .env (when present) and the environment, then validates
// for mode.
func LoadForMode(mode ValidationMode) (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a Config from the current environment without validating.
func FromEnv() *Config {
	dataDir := getEnv(EnvDataDir, "./data")
	defaults := DefaultThresholds()

	return &Config{
		Port:            getEnv(EnvPort, "8000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),
		IndexFile:       getEnv(EnvIndexFile, "index.html"),

		LineChannelToken:  getEnv(EnvLineChannelAccessToken, ""),
		LineChannelSecret: getEnv(EnvLineChannelSecret, ""),
		WebhookTimeout:    getDurationEnv(EnvWebhookTimeout, WebhookProcessing),

		DataDir:          dataDir,
		WatchData:        getBoolEnv(EnvWatchData, true),
		IntentsFile:      getEnv(EnvIntentsFile, ""),
		SessionTTL:       getDurationEnv(EnvSessionTTL, 24*time.Hour),
		LearnedBackend:   strings.ToLower(getEnv(EnvLearnedBackend, LearnedBackendFile)),
		LearnedFile:      getEnv(EnvLearnedFile, filepath.Join(dataDir, "conocimiento_adquirido.json")),
		IgnoredFile:      getEnv(EnvIgnoredFile, filepath.Join(dataDir, "preguntas_ignoradas.txt")),
		IgnoredMaxSizeMB: getIntEnv(EnvIgnoredMaxSize, 10),
		IgnoredBackups:   getIntEnv(EnvIgnoredBackups, 3),
		SQLitePath:       getEnv(EnvSQLitePath, filepath.Join(dataDir, "aulabot.db")),

		Thresholds: Thresholds{
			Intent:  getIntEnv(EnvIntentThreshold, defaults.Intent),
			Learned: getIntEnv(EnvLearnedThreshold, defaults.Learned),
			General: getIntEnv(EnvGeneralThreshold, defaults.General),
			Course:  getIntEnv(EnvCourseThreshold, defaults.Course),
		},
		RateLimit: RateLimitConfig{
			GlobalRPS:        getFloatEnv(EnvGlobalRateRPS, 100),
			UserBurst:        getFloatEnv(EnvUserRateBurst, 15),
			UserRefillPerSec: getFloatEnv(EnvUserRateRefill, 0.5),
			LLMBurst:         getFloatEnv(EnvLLMRateBurst, 10),
			LLMRefillPerHour: getFloatEnv(EnvLLMRateRefill, 20),
			LLMDailyLimit:    getIntEnv(EnvLLMRateDaily, 100),
		},
		LLM: LLMConfig{
			Providers:      lowerAll(getListEnv(EnvLLMProviders, KnownProviders)),
			Timeout:        getDurationEnv(EnvLLMTimeout, LLMRequest),
			MaxRetries:     getIntEnv(EnvLLMMaxRetries, 2),
			Rephrase:       getBoolEnv(EnvLLMRephrase, false),
			ContextDocs:    getIntEnv(EnvLLMContextDocs, 3),
			GeminiAPIKey:   getEnv(EnvGeminiAPIKey, ""),
			GroqAPIKey:     getEnv(EnvGroqAPIKey, ""),
			CerebrasAPIKey: getEnv(EnvCerebrasAPIKey, ""),
			OpenAIAPIKey:   getEnv(EnvOpenAIAPIKey, ""),
			OpenAIBaseURL:  getEnv(EnvOpenAIBaseURL, ""),
			GeminiModels:   getListEnv(EnvGeminiModels, nil),
			GroqModels:     getListEnv(EnvGroqModels, nil),
			CerebrasModels: getListEnv(EnvCerebrasModels, nil),
			OpenAIModels:   getListEnv(EnvOpenAIModels, nil),
		},
		R2: R2Config{
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, ""),
		},
		Sentry: SentryConfig{
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0),
		},

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}
}

// Validate checks the settings every mode needs.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", EnvSessionTTL, c.SessionTTL))
	}
	switch c.LearnedBackend {
	case LearnedBackendFile:
		if c.LearnedFile == "" {
			errs = append(errs, fmt.Errorf("%s is required for the file backend", EnvLearnedFile))
		}
	case LearnedBackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%s is required for the sqlite backend", EnvSQLitePath))
		}
	default:
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q",
			EnvLearnedBackend, LearnedBackendFile, LearnedBackendSQLite, c.LearnedBackend))
	}

	for name, v := range map[string]int{
		EnvIntentThreshold:  c.Thresholds.Intent,
		EnvLearnedThreshold: c.Thresholds.Learned,
		EnvGeneralThreshold: c.Thresholds.General,
		EnvCourseThreshold:  c.Thresholds.Course,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Errorf("%s must be within [0,100], got %d", name, v))
		}
	}

	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvLLMTimeout, c.LLM.Timeout))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvLLMMaxRetries, c.LLM.MaxRetries))
	}
	for _, p := range c.LLM.Providers {
		if !isKnownProvider(p) {
			errs = append(errs, fmt.Errorf("%s: unknown provider %q", EnvLLMProviders, p))
		}
	}

	if c.RateLimit.LLMBurst < 0 || c.RateLimit.LLMRefillPerHour < 0 || c.RateLimit.LLMDailyLimit < 0 {
		errs = append(errs, errors.New("LLM rate limits cannot be negative"))
	}

	return errors.Join(errs...)
}

// ValidateForMode checks Validate plus the mode-specific settings.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	errs := []error{c.Validate()}

	if mode == ServerMode {
		if c.Port == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvPort))
		} else if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
			errs = append(errs, fmt.Errorf("%s must be a TCP port, got %q", EnvPort, c.Port))
		}
		if (c.LineChannelToken == "") != (c.LineChannelSecret == "") {
			errs = append(errs, fmt.Errorf("%s and %s must be set together",
				EnvLineChannelAccessToken, EnvLineChannelSecret))
		}
		if c.ShutdownTimeout <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
		}
		if c.RateLimit.UserBurst <= 0 || c.RateLimit.UserRefillPerSec <= 0 {
			errs = append(errs, errors.New("user rate limit burst and refill must be positive"))
		}
	}

	return errors.Join(errs...)
}

// LINEEnabled reports whether the webhook should be mounted.
func (c *Config) LINEEnabled() bool {
	return c.LineChannelToken != "" && c.LineChannelSecret != ""
}

func isKnownProvider(p string) bool {
	return slices.Contains(KnownProviders, p)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated value, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

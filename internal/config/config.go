// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// LLM settings
	AnthropicAPIKey       string
	OpenAIAPIKey          string
	GeminiAPIKey          string
	DefaultGeneratorModel string
	DefaultEvaluatorModel string
	MaxTokens             int
	LLMTimeout            time.Duration

	// Data files
	CriteriaPath      string
	SampleInputsPath  string
	PromptPath        string
	ConversationsPath string
	RubricPath        string
	SnippetsPath      string

	// Storage
	StoreBackend string // file, memory or nats
	DataDir      string

	// NATS settings (StoreBackend=nats)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Rate limiting
	RateLimitRequests    int
	RunRateLimitRequests int
	RateLimitWindow      time.Duration

	// Logging
	Env      string // "development" switches to console output
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// LLM
		AnthropicAPIKey:       getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		DefaultGeneratorModel: getEnv("GENERATOR_MODEL", "claude-3-5-haiku-20241022"),
		DefaultEvaluatorModel: getEnv("EVALUATOR_MODEL", "claude-sonnet-4-20250514"),
		MaxTokens:             getIntEnv("LLM_MAX_TOKENS", 512),
		LLMTimeout:            getDurationEnv("LLM_TIMEOUT", 90*time.Second),

		// Data files
		CriteriaPath:      getEnv("CRITERIA_PATH", "public/criteria.json"),
		SampleInputsPath:  getEnv("SAMPLE_INPUTS_PATH", "public/sample-inputs.json"),
		PromptPath:        getEnv("PROMPT_PATH", "prompt.md"),
		ConversationsPath: getEnv("CONVERSATIONS_PATH", "public/representative-sample.csv"),
		RubricPath:        getEnv("RUBRIC_PATH", ""),
		SnippetsPath:      getEnv("SNIPPETS_PATH", "public/conversations.csv"),

		// Storage
		StoreBackend: getEnv("STORE_BACKEND", "file"),
		DataDir:      getEnv("DATA_DIR", "data"),

		// NATS
		NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Rate limiting
		RateLimitRequests:    getIntEnv("RATE_LIMIT_REQUESTS", 120),
		RunRateLimitRequests: getIntEnv("RUN_RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:      getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		Env:      getEnv("ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

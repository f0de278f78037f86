package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server        ServerConfig
	Scoring       ScoringConfig
	Transcription TranscriptionConfig
	Explain       ExplainConfig
	Session       SessionConfig
	CORS          CORSConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	transcription, err := loadTranscriptionConfig()
	if err != nil {
		return nil, err
	}

	explain, err := loadExplainConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:        server,
		Scoring:       loadScoringConfig(),
		Transcription: transcription,
		Explain:       explain,
		Session:       session,
		CORS:          loadCORSConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// Accept ":5000" or "127.0.0.1:5000" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ScoringConfig points at the service hosting the trained classifier.
type ScoringConfig struct {
	URL    string
	APIKey string
}

func (c ScoringConfig) Enabled() bool {
	return c.URL != ""
}

func loadScoringConfig() ScoringConfig {
	return ScoringConfig{
		URL:    strings.TrimSpace(os.Getenv("SCORING_URL")),
		APIKey: strings.TrimSpace(os.Getenv("SCORING_API_KEY")),
	}
}

// TranscriptionConfig holds the Deepgram credentials and timeout.
type TranscriptionConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func (c TranscriptionConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadTranscriptionConfig() (TranscriptionConfig, error) {
	timeout, err := parseOptionalIntEnv("TRANSCRIBE_TIMEOUT")
	if err != nil {
		return TranscriptionConfig{}, err
	}
	timeoutSeconds := 30
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	return TranscriptionConfig{
		APIKey:  strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
		BaseURL: getEnvOrDefault("DEEPGRAM_BASE_URL", ""),
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// ExplainConfig selects and configures the explanation provider.
type ExplainConfig struct {
	Provider     string
	GeminiAPIKey string
	GeminiModel  string
	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string
	Temperature  *float64
	MaxTokens    *int
}

// Enabled reports whether the selected provider has usable credentials.
func (c ExplainConfig) Enabled() bool {
	switch c.Provider {
	case "ark":
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return c.GeminiAPIKey != ""
	}
}

// NewArkChatModel creates the eino chat model for the ark provider.
func (c ExplainConfig) NewArkChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != "ark" || !c.Enabled() {
		return nil, fmt.Errorf("ark provider not configured: need ARK_MODEL plus ARK_API_KEY or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadExplainConfig() (ExplainConfig, error) {
	temperature, err := parseOptionalFloatEnv("EXPLAIN_TEMPERATURE")
	if err != nil {
		return ExplainConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("EXPLAIN_MAX_TOKENS")
	if err != nil {
		return ExplainConfig{}, err
	}

	provider := strings.ToLower(getEnvOrDefault("EXPLAIN_PROVIDER", "gemini"))
	if provider != "gemini" && provider != "ark" {
		return ExplainConfig{}, fmt.Errorf("invalid EXPLAIN_PROVIDER value: %q", provider)
	}

	return ExplainConfig{
		Provider:     provider,
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", ""),
		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	}, nil
}

// SessionConfig bounds the lifetime of idle session buffers.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	ttlMinutes, err := parseOptionalIntEnv("SESSION_TTL_MINUTES")
	if err != nil {
		return SessionConfig{}, err
	}
	ttl := 30
	if ttlMinutes != nil && *ttlMinutes > 0 {
		ttl = *ttlMinutes
	}

	sweepSeconds, err := parseOptionalIntEnv("SESSION_SWEEP_SECONDS")
	if err != nil {
		return SessionConfig{}, err
	}
	sweep := 60
	if sweepSeconds != nil && *sweepSeconds > 0 {
		sweep = *sweepSeconds
	}

	return SessionConfig{
		TTL:           time.Duration(ttl) * time.Minute,
		SweepInterval: time.Duration(sweep) * time.Second,
	}, nil
}

// CORSConfig lists the origins permitted to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// AllowsAll reports whether any origin may call the API.
func (c CORSConfig) AllowsAll() bool {
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func loadCORSConfig() CORSConfig {
	raw := getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*")

	origins := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return CORSConfig{AllowedOrigins: origins}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

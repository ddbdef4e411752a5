// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	LLM     LLMConfig
	Storage StorageConfig
	Browser BrowserConfig
	Server  ServerConfig
}

// LLMConfig holds LLM provider configuration. Nil sampling fields mean
// the provider default applies.
type LLMConfig struct {
	Provider         string
	Model            string
	MaxTokens        uint32
	Temperature      *float32
	TopP             *float32
	FrequencyPenalty *float32
}

// StorageConfig holds payload storage configuration.
type StorageConfig struct {
	// Backend selects "minio" (S3-compatible object storage) or "fs"
	// (local directory served by this process).
	Backend string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// FSDir and FSBaseURL configure the fs backend.
	FSDir     string
	FSBaseURL string

	// LedgerPath is the SQLite upload ledger; empty disables auditing.
	LedgerPath string
}

// BrowserConfig holds the browser service connection.
type BrowserConfig struct {
	// ServiceURL is the websocket endpoint of the headless-browser
	// service.
	ServiceURL string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr      string
	RateRPS   float64
	RateBurst int
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "gpt-4o", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// New creates settings for the specified provider, loading values from environment variables.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat32Ptr("LLM_TEMPERATURE")
	if err != nil {
		return Settings{}, err
	}
	topP, err := getEnvFloat32Ptr("LLM_TOP_P")
	if err != nil {
		return Settings{}, err
	}
	frequencyPenalty, err := getEnvFloat32Ptr("LLM_FREQUENCY_PENALTY")
	if err != nil {
		return Settings{}, err
	}

	rateRPS, err := getEnvFloat64("SERVER_RATE_RPS", 5)
	if err != nil {
		return Settings{}, err
	}
	rateBurst, err := getEnvInt("SERVER_RATE_BURST", 10)
	if err != nil {
		return Settings{}, err
	}

	backend := strings.ToLower(getEnv("STORAGE_BACKEND", "fs"))
	if backend != "fs" && backend != "minio" {
		return Settings{}, fmt.Errorf("invalid STORAGE_BACKEND: %q (want fs or minio)", backend)
	}

	// Get model from environment or use default
	model := os.Getenv(info.modelEnv)
	if model == "" {
		model = info.defaultModel
	}

	return Settings{
		LLM: LLMConfig{
			Provider:         provider,
			Model:            model,
			MaxTokens:        maxTokens,
			Temperature:      temperature,
			TopP:             topP,
			FrequencyPenalty: frequencyPenalty,
		},
		Storage: StorageConfig{
			Backend:        backend,
			MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinioBucket:    getEnv("MINIO_BUCKET", "webpilot"),
			MinioUseSSL:    getEnv("MINIO_USE_SSL", "false") == "true",
			FSDir:          getEnv("STORAGE_FS_DIR", "data/uploads"),
			FSBaseURL:      getEnv("STORAGE_FS_BASE_URL", "http://localhost:8080/files"),
			LedgerPath:     getEnv("STORAGE_LEDGER_PATH", "data/uploads.db"),
		},
		Browser: BrowserConfig{
			ServiceURL: getEnv("BROWSER_SERVICE_URL", "ws://localhost:9222/rpc"),
		},
		Server: ServerConfig{
			Addr:      getEnv("SERVER_ADDR", ":8080"),
			RateRPS:   rateRPS,
			RateBurst: rateBurst,
		},
	}, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

// getEnvFloat32Ptr returns nil when the variable is unset, so providers
// can keep their own defaults.
func getEnvFloat32Ptr(key string) (*float32, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	f32 := float32(f)
	return &f32, nil
}

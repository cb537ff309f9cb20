// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mietrecht-backend/repository"
	"mietrecht-backend/storage"
)

// Chat provider names accepted by CHAT_PROVIDER
const (
	ChatProviderOpenAI    = "openai"
	ChatProviderAnthropic = "anthropic"
)

// Config is the typed process configuration
type Config struct {
	Port   string
	AppEnv string

	Store   repository.Config
	Storage storage.Config

	OpenAIKey      string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string
	ChatProvider   string
	GeminiKey      string
	GeminiModel    string
	AITimeout      time.Duration

	StripeSecretKey    string
	WebhookSecret      string
	WebhookTolerance   time.Duration
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	CheckoutCurrency   string

	RedisURL      string
	DashboardAuth bool
	CORSOrigins   []string
}

// LoadDotEnv loads .env from the working directory, then from the project
// root relative to cmd/<binary>/. Variables already set in the process win.
func LoadDotEnv() bool {
	if err := godotenv.Load(); err == nil {
		return true
	}
	return godotenv.Load("../../.env") == nil
}

// Load reads and validates the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "production"),
		Store: repository.Config{
			Driver:      repository.Driver(strings.ToLower(getEnv("STORE_DRIVER", string(repository.DriverSQLite)))),
			SQLitePath:  getEnv("SQLITE_PATH", "juris_mind.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Storage: storage.Config{
			Type:         storage.StorageType(strings.ToLower(getEnv("STORAGE_TYPE", string(storage.StorageTypeLocal)))),
			LocalPath:    os.Getenv("LOCAL_STORAGE_PATH"),
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o"),
		AnthropicKey:       os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     os.Getenv("ANTHROPIC_MODEL"),
		ChatProvider:       strings.ToLower(os.Getenv("CHAT_PROVIDER")),
		GeminiKey:          getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		StripeSecretKey:    os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret:      os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutSuccessURL: os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:  os.Getenv("CHECKOUT_CANCEL_URL"),
		CheckoutCurrency:   strings.ToLower(getEnv("CHECKOUT_CURRENCY", "eur")),
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSOrigins:        splitList(os.Getenv("CORS_ORIGINS")),
	}

	var err error
	if cfg.AITimeout, err = getDuration("AI_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.AITimeout <= 0 {
		return nil, fmt.Errorf("AI_TIMEOUT must be positive, got %s", cfg.AITimeout)
	}
	if cfg.WebhookTolerance, err = getDuration("WEBHOOK_TOLERANCE", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DashboardAuth, err = getBool("DASHBOARD_AUTH", !cfg.Development()); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case repository.DriverSQLite:
	case repository.DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=%s", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Storage.Type {
	case storage.StorageTypeLocal:
	case storage.StorageTypeS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("AWS_S3_BUCKET is required when STORAGE_TYPE=s3")
		}
	default:
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}

	switch c.ChatProvider {
	case "", ChatProviderOpenAI, ChatProviderAnthropic:
	default:
		return fmt.Errorf("unknown CHAT_PROVIDER %q", c.ChatProvider)
	}
	return nil
}

// Development reports whether APP_ENV selects development logging
func (c *Config) Development() bool {
	return c.AppEnv == "development"
}

// SelectedChatProvider resolves CHAT_PROVIDER against the configured keys.
// Without an explicit choice OpenAI wins over Anthropic. Empty means none.
func (c *Config) SelectedChatProvider() string {
	switch c.ChatProvider {
	case ChatProviderOpenAI:
		if c.OpenAIKey != "" {
			return ChatProviderOpenAI
		}
	case ChatProviderAnthropic:
		if c.AnthropicKey != "" {
			return ChatProviderAnthropic
		}
	default:
		if c.OpenAIKey != "" {
			return ChatProviderOpenAI
		}
		if c.AnthropicKey != "" {
			return ChatProviderAnthropic
		}
	}
	return ""
}

// CheckoutEnabled reports whether checkout sessions can be created
func (c *Config) CheckoutEnabled() bool {
	return c.StripeSecretKey != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	// plain integers are seconds
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: want a duration like 60s", key, v)
	}
	return time.Duration(n) * time.Second, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/cloo-solutions/podquery/internal/domain"
)

// Model providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Keys read from the credentials file
const (
	fileAnthropicKey    = "ANTHROPIC_API_KEY"
	fileOpenAIKey       = "OPENAI_API_KEY"
	filePodcastIndexKey = "PODCAST_INDEX_API_KEY"
	filePodcastSecret   = "PODCAST_INDEX_API_SECRET"
)

// Config is read from PODQUERY_-prefixed variables. Only the credentials
// also accept their bare names (see bareCredentials).
type Config struct {
	Port        string `envconfig:"PODQUERY_PORT" default:"8080"`
	Debug       bool   `envconfig:"PODQUERY_DEBUG" default:"false"`
	Environment string `envconfig:"PODQUERY_ENVIRONMENT" default:"development"`

	ModelProvider    string `envconfig:"PODQUERY_MODEL_PROVIDER" default:"anthropic"`
	Model            string `envconfig:"PODQUERY_MODEL" default:"claude-haiku-4-5-20251001"`
	MaxReplyTokens   int    `envconfig:"PODQUERY_MAX_REPLY_TOKENS" default:"256"`
	AnthropicAPIKey  string `envconfig:"PODQUERY_ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `envconfig:"PODQUERY_ANTHROPIC_BASE_URL" default:"https://api.anthropic.com"`
	AnthropicVersion string `envconfig:"PODQUERY_ANTHROPIC_VERSION" default:"2023-06-01"`

	OpenAIAPIKey  string `envconfig:"PODQUERY_OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"PODQUERY_OPENAI_BASE_URL"`
	OpenAIModel   string `envconfig:"PODQUERY_OPENAI_MODEL" default:"gpt-4o-mini"`

	PodcastIndexAPIKey    string `envconfig:"PODQUERY_PODCASTINDEX_API_KEY"`
	PodcastIndexAPISecret string `envconfig:"PODQUERY_PODCASTINDEX_API_SECRET"`
	PodcastIndexBaseURL   string `envconfig:"PODQUERY_PODCASTINDEX_BASE_URL" default:"https://api.podcastindex.org/api/1.0"`
	UserAgent             string `envconfig:"PODQUERY_USER_AGENT" default:"PodcastApp/1.0"`

	RequestTimeout  time.Duration `envconfig:"PODQUERY_REQUEST_TIMEOUT" default:"30s"`
	MaxResults      int           `envconfig:"PODQUERY_MAX_RESULTS" default:"20"`
	CredentialsFile string        `envconfig:"PODQUERY_CREDENTIALS_FILE" default:"gradle.properties"`

	SentryDSN string `envconfig:"PODQUERY_SENTRY_DSN"`

	S3Endpoint  string `envconfig:"PODQUERY_S3_ENDPOINT"`
	S3AccessKey string `envconfig:"PODQUERY_S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"PODQUERY_S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"PODQUERY_S3_BUCKET" default:"podquery-reports"`
	S3Region    string `envconfig:"PODQUERY_S3_REGION" default:"us-east-1"`
}

// bareCredentials are the unprefixed credential variables
type bareCredentials struct {
	AnthropicAPIKey       string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey          string `envconfig:"OPENAI_API_KEY"`
	PodcastIndexAPIKey    string `envconfig:"PODCASTINDEX_API_KEY"`
	PodcastIndexAPISecret string `envconfig:"PODCASTINDEX_API_SECRET"`
}

// Load reads .env and the PODQUERY_ environment, then fills still-empty
// credentials from their bare names and finally from the credentials file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	var bare bareCredentials
	if err := envconfig.Process("", &bare); err != nil {
		return nil, fmt.Errorf("failed to process credentials: %w", err)
	}
	fillEmpty(&cfg.AnthropicAPIKey, bare.AnthropicAPIKey)
	fillEmpty(&cfg.OpenAIAPIKey, bare.OpenAIAPIKey)
	fillEmpty(&cfg.PodcastIndexAPIKey, bare.PodcastIndexAPIKey)
	fillEmpty(&cfg.PodcastIndexAPISecret, bare.PodcastIndexAPISecret)

	if err := cfg.loadCredentialsFile(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fillEmpty(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// loadCredentialsFile fills empty credentials from KEY=value lines.
// Environment values always win; a missing file is not an error.
func (c *Config) loadCredentialsFile() error {
	if c.CredentialsFile == "" || c.hasAllCredentials() {
		return nil
	}

	values, err := godotenv.Read(c.CredentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return domain.NewStageErrorWithCause(domain.StageConfig, domain.KindConfiguration,
			fmt.Sprintf("failed to read credentials file %s", c.CredentialsFile), err)
	}

	fillEmpty(&c.AnthropicAPIKey, values[fileAnthropicKey])
	fillEmpty(&c.OpenAIAPIKey, values[fileOpenAIKey])
	fillEmpty(&c.PodcastIndexAPIKey, values[filePodcastIndexKey])
	fillEmpty(&c.PodcastIndexAPISecret, values[filePodcastSecret])
	return nil
}

func (c *Config) hasAllCredentials() bool {
	return c.AnthropicAPIKey != "" && c.OpenAIAPIKey != "" &&
		c.PodcastIndexAPIKey != "" && c.PodcastIndexAPISecret != ""
}

// RequireModel checks that the selected model provider has credentials
func (c *Config) RequireModel() error {
	switch c.ModelProvider {
	case ProviderAnthropic, "":
		if c.AnthropicAPIKey == "" {
			return missing("ANTHROPIC_API_KEY")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return missing("OPENAI_API_KEY")
		}
	default:
		return domain.NewStageError(domain.StageConfig, domain.KindConfiguration,
			fmt.Sprintf("unknown model provider %q", c.ModelProvider))
	}
	return nil
}

// RequireSearch checks that PodcastIndex credentials are present
func (c *Config) RequireSearch() error {
	if c.PodcastIndexAPIKey == "" {
		return missing("PODCASTINDEX_API_KEY")
	}
	if c.PodcastIndexAPISecret == "" {
		return missing("PODCASTINDEX_API_SECRET")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) HasSearch() bool {
	return c.RequireSearch() == nil
}

func missing(name string) error {
	return domain.NewStageError(domain.StageConfig, domain.KindConfiguration, name+" is not set")
}

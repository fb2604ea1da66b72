package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

/* Config é um pacote auxiliar. Poderia ser uma lib externa
 * Values come from a .env file (TOML) and are overridden by the environment
 */

type Config struct {
	Port     string `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`

	StoreDriver string `mapstructure:"STORE_DRIVER" validate:"oneof=postgres redis memory"`

	DatabaseURL                string `mapstructure:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`
	PostgresMaxOpenConns       int    `mapstructure:"POSTGRES_MAX_OPEN_CONNS" validate:"min=1"`
	PostgresMaxIdleConns       int    `mapstructure:"POSTGRES_MAX_IDLE_CONNS" validate:"min=0,ltefield=PostgresMaxOpenConns"`
	PostgresConnMaxLifeMinutes int    `mapstructure:"POSTGRES_CONN_MAX_LIFE_MINUTES" validate:"min=1"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"required_if=StoreDriver redis"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB" validate:"min=0"`

	CursorSecret    string `mapstructure:"CURSOR_SECRET" validate:"omitempty,min=16"`
	DefaultPageSize int    `mapstructure:"DEFAULT_PAGE_SIZE" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int    `mapstructure:"MAX_PAGE_SIZE" validate:"min=1"`

	CaptureMaxBodyBytes int64 `mapstructure:"CAPTURE_MAX_BODY_BYTES" validate:"min=1"`
	CaptureStatusCode   int   `mapstructure:"CAPTURE_STATUS_CODE" validate:"min=200,max=599"`
	CaptureTrustProxy   bool  `mapstructure:"CAPTURE_TRUST_PROXY"`

	SynthBaseURL          string        `mapstructure:"SYNTH_BASE_URL" validate:"omitempty,url"`
	SynthAPIKey           string        `mapstructure:"SYNTH_API_KEY"`
	SynthModel            string        `mapstructure:"SYNTH_MODEL"`
	SynthTimeout          time.Duration `mapstructure:"SYNTH_TIMEOUT" validate:"gt=0"`
	SynthRetryDelay       time.Duration `mapstructure:"SYNTH_RETRY_DELAY" validate:"min=0"`
	SynthMaxConcurrent    int64         `mapstructure:"SYNTH_MAX_CONCURRENT" validate:"min=1"`
	SynthMaxSelection     int           `mapstructure:"SYNTH_MAX_SELECTION" validate:"min=1"`
	SynthMaxPromptSamples int           `mapstructure:"SYNTH_MAX_PROMPT_SAMPLES" validate:"min=1"`
	SynthMaxSampleBytes   int           `mapstructure:"SYNTH_MAX_SAMPLE_BYTES" validate:"min=1"`
	SynthRedactHeaders    []string      `mapstructure:"SYNTH_REDACT_HEADERS"`

	TemplatesFile   string `mapstructure:"TEMPLATES_FILE"`
	DefaultLanguage string `mapstructure:"DEFAULT_LANGUAGE"`
}

var defaults = map[string]any{
	"PORT":                           "8080",
	"LOG_LEVEL":                      "info",
	"STORE_DRIVER":                   "postgres",
	"DATABASE_URL":                   "",
	"POSTGRES_MAX_OPEN_CONNS":        25,
	"POSTGRES_MAX_IDLE_CONNS":        5,
	"POSTGRES_CONN_MAX_LIFE_MINUTES": 30,
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"CURSOR_SECRET":                  "",
	"DEFAULT_PAGE_SIZE":              20,
	"MAX_PAGE_SIZE":                  100,
	"CAPTURE_MAX_BODY_BYTES":         1 << 20,
	"CAPTURE_STATUS_CODE":            200,
	"CAPTURE_TRUST_PROXY":            false,
	"SYNTH_BASE_URL":                 "https://api.openai.com/v1",
	"SYNTH_API_KEY":                  "",
	"SYNTH_MODEL":                    "gpt-4o-mini",
	"SYNTH_TIMEOUT":                  "30s",
	"SYNTH_RETRY_DELAY":              "500ms",
	"SYNTH_MAX_CONCURRENT":           4,
	"SYNTH_MAX_SELECTION":            50,
	"SYNTH_MAX_PROMPT_SAMPLES":       5,
	"SYNTH_MAX_SAMPLE_BYTES":         4096,
	"SYNTH_REDACT_HEADERS":           []string{"authorization", "proxy-authorization", "cookie", "set-cookie", "x-api-key"},
	"TEMPLATES_FILE":                 "",
	"DEFAULT_LANGUAGE":               "",
}

// GetConfig reads .env from the working directory, when present, and the environment
func GetConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	return Load(v)
}

// Load reads configuration through v; a missing config file is not an error
func Load(v *viper.Viper) (*Config, error) {
	// every key needs a default for AutomaticEnv to reach Unmarshal
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &config, nil
}

// PostgresConnMaxLifetime returns the pool connection lifetime
func (c *Config) PostgresConnMaxLifetime() time.Duration {
	return time.Duration(c.PostgresConnMaxLifeMinutes) * time.Minute
}

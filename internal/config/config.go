package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds runtime configuration read from the environment. Test content
// (names, quotas, output paths) lives in per-test JSON files instead, see
// testconfig.go.
type App struct {
	Name string `env:"APP_NAME" envDefault:"test-platform"`
	Env  string `env:"APP_ENV" envDefault:"development"`

	Generator Generator
	Google    Google
	SMTP      SMTP
	OpenAI    OpenAI
}

// Generator groups defaults for the variant generator.
type Generator struct {
	PoolRoot string `env:"QA_POOL_DIR" envDefault:"QAPool"`
	Seed     int64  `env:"GENERATOR_SEED" envDefault:"0"`
}

// Google configures the Apps Script deployer.
type Google struct {
	CredentialsFile string        `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	ScriptAPIBase   string        `env:"SCRIPT_API_BASE" envDefault:"https://script.googleapis.com"`
	HTTPTimeout     time.Duration `env:"SCRIPT_HTTP_TIMEOUT" envDefault:"30s"`
}

// SMTP holds email server configuration for the notifier.
type SMTP struct {
	Host      string `env:"SMTP_HOST"`
	Port      int    `env:"SMTP_PORT" envDefault:"587"`
	Username  string `env:"SMTP_USERNAME"`
	Password  string `env:"SMTP_PASSWORD"`
	FromEmail string `env:"SMTP_FROM_EMAIL"`
}

// OpenAI configures the redundancy analyzer endpoint.
type OpenAI struct {
	APIKey      string        `env:"OPENAI_API_KEY"`
	BaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-4.1"`
	HTTPTimeout time.Duration `env:"OPENAI_HTTP_TIMEOUT" envDefault:"90s"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

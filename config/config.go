package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken    string        `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	TelegramEndpoint string        `env:"TELEGRAM_API_ENDPOINT" envDefault:"https://api.telegram.org/bot%s/%s"`
	BackendBaseURL   string        `env:"BACKEND_BASE_URL,required,notEmpty"`
	WebhookSecret    string        `env:"WEBHOOK_SECRET_TOKEN"`
	Language         string        `env:"BOT_LANGUAGE" envDefault:"uk"`
	Timezone         string        `env:"BOT_TIMEZONE" envDefault:"Local"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	SendRate         float64       `env:"SEND_RATE_PER_SECOND" envDefault:"25"`
	MaxConcurrent    int           `env:"MAX_CONCURRENT_DISPATCHES" envDefault:"16"`
	PollTimeout      time.Duration `env:"POLL_TIMEOUT" envDefault:"60s"`
	Debug            bool          `env:"DEBUG"`
}

// Runner is the configuration of the local functions framework runner.
type Runner struct {
	Port string `env:"PORT" envDefault:"8082"`
}

// LoadRunner reads the runner configuration the same way Load does.
func LoadRunner() (Runner, error) {
	_ = godotenv.Load()
	return parseRunner(env.Options{})
}

func parseRunner(opts env.Options) (Runner, error) {
	var r Runner
	if err := env.ParseWithOptions(&r, opts); err != nil {
		return Runner{}, err
	}
	return r, nil
}

// Load reads the configuration from the environment, after applying an
// optional .env file from the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SendRate <= 0 {
		return fmt.Errorf("SEND_RATE_PER_SECOND must be positive, got %v", c.SendRate)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_DISPATCHES must be positive, got %d", c.MaxConcurrent)
	}
	if c.PollTimeout < time.Second {
		return fmt.Errorf("POLL_TIMEOUT must be at least 1s, got %s", c.PollTimeout)
	}
	if !strings.Contains(c.TelegramEndpoint, "%s") {
		return fmt.Errorf("TELEGRAM_API_ENDPOINT must contain the token and method placeholders, got %q", c.TelegramEndpoint)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("BOT_TIMEZONE: %w", err)
	}
	return nil
}

// Location is the time zone "today" is computed in.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c Config) LogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	DatabaseURL    string   `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
	ClinicTimezone string   `mapstructure:"CLINIC_TIMEZONE"`

	TelegramBotToken       string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID         int64  `mapstructure:"TELEGRAM_CHAT_ID"`
	TelegramTimeoutSeconds int    `mapstructure:"TELEGRAM_TIMEOUT_SECONDS"`

	GoogleSAEmail      string `mapstructure:"GOOGLE_SA_EMAIL"`
	GoogleSAPrivateKey string `mapstructure:"GOOGLE_SA_PRIVATE_KEY"`
	GoogleCalendarID   string `mapstructure:"GOOGLE_CALENDAR_ID"`
	GoogleSheetID      string `mapstructure:"GOOGLE_SHEET_ID"`

	AssistantAPIKey  string `mapstructure:"ASSISTANT_API_KEY"`
	AssistantModel   string `mapstructure:"ASSISTANT_MODEL"`
	AssistantBaseURL string `mapstructure:"ASSISTANT_BASE_URL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("TELEGRAM_TIMEOUT_SECONDS", 10)
	v.SetDefault("ASSISTANT_MODEL", "gpt-4o-mini")
	v.SetDefault("ASSISTANT_BASE_URL", "https://api.openai.com/v1")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"JWT_SECRET", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"CLINIC_TIMEZONE",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_TIMEOUT_SECONDS",
		"GOOGLE_SA_EMAIL", "GOOGLE_SA_PRIVATE_KEY", "GOOGLE_CALENDAR_ID",
		"GOOGLE_SHEET_ID",
		"ASSISTANT_API_KEY", "ASSISTANT_MODEL", "ASSISTANT_BASE_URL",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: authentication is bypassed; do not use in production.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TelegramTimeout returns the timeout applied to outbound Telegram calls.
func (c *Config) TelegramTimeout() time.Duration {
	if c.TelegramTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TelegramTimeoutSeconds) * time.Second
}

// TelegramEnabled reports whether the Telegram integration is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// CalendarEnabled reports whether the Google Calendar integration is configured.
func (c *Config) CalendarEnabled() bool {
	return c.GoogleSAEmail != "" && c.GoogleSAPrivateKey != "" && c.GoogleCalendarID != ""
}

// SheetsEnabled reports whether the Google Sheets integration is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSAEmail != "" && c.GoogleSAPrivateKey != "" && c.GoogleSheetID != ""
}

// AssistantEnabled reports whether the LLM assistant is configured.
func (c *Config) AssistantEnabled() bool {
	return c.AssistantAPIKey != ""
}

// Validate checks that the configuration is safe to run. Outside development
// mode JWT_SECRET must be set so that real authentication is enforced.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q; refusing to start without authentication", c.Env)
	}
	if !c.IsDev() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes, got %d", len(c.JWTSecret))
	}
	if _, err := time.LoadLocation(c.ClinicTimezone); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE %q is not a valid IANA timezone: %w", c.ClinicTimezone, err)
	}
	if c.GoogleSAPrivateKey != "" && !strings.Contains(c.GoogleSAPrivateKey, "PRIVATE KEY") {
		return fmt.Errorf("GOOGLE_SA_PRIVATE_KEY does not look like a PEM private key")
	}
	return nil
}

// Location returns the clinic's IANA timezone. Validate must have succeeded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

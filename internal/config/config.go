package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"
)

// Config holds all settings consumed by the chanstats commands. Values come
// from environment variables, optionally seeded from a .env file.
type Config struct {
	// Microsoft Graph application credentials.
	TenantID     string `env:"TENANT_ID"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`

	// SMTP submission settings for the report mail.
	SMTPServer   string `env:"SMTP_SERVER"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	MailUsername string `env:"USERNAME_MAIL"`
	MailPassword string `env:"PASSWORD_MAIL"`
	MailToStr    string `env:"MAIL_SEND_TOO"`
	MailCcStr    string `env:"MAIL_CCC"`

	// Tool settings.
	OutputDir       string        `env:"OUTPUT_DIR,default=."`
	TargetTeamsFile string        `env:"TARGET_TEAMS_FILE,default=targets.yaml"`
	TargetTeamsStr  string        `env:"TARGET_TEAMS"`
	MaxRetries      int           `env:"GRAPH_MAX_RETRIES,default=3"`
	RequestsPerSec  int           `env:"GRAPH_REQUESTS_PER_SECOND,default=4"`
	HTTPTimeout     time.Duration `env:"GRAPH_HTTP_TIMEOUT,default=30s"`

	// Derived fields, populated by Load.
	MailTo      []string
	MailCc      []string
	TargetTeams []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.MailTo = splitList(cfg.MailToStr)
	cfg.MailCc = splitList(cfg.MailCcStr)
	cfg.TargetTeams = splitList(cfg.TargetTeamsStr)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// validateConfig checks required values and clamps tunables to safe ranges.
func validateConfig(cfg *Config) error {
	if cfg.TenantID == "" {
		return fmt.Errorf("TENANT_ID is required")
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("CLIENT_ID is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("CLIENT_SECRET is required")
	}

	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.MaxRetries > 10 {
		cfg.MaxRetries = 10
	}
	if cfg.RequestsPerSec < 1 {
		cfg.RequestsPerSec = 1
	}
	if cfg.RequestsPerSec > 50 {
		cfg.RequestsPerSec = 50
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	return nil
}

// ValidateMail checks the settings needed to send the report mail. It is a
// separate step so dry runs work without any SMTP configuration.
func (c *Config) ValidateMail() error {
	if c.SMTPServer == "" {
		return fmt.Errorf("SMTP_SERVER is required")
	}
	if c.MailUsername == "" {
		return fmt.Errorf("USERNAME_MAIL is required")
	}
	if c.MailPassword == "" {
		return fmt.Errorf("PASSWORD_MAIL is required")
	}
	if len(c.MailTo) == 0 {
		return fmt.Errorf("MAIL_SEND_TOO must list at least one recipient")
	}
	return nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

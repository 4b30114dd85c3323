package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds every environment driven option of the service.
type Settings struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	GinMode     string `env:"GIN_MODE"`
	ServerPort  string `env:"SERVER_PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBDatabase string `env:"DB_DATABASE" envDefault:"ip_review"`
	DBUsername string `env:"DB_USERNAME"`
	DBPassword string `env:"DB_PASSWORD"`
	DBPath     string `env:"DB_PATH" envDefault:"ip-review.db"` // sqlite only
	DebugSQL   bool   `env:"DEBUG_SQL"`

	JWTSecret string `env:"JWT_SECRET"`

	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser          string `env:"SMTP_USER"`
	SMTPPass          string `env:"SMTP_PASS"`
	SMTPFrom          string `env:"SMTP_FROM"` // e.g. "IP Office <no-reply@your.org>"
	SMTPSkipTLSVerify bool   `env:"SMTP_SKIP_TLS_VERIFY"`

	FieldCatalogPath string   `env:"FIELD_CATALOG_PATH" envDefault:"config/fields.yaml"`
	AllowedOrigins   []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	AppBaseURL       string   `env:"APP_BASE_URL"` // front-end root linked from e-mails
}

// IsProduction reports whether the service runs with production defaults.
func (s Settings) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Environment), "production")
}

// ParseSettings reads Settings from the current environment.
func ParseSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}

// LoadSettings loads .env (when present) and parses the environment.
func LoadSettings() (Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return ParseSettings()
}

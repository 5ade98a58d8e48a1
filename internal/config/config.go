package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int           `envconfig:"PORT" default:"8080"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string        `envconfig:"DATABASE_URL" required:"true"`
	Version     string        `envconfig:"VERSION" default:"dev"`
	BcryptCost  int           `envconfig:"BCRYPT_COST" default:"12"`
	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`

	DocuSign DocuSignConfig
	Slack    SlackConfig
	Trello   TrelloConfig
	LawPay   LawPayConfig
}

// DocuSignConfig holds the DocuSign JWT-grant credentials. All fields are
// optional at startup; proxy calls fail with a structured error when a
// required credential is absent.
type DocuSignConfig struct {
	IntegrationKey string `envconfig:"DOCUSIGN_INTEGRATION_KEY"`
	UserID         string `envconfig:"DOCUSIGN_USER_ID"`
	AccountID      string `envconfig:"DOCUSIGN_ACCOUNT_ID"`
	PrivateKey     string `envconfig:"DOCUSIGN_PRIVATE_KEY"`
}

// Configured reports whether every DocuSign credential is present.
func (c DocuSignConfig) Configured() bool {
	return c.IntegrationKey != "" && c.UserID != "" && c.AccountID != "" && c.PrivateKey != ""
}

// SlackConfig holds the Slack bot token.
type SlackConfig struct {
	BotToken string `envconfig:"SLACK_BOT_TOKEN"`
}

// Configured reports whether the Slack token is present.
func (c SlackConfig) Configured() bool {
	return c.BotToken != ""
}

// TrelloConfig holds the Trello API key/token pair.
type TrelloConfig struct {
	APIKey string `envconfig:"TRELLO_API_KEY"`
	Token  string `envconfig:"TRELLO_TOKEN"`
}

// Configured reports whether both Trello credentials are present.
func (c TrelloConfig) Configured() bool {
	return c.APIKey != "" && c.Token != ""
}

// LawPayConfig holds the LawPay API key and environment selector
// ("test" or "live").
type LawPayConfig struct {
	APIKey      string `envconfig:"LAWPAY_API_KEY"`
	Environment string `envconfig:"LAWPAY_ENVIRONMENT" default:"test"`
}

// Configured reports whether the LawPay key is present.
func (c LawPayConfig) Configured() bool {
	return c.APIKey != ""
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

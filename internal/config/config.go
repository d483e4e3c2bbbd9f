package config

import (
	"encoding/base64"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	AuthURL        string `envconfig:"AUTH_URL" required:"true"`
	AuthServiceKey string `envconfig:"AUTH_SERVICE_KEY" required:"true"`
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY" required:"true"`
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY" default:""`
	CookieSecure   bool   `envconfig:"COOKIE_SECURE" default:"true"`
	PaymentSecret  string `envconfig:"PAYMENT_WEBHOOK_SECRET" default:""`
	Version        string `envconfig:"VERSION" default:"dev"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"12"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CookieKeys decodes the base64-encoded cookie keys. The hash key is
// mandatory; the block key is optional and enables cookie encryption.
func (c *Config) CookieKeys() (hashKey, blockKey []byte, err error) {
	hashKey, err = base64.StdEncoding.DecodeString(c.CookieHashKey)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding COOKIE_HASH_KEY: %w", err)
	}
	if c.CookieBlockKey != "" {
		blockKey, err = base64.StdEncoding.DecodeString(c.CookieBlockKey)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding COOKIE_BLOCK_KEY: %w", err)
		}
	}
	return hashKey, blockKey, nil
}

package config

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://satchmo.db"`

	// SettingsFile pins livesettings values; pinned values cannot be edited at runtime.
	SettingsFile string `env:"SETTINGS_FILE"`
	CardSecret   string `env:"CARD_SECRET" envDefault:"change-me"`

	Auth  Auth  `envPrefix:"AUTH_"`
	Cache Cache `envPrefix:"CACHE_"`
	Redis Redis `envPrefix:"REDIS_"`

	Paypal       Paypal       `envPrefix:"PAYPAL_"`
	BrainTree    Braintree    `envPrefix:"BRAINTREE_"`
	Authorizenet Authorizenet `envPrefix:"AUTHORIZENET_"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT" envDefault:"sandbox"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Authorizenet struct {
	ConnectionURL string `env:"CONNECTION_URL" envDefault:"https://secure.authorize.net/gateway/transact.dll"`
	TestURL       string `env:"TEST_URL" envDefault:"https://test.authorize.net/gateway/transact.dll"`
}

type Auth struct {
	Secret   string        `env:"SECRET" envDefault:"insecure-development-secret"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type Cache struct {
	Backend string        `env:"BACKEND" envDefault:"memory"` // memory, redis
	Prefix  string        `env:"PREFIX" envDefault:"satchmo"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5m"`
	Enabled bool          `env:"ENABLED" envDefault:"true"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	// a missing .env is fine outside development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment.Name == "production"
}

func (h HTTPServer) Address() string {
	return h.Host + ":" + h.Port
}

// CardKey derives the 32-byte secretbox key used to encrypt stored card numbers.
func (c *Config) CardKey() [32]byte {
	return sha256.Sum256([]byte(c.CardSecret))
}

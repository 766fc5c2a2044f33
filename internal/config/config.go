package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	API      APIConfig      `env:",prefix=API_"`
	Store    StoreConfig    `env:",prefix=STORE_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Token    TokenConfig    `env:",prefix=TOKEN_"`
	Checkout CheckoutConfig `env:",prefix=CHECKOUT_"`
	Callback CallbackConfig `env:",prefix=CALLBACK_"`
	Order    OrderConfig    `env:",prefix=ORDER_"`
	Env      string         `env:"ENV,default=development"`
}

type APIConfig struct {
	// BaseURL is the root of the storefront REST backend.
	// Request timeout semantics are left to the HTTP transport defaults;
	// this layer configures none of its own.
	BaseURL string `env:"BASE_URL,default=http://localhost:5000/api"`
}

type StoreConfig struct {
	// Backend selects the persistence backend: file or redis.
	Backend string `env:"BACKEND,default=file"`
	// Dir is the directory for the file backend. Empty means
	// ~/.eshop, resolved at startup.
	Dir string `env:"DIR"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
	// Prefix namespaces this client's keys so several users can share
	// one Redis instance.
	Prefix string `env:"PREFIX,default=default"`
}

type TokenConfig struct {
	// ExpiryBuffer is subtracted from the token's exp claim when deciding
	// whether it is still usable.
	ExpiryBuffer Duration `env:"EXPIRY_BUFFER,default=30s"`
	// RefreshWindow is the look-ahead for proactive refresh: tokens
	// expiring inside this window are refreshed before a request goes out.
	RefreshWindow Duration `env:"REFRESH_WINDOW,default=2m"`
}

type CheckoutConfig struct {
	// DraftTTL bounds how long an autosaved checkout draft stays valid.
	DraftTTL Duration `env:"DRAFT_TTL,default=1d"`
}

type CallbackConfig struct {
	// Host and Port back the local HTTP listener used for the Google
	// sign-in redirect and the Prometheus metrics endpoint.
	Host string `env:"HOST,default=127.0.0.1"`
	Port string `env:"PORT,default=8755"`
}

type OrderConfig struct {
	// TaxRate applies when no override is supplied at checkout.
	TaxRate float64 `env:"TAX_RATE,default=0.1"`
}

// Address returns the Redis connection address.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Address returns the local callback listener address.
func (c CallbackConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Load loads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	u, err := url.Parse(config.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", config.API.BaseURL)
	}

	if config.Store.Backend != "file" && config.Store.Backend != "redis" {
		return nil, fmt.Errorf("STORE_BACKEND must be file or redis, got %q", config.Store.Backend)
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context.
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}

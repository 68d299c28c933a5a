package app

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/kart-storefront/internal/domain/cart"
)

// DefaultFiles are the config files probed by LoadConfig, in order.
var DefaultFiles = []string{"storefront.yaml", "/etc/storefront/config.yaml"}

// Config holds the complete client configuration, loadable from environment
// variables (STOREFRONT_ prefix) or YAML config files. Command line flags
// belong to the individual commands and are not read here.
type Config struct {
	APIURL    string        `default:"http://localhost:8080/api" env:"API_URL" yaml:"api_url" usage:"Storefront API base URL"`
	Timeout   time.Duration `default:"10s" usage:"Per-request HTTP timeout"`
	Cart      CartConfig
	RateLimit RateLimitConfig
	Watch     WatchConfig
}

// CartConfig controls the optimistic cart manager.
type CartConfig struct {
	Policy    string `default:"keep" usage:"Failure policy: keep, rollback or resync"`
	Reconcile bool   `default:"false" usage:"Adopt the server snapshot after each successful mutation"`
}

// RateLimitConfig controls the client-side sliding window limiter.
type RateLimitConfig struct {
	Max     int           `default:"20" usage:"Max requests per window, 0 disables"`
	Window  time.Duration `default:"1s" usage:"Rate limit window duration"`
	MaxWait time.Duration `default:"5s" usage:"Longest a request may wait for a slot"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Interval time.Duration `default:"5s" usage:"Cart refresh and health check interval"`
	Timeout  time.Duration `default:"3s" usage:"Health check timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files.
func LoadConfig() (*Config, error) {
	return loadConfig(DefaultFiles)
}

func loadConfig(files []string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "STOREFRONT",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return errors.New("api url is required: set STOREFRONT_API_URL")
	}
	if _, err := c.CartPolicy(); err != nil {
		return err
	}
	if c.Watch.Interval <= 0 {
		return errors.Errorf("watch interval must be positive, got %s", c.Watch.Interval)
	}
	return nil
}

// CartPolicy parses Cart.Policy.
func (c *Config) CartPolicy() (cart.Policy, error) {
	p, err := cart.ParsePolicy(c.Cart.Policy)
	if err != nil {
		return p, errors.Wrap(err, "cart policy")
	}
	return p, nil
}

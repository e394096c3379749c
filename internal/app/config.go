package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/freshkart/backend/internal/domain/checkout"
)

// Config holds the complete application configuration, loadable from
// environment variables (FRESHKART_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FRESHKART_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Pricing     PricingConfig
	Coupons     CouponConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig holds the checkout rates. Amounts are whole currency units.
type PricingConfig struct {
	TaxPercent      int `default:"5"    usage:"Flat tax percentage applied to the subtotal" flag:"tax-percent"`
	FreeShippingMin int `default:"1000" usage:"Subtotal from which shipping is free" flag:"free-shipping-min"`
	ShippingFee     int `default:"50"   usage:"Flat shipping fee below the free shipping minimum" flag:"shipping-fee"`
}

// Checkout converts the configured rates into the domain pricing.
func (c PricingConfig) Checkout() checkout.Pricing {
	return checkout.Pricing{
		TaxRate:         decimal.NewFromInt(int64(c.TaxPercent)).Div(decimal.NewFromInt(100)),
		FreeShippingMin: decimal.NewFromInt(int64(c.FreeShippingMin)),
		ShippingFee:     decimal.NewFromInt(int64(c.ShippingFee)),
	}
}

// CouponConfig controls the bloom prefilter in front of coupon lookups.
type CouponConfig struct {
	PrefilterEnabled  bool          `default:"false" usage:"Reject unknown coupon codes with a bloom filter before hitting the database" flag:"coupon-prefilter"`
	PrefilterInterval time.Duration `default:"5m"    usage:"How often the coupon prefilter snapshot is rebuilt" flag:"coupon-prefilter-interval"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FRESHKART",
		Files:     []string{"config.yaml", "/etc/freshkart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set FRESHKART_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's FRESHKART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

package myconfig

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	defaultPort                  = 8080
	defaultPaypalBaseURL         = "https://api-m.sandbox.paypal.com"
	defaultProductCacheSeconds   = 300
	defaultProductCacheSizeBytes = 1024 * 1024
)

type Config struct {
	Port                   int    `toml:"port"`
	BaseURL                string `toml:"base_url"`
	DatabaseURL            string `toml:"database_url"`
	PaypalClientID         string `toml:"paypal_client_id"`
	PaypalSecret           string `toml:"paypal_secret"`
	PaypalBaseURL          string `toml:"paypal_base_url"`
	PaypalSuccessURL       string `toml:"paypal_success_url"`
	PaypalFailureURL       string `toml:"paypal_failure_url"`
	CmsBaseURL             string `toml:"cms_base_url"`
	CmsAPIKey              string `toml:"cms_api_key"`
	CmsProductCacheSeconds int    `toml:"cms_product_cache_seconds"`
}

// ProductCacheSizeBytes is the memory reserved for cached cms products.
func (c Config) ProductCacheSizeBytes() int {
	return defaultProductCacheSizeBytes
}

// Load reads the optional toml file at path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:                   defaultPort,
		PaypalBaseURL:          defaultPaypalBaseURL,
		CmsProductCacheSeconds: defaultProductCacheSeconds,
	}

	if path != "" {
		_, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %s", path, err)
		}
	}

	err := applyEnv(&cfg)
	if err != nil {
		return Config{}, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	err = cfg.validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %s", port, err)
		}
		cfg.Port = p
	}

	overrides := map[string]*string{
		"BASE_URL":           &cfg.BaseURL,
		"DATABASE_URL":       &cfg.DatabaseURL,
		"PAYPAL_CLIENT_ID":   &cfg.PaypalClientID,
		"PAYPAL_SECRET":      &cfg.PaypalSecret,
		"PAYPAL_BASE_URL":    &cfg.PaypalBaseURL,
		"PAYPAL_SUCCESS_URL": &cfg.PaypalSuccessURL,
		"PAYPAL_FAILURE_URL": &cfg.PaypalFailureURL,
		"CMS_BASE_URL":       &cfg.CmsBaseURL,
		"CMS_API_KEY":        &cfg.CmsAPIKey,
	}
	for name, field := range overrides {
		if value, found := os.LookupEnv(name); found {
			*field = value
		}
	}

	return nil
}

func (c Config) validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	for name, value := range map[string]string{
		"paypal_success_url": c.PaypalSuccessURL,
		"paypal_failure_url": c.PaypalFailureURL,
	} {
		if value == "" {
			return fmt.Errorf("missing mandatory config %s", name)
		}
		u, err := url.Parse(value)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("config %s must be an absolute url: %q", name, value)
		}
	}
	if c.CmsProductCacheSeconds < 0 {
		return fmt.Errorf("invalid cms_product_cache_seconds %d", c.CmsProductCacheSeconds)
	}
	return nil
}

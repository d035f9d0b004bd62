// Package config handles loading and validation of service configuration.
// Supports both development (env vars, config file) and production (Secret
// Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"gopkg.in/yaml.v3"

	"cartpromo/internal/carttransform"
)

// Defaults applied when a setting is absent.
const (
	DefaultPort               = "8080"
	DefaultAPIVersion         = "2025-10"
	DefaultMetafieldNamespace = "my_app"
	DefaultRateLimit          = 2.0
	DefaultDatabaseDSN        = "file:cartpromo.db"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"` // "development" or "production"
	LogLevel    string `json:"log_level" yaml:"log_level"`     // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string `json:"gcp_project" yaml:"gcp_project"`
	// ShopID names the shop's secret in Secret Manager.
	ShopID string `json:"shop_id" yaml:"shop_id"`

	Shopify  ShopifyConfig  `json:"shopify" yaml:"shopify"`
	Promo    PromoConfig    `json:"promo" yaml:"promo"`
	Database DatabaseConfig `json:"database" yaml:"database"`
}

// ShopifyConfig holds the Admin API and webhook settings for the shop.
// AccessToken and APISecret come from Secret Manager in production.
type ShopifyConfig struct {
	ShopDomain         string  `json:"shop_domain" yaml:"shop_domain"`
	AccessToken        string  `json:"access_token" yaml:"access_token"`
	APISecret          string  `json:"api_secret" yaml:"api_secret"`
	APIVersion         string  `json:"api_version" yaml:"api_version"`
	MetafieldNamespace string  `json:"metafield_namespace" yaml:"metafield_namespace"`
	Transport          string  `json:"transport" yaml:"transport"`   // "standard" or "chrome"
	RateLimit          float64 `json:"rate_limit" yaml:"rate_limit"` // requests per second
}

// PromoConfig configures the cart transform engine.
type PromoConfig struct {
	GiftMerchandiseID string `json:"gift_merchandise_id" yaml:"gift_merchandise_id"`
	WidgetAttribute   string `json:"widget_attribute" yaml:"widget_attribute"`
	DiscountTitle     string `json:"discount_title" yaml:"discount_title"`
}

// DatabaseConfig selects the saved-product store.
type DatabaseConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "sqlite" or "mysql"
	DSN    string `json:"dsn" yaml:"dsn"`
}

// shopSecret is the Secret Manager payload.
type shopSecret struct {
	AccessToken string `json:"access_token"`
	APISecret   string `json:"api_secret"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", DefaultPort),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		ShopID:      os.Getenv("SHOP_ID"),
	}

	if cfg.ShopID == "" {
		return nil, fmt.Errorf("SHOP_ID environment variable required")
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading shop secrets: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON or YAML file.
// The format follows the extension; anything but .yaml/.yml is JSON.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches shop secrets from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{shop_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.ShopID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecret(result.Payload.Data)
}

// applySecret overlays the secret payload onto the Shopify settings.
func (c *Config) applySecret(data []byte) error {
	var secret shopSecret
	if err := json.Unmarshal(data, &secret); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	if secret.AccessToken != "" {
		c.Shopify.AccessToken = secret.AccessToken
	}
	if secret.APISecret != "" {
		c.Shopify.APISecret = secret.APISecret
	}
	return nil
}

// loadFromEnv reads shop, promotion and database settings from environment
// variables.
func (c *Config) loadFromEnv() error {
	c.Shopify = ShopifyConfig{
		ShopDomain:         os.Getenv("SHOPIFY_SHOP_DOMAIN"),
		AccessToken:        os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		APISecret:          os.Getenv("SHOPIFY_API_SECRET"),
		APIVersion:         os.Getenv("SHOPIFY_API_VERSION"),
		MetafieldNamespace: os.Getenv("SHOPIFY_METAFIELD_NAMESPACE"),
		Transport:          os.Getenv("SHOPIFY_TRANSPORT"),
	}
	if v := os.Getenv("SHOPIFY_RATE_LIMIT"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing SHOPIFY_RATE_LIMIT: %w", err)
		}
		c.Shopify.RateLimit = rate
	}

	c.Promo = PromoConfig{
		GiftMerchandiseID: os.Getenv("PROMO_GIFT_MERCHANDISE_ID"),
		WidgetAttribute:   os.Getenv("PROMO_WIDGET_ATTRIBUTE"),
		DiscountTitle:     os.Getenv("PROMO_DISCOUNT_TITLE"),
	}

	c.Database = DatabaseConfig{
		Driver: os.Getenv("DATABASE_DRIVER"),
		DSN:    os.Getenv("DATABASE_DSN"),
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Port = withDefault(c.Port, DefaultPort)
	c.Environment = withDefault(c.Environment, "development")
	c.LogLevel = withDefault(c.LogLevel, "info")

	c.Shopify.ShopDomain = extractDomain(c.Shopify.ShopDomain)
	c.Shopify.APIVersion = withDefault(c.Shopify.APIVersion, DefaultAPIVersion)
	c.Shopify.MetafieldNamespace = withDefault(c.Shopify.MetafieldNamespace, DefaultMetafieldNamespace)
	c.Shopify.Transport = withDefault(c.Shopify.Transport, "standard")
	if c.Shopify.RateLimit == 0 {
		c.Shopify.RateLimit = DefaultRateLimit
	}

	c.Promo.WidgetAttribute = withDefault(c.Promo.WidgetAttribute, carttransform.DefaultWidgetAttribute)
	c.Promo.DiscountTitle = withDefault(c.Promo.DiscountTitle, carttransform.DefaultDiscountTitle)

	c.Database.Driver = withDefault(c.Database.Driver, "sqlite")
	c.Database.DSN = withDefault(c.Database.DSN, DefaultDatabaseDSN)
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.ShopID == "" {
		return fmt.Errorf("shop_id is required")
	}
	if c.Shopify.ShopDomain == "" {
		return fmt.Errorf("shopify shop_domain is required")
	}
	if c.Shopify.AccessToken == "" {
		return fmt.Errorf("shopify access_token is required")
	}
	if c.Shopify.APISecret == "" {
		return fmt.Errorf("shopify api_secret is required")
	}
	switch c.Shopify.Transport {
	case "standard", "chrome":
	default:
		return fmt.Errorf("invalid shopify transport %q (standard or chrome)", c.Shopify.Transport)
	}
	if c.Shopify.RateLimit < 0 {
		return fmt.Errorf("shopify rate_limit must not be negative")
	}
	if c.Promo.GiftMerchandiseID == "" {
		return fmt.Errorf("promo gift_merchandise_id is required")
	}
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("invalid database driver %q (sqlite or mysql)", c.Database.Driver)
	}
	return nil
}

// EngineConfig returns the cart transform engine configuration.
func (c *Config) EngineConfig() carttransform.Config {
	return carttransform.Config{
		GiftMerchandiseID: c.Promo.GiftMerchandiseID,
		WidgetAttribute:   c.Promo.WidgetAttribute,
		DiscountTitle:     c.Promo.DiscountTitle,
	}
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// extractDomain reduces a shop URL or domain to its host.
func extractDomain(shop string) string {
	shop = strings.TrimSpace(shop)
	if shop == "" {
		return ""
	}
	if !strings.Contains(shop, "://") {
		return strings.Split(shop, "/")[0]
	}
	u, err := url.Parse(shop)
	if err != nil {
		domain := strings.TrimPrefix(shop, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

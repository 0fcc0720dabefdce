package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the onboarding service.
type Config struct {
	Server   ServerConfig
	Ads      AdsConfig
	Mongo    MongoConfig
	Leptage  LeptageConfig
	LogLevel string
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int
}

// AdsConfig carries Google Ads API credentials and the fixed manager account.
type AdsConfig struct {
	DeveloperToken    string
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	LoginCustomerID   string // manager (MCC) customer id, digits only
	PaymentsAccountID string
	Endpoint          string
}

// MongoConfig configures the payment record store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// LeptageConfig configures the payment gateway client.
type LeptageConfig struct {
	BaseURL         string
	APIKey          string
	APISecret       string
	WebhookSecret   string
	WebhookURL      string
	DefaultCurrency string
}

// LoadConfig reads configuration from .env and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found: %v", err)
	}

	viper.SetDefault("PORT", 8080)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("GOOGLE_ADS_ENDPOINT", "googleads.googleapis.com:443")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DB_NAME", "ads_onboarding")
	viper.SetDefault("MONGO_PAYMENTS_COLL", "payments")
	viper.SetDefault("LEPTAGE_CURRENCY_DEFAULT", "USDT")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("PORT"),
		},
		Ads: AdsConfig{
			DeveloperToken:    viper.GetString("GOOGLE_ADS_DEVELOPER_TOKEN"),
			ClientID:          viper.GetString("GOOGLE_ADS_CLIENT_ID"),
			ClientSecret:      viper.GetString("GOOGLE_ADS_CLIENT_SECRET"),
			RefreshToken:      viper.GetString("GOOGLE_ADS_REFRESH_TOKEN"),
			LoginCustomerID:   viper.GetString("GOOGLE_ADS_LOGIN_CUSTOMER_ID"),
			PaymentsAccountID: viper.GetString("PAYMENTS_ACCOUNT_ID"),
			Endpoint:          viper.GetString("GOOGLE_ADS_ENDPOINT"),
		},
		Mongo: MongoConfig{
			URI:        viper.GetString("MONGO_URI"),
			Database:   viper.GetString("MONGO_DB_NAME"),
			Collection: viper.GetString("MONGO_PAYMENTS_COLL"),
		},
		Leptage: LeptageConfig{
			BaseURL:         viper.GetString("LEPTAGE_BASE_URL"),
			APIKey:          viper.GetString("LEPTAGE_API_KEY"),
			APISecret:       viper.GetString("LEPTAGE_API_SECRET"),
			WebhookSecret:   viper.GetString("LEPTAGE_WEBHOOK_SECRET"),
			WebhookURL:      viper.GetString("LEPTAGE_WEBHOOK_URL"),
			DefaultCurrency: viper.GetString("LEPTAGE_CURRENCY_DEFAULT"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot run without.
func (c *Config) Validate() error {
	if c.Ads.DeveloperToken == "" {
		return fmt.Errorf("GOOGLE_ADS_DEVELOPER_TOKEN is required")
	}
	if c.Ads.LoginCustomerID == "" {
		return fmt.Errorf("GOOGLE_ADS_LOGIN_CUSTOMER_ID is required")
	}
	for _, r := range c.Ads.LoginCustomerID {
		if r < '0' || r > '9' {
			return fmt.Errorf("GOOGLE_ADS_LOGIN_CUSTOMER_ID must be digits only, got %q", c.Ads.LoginCustomerID)
		}
	}
	return nil
}

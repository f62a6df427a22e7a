package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"nftmarket-backend/internal/pkg/validation"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	// Marketplace
	MarketAdmin      string        // MARKET_ADMIN_ACCOUNT, the only account allowed to change fees and denominations
	EngineAccount    string        // ENGINE_ACCOUNT, operator/spender/escrow used for settlement
	FeeRatePoints    int           // FEE_RATE_BPS, initial fee rate on first start
	FeeRecipient     string        // FEE_RECIPIENT, initial fee recipient on first start
	MaxOfferDuration time.Duration // MAX_OFFER_DURATION (Go duration, default 2160h)
	ListingMode      string        // LISTING_MODE: holder | admin
	EventsChannel    string        // EVENTS_CHANNEL, Redis pub/sub channel for market events
}

const (
	defaultFeeRatePoints    = 250
	defaultMaxOfferDuration = 90 * 24 * time.Hour
)

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("FEE_RATE_BPS", defaultFeeRatePoints)
	viper.SetDefault("MAX_OFFER_DURATION", defaultMaxOfferDuration.String())
	viper.SetDefault("LISTING_MODE", "holder")
	viper.SetDefault("EVENTS_CHANNEL", "market:events")

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	maxOffer := viper.GetDuration("MAX_OFFER_DURATION")
	if maxOffer <= 0 {
		maxOffer = defaultMaxOfferDuration
	}

	cfg := &Config{
		Env:                 env,
		Port:                viper.GetString("PORT"),
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		MarketAdmin:         strings.ToLower(strings.TrimSpace(viper.GetString("MARKET_ADMIN_ACCOUNT"))),
		EngineAccount:       strings.ToLower(strings.TrimSpace(viper.GetString("ENGINE_ACCOUNT"))),
		FeeRatePoints:       viper.GetInt("FEE_RATE_BPS"),
		FeeRecipient:        strings.ToLower(strings.TrimSpace(viper.GetString("FEE_RECIPIENT"))),
		MaxOfferDuration:    maxOffer,
		ListingMode:         strings.ToLower(strings.TrimSpace(viper.GetString("LISTING_MODE"))),
		EventsChannel:       viper.GetString("EVENTS_CHANNEL"),
	}
	if cfg.ListingMode != "holder" && cfg.ListingMode != "admin" {
		return nil, fmt.Errorf("LISTING_MODE must be holder or admin, got %q", cfg.ListingMode)
	}
	if !validation.IsValidAddress(cfg.EngineAccount) || validation.IsZeroAddress(cfg.EngineAccount) {
		return nil, fmt.Errorf("ENGINE_ACCOUNT must be a non-zero 0x address, got %q", cfg.EngineAccount)
	}
	if cfg.FeeRecipient == "" {
		cfg.FeeRecipient = cfg.MarketAdmin
	}
	return cfg, nil
}

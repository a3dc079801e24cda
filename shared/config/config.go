// shared/config/config.go
package config

import (
	"fmt"
	"os"
	"time"
)

// AnalyticsServiceConfig holds configuration for the analytics service.
type AnalyticsServiceConfig struct {
	ListenAddr string // Address for the HTTP server (e.g., ":8090")

	MongoDBConnStr  string // MongoDB connection string
	MongoDBDatabase string // MongoDB database name (e.g., "sportsdata")

	// Collection names
	GamesCollection        string // Game documents (e.g., "games")
	BettingDataCollection  string // Per-event sportsbook lines (e.g., "betting_data")
	ApiPlansCollection     string // Plan documents (e.g., "api_plans")
	ApiClientsCollection   string // Client documents (e.g., "api_clients")
	UsageMinuteCollection  string // Minute-window usage counters
	UsageDailyCollection   string // Day-window usage counters
	UsageMonthlyCollection string // Month-window usage counters

	AggregationCacheTTL time.Duration // How long computed aggregates stay fresh (e.g., 6h)
	RequestTimeout      time.Duration // Per-request timeout applied in handlers (e.g., 10s)
	AdminToken          string        // Static bearer token guarding the admin subrouter
}

// LoadAnalyticsServiceConfig loads configuration from environment variables.
func LoadAnalyticsServiceConfig() (*AnalyticsServiceConfig, error) {
	cfg := &AnalyticsServiceConfig{
		ListenAddr:             os.Getenv("ANALYTICS_SERVICE_LISTEN_ADDR"),
		MongoDBConnStr:         os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:        os.Getenv("MONGODB_DATABASE"),
		GamesCollection:        os.Getenv("MONGODB_GAMES_COLLECTION"),
		BettingDataCollection:  os.Getenv("MONGODB_BETTING_DATA_COLLECTION"),
		ApiPlansCollection:     os.Getenv("MONGODB_API_PLANS_COLLECTION"),
		ApiClientsCollection:   os.Getenv("MONGODB_API_CLIENTS_COLLECTION"),
		UsageMinuteCollection:  os.Getenv("MONGODB_USAGE_MINUTE_COLLECTION"),
		UsageDailyCollection:   os.Getenv("MONGODB_USAGE_DAILY_COLLECTION"),
		UsageMonthlyCollection: os.Getenv("MONGODB_USAGE_MONTHLY_COLLECTION"),
		AdminToken:             os.Getenv("ANALYTICS_ADMIN_TOKEN"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8090"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017" // Default for K8s internal DNS
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "sportsdata"
	}
	if cfg.GamesCollection == "" {
		cfg.GamesCollection = "games"
	}
	if cfg.BettingDataCollection == "" {
		cfg.BettingDataCollection = "betting_data"
	}
	if cfg.ApiPlansCollection == "" {
		cfg.ApiPlansCollection = "api_plans"
	}
	if cfg.ApiClientsCollection == "" {
		cfg.ApiClientsCollection = "api_clients"
	}
	if cfg.UsageMinuteCollection == "" {
		cfg.UsageMinuteCollection = "api_usage_minute"
	}
	if cfg.UsageDailyCollection == "" {
		cfg.UsageDailyCollection = "api_usage_daily"
	}
	if cfg.UsageMonthlyCollection == "" {
		cfg.UsageMonthlyCollection = "api_usage_monthly"
	}

	var err error
	cfg.AggregationCacheTTL, err = getDuration("AGGREGATION_CACHE_TTL", 6*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

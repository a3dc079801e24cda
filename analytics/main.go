// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	analyticsapi "github.com/bettorstats/analytics-services/analytics/api"
	"github.com/bettorstats/analytics-services/analytics/auth"
	"github.com/bettorstats/analytics-services/analytics/service"
	"github.com/bettorstats/analytics-services/analytics/store"
	"github.com/bettorstats/analytics-services/shared/api"
	"github.com/bettorstats/analytics-services/shared/config"
	mongodbu "github.com/bettorstats/analytics-services/shared/mongodb"
	"github.com/bettorstats/analytics-services/shared/models"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadAnalyticsServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Fatalf("Failed to disconnect from MongoDB: %v", err)
		}
		log.Println("Disconnected from MongoDB.")
	}()

	// --- 3. Initialize Data Stores (passing MongoDB collections) ---
	gameStore := store.NewGameStore(mongoClient.Collection(cfg.GamesCollection))
	bettingStore := store.NewBettingStore(mongoClient.Collection(cfg.BettingDataCollection))
	planStore := store.NewPlanStore(mongoClient.Collection(cfg.ApiPlansCollection))
	clientStore := store.NewClientStore(mongoClient.Collection(cfg.ApiClientsCollection))
	usageStore := store.NewUsageStore(
		mongoClient.Collection(cfg.UsageMinuteCollection),
		mongoClient.Collection(cfg.UsageDailyCollection),
		mongoClient.Collection(cfg.UsageMonthlyCollection),
	)

	// --- 4. Ensure Indexes and Initial Data Exist ---
	if err := usageStore.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to ensure usage counter indexes: %v", err)
	}
	if err := planStore.EnsurePlansExist(context.Background(), defaultPlans()); err != nil {
		log.Fatalf("Failed to ensure default api plans exist: %v", err)
	}

	// --- 5. Initialize Business Logic Services (passing stores) ---
	oddsService := service.NewOddsService(bettingStore)
	aggregationService := service.NewAggregationService(gameStore, oddsService, cfg.AggregationCacheTTL)
	keyService := service.NewKeyService(clientStore, planStore, usageStore)

	// --- 6. Initialize Gateway and Quota Enforcer ---
	gateway := auth.NewAccessGateway(clientStore, planStore)
	quota := auth.NewQuotaEnforcer(usageStore)

	// --- 7. Initialize API Handlers (passing business logic services) ---
	handlers := analyticsapi.NewAnalyticsAPIHandlers(aggregationService, oddsService, keyService, gateway, quota, cfg.RequestTimeout, cfg.AdminToken)

	// --- 8. Setup HTTP Server and Register Routes ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	handlers.RegisterRoutes(baseServer.Router)

	// --- 9. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 10. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	// Create a context with a timeout for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Server gracefully stopped.")
}

// defaultPlans seeds the plans a fresh deployment starts with. Existing
// plan documents are never overwritten.
func defaultPlans() []models.ApiPlan {
	return []models.ApiPlan{
		{
			ID:                  "free",
			Name:                "Free",
			Status:              models.PlanStatusActive,
			RequestsPerMinute:   10,
			DailyRequestLimit:   500,
			MonthlyRequestLimit: 5000,
			AllowedEndpoints:    []string{models.EndpointWildcard},
			AllowedSports:       nil, // Unrestricted
		},
		{
			ID:                  "pro",
			Name:                "Pro",
			Status:              models.PlanStatusActive,
			RequestsPerMinute:   120,
			DailyRequestLimit:   20000,
			MonthlyRequestLimit: 400000,
			AllowedEndpoints:    []string{models.EndpointWildcard},
			AllowedSports:       nil,
		},
	}
}

package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"route-scheduling-service/internal/adapters/cache"
	"route-scheduling-service/internal/adapters/collab"
	"route-scheduling-service/internal/adapters/repositories"
	"route-scheduling-service/internal/api"
	"route-scheduling-service/internal/config"
	"route-scheduling-service/internal/platform/db"
	"route-scheduling-service/internal/ports"
	"route-scheduling-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (postgres, redis, collaborator HTTP clients)
// behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	fleetURL := os.Getenv("FLEET_API_URL")
	skillsURL := os.Getenv("SKILLS_API_URL")
	catalogURL := os.Getenv("CATALOG_API_URL")
	if fleetURL == "" || skillsURL == "" || catalogURL == "" {
		logger.Fatal("FLEET_API_URL, SKILLS_API_URL and CATALOG_API_URL are required")
	}

	port := config.Get("PORT", "8080")
	intakeZone := config.Get("INTAKE_ZONE", "intake")

	sqlDB, err := db.Open(databaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer sqlDB.Close()

	// Initialize schema on startup for local runs; cmd/dbtool seeds demo data.
	if err := repositories.InitSchema(sqlDB); err != nil {
		logger.Fatal("init schema", zap.Error(err))
	}

	// The availability cache is optional: without REDIS_ADDR every stock
	// query goes straight to postgres.
	var availabilityCache ports.AvailabilityCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		availabilityCache = cache.NewRedisAvailabilityCache(client, config.GetDuration("CACHE_TTL", 30*time.Second))
		logger.Info("availability cache enabled", zap.String("redis_addr", addr))
	}

	apiKey := os.Getenv("COLLAB_API_KEY")
	fleet, err := collab.NewHTTPFleetProvider(fleetURL, apiKey)
	if err != nil {
		logger.Fatal("fleet provider", zap.Error(err))
	}
	skills, err := collab.NewHTTPSkillProvider(skillsURL, apiKey)
	if err != nil {
		logger.Fatal("skill provider", zap.Error(err))
	}
	catalog, err := collab.NewHTTPProductCatalog(catalogURL, apiKey)
	if err != nil {
		logger.Fatal("product catalog", zap.Error(err))
	}

	routeRepo := repositories.NewPostgresRouteRepository(sqlDB)
	stockRepo := repositories.NewPostgresStockRepository(sqlDB)
	donationRepo := repositories.NewPostgresDonationRepository(sqlDB)
	scheduleRepo := repositories.NewPostgresScheduleRepository(sqlDB)

	ledger := services.NewStockLedger(stockRepo, availabilityCache, logger)
	capacity := services.NewCapacityPlanner(fleet)
	reconciler := services.NewDonationReconciler(donationRepo, routeRepo, catalog, ledger, intakeZone, logger)
	gate := services.NewEligibilityGate(skills)
	scheduler := services.NewRouteScheduler(routeRepo, scheduleRepo, fleet, catalog, ledger, capacity, reconciler, gate, logger)

	router := api.NewRouter(scheduler, ledger)

	logger.Info("server listening", zap.String("addr", ":"+port))
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	logger.Fatal("server stopped", zap.Error(srv.ListenAndServe()))
}

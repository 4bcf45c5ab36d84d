package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-seat-allocation/internal/allocation"
	"github.com/iliyamo/event-seat-allocation/internal/clock"
	"github.com/iliyamo/event-seat-allocation/internal/config" // Internal config loader
	"github.com/iliyamo/event-seat-allocation/internal/database"
	"github.com/iliyamo/event-seat-allocation/internal/handler"
	"github.com/iliyamo/event-seat-allocation/internal/middleware"
	"github.com/iliyamo/event-seat-allocation/internal/queue"
	"github.com/iliyamo/event-seat-allocation/internal/repository"
	"github.com/iliyamo/event-seat-allocation/internal/router" // Internal router setup
	queue_publisher "github.com/iliyamo/event-seat-allocation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	// Redis is optional: when unavailable, rate limiting and response
	// caching degrade to pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	// Repositories over the shared connection pool.
	catalogRepo := repository.NewCatalogRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	assignmentRepo := repository.NewAssignmentRepo(db)
	occupancyRepo := repository.NewOccupancyRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	engine := allocation.NewEngine(
		assignmentRepo,
		occupancyRepo,
		auditRepo,
		catalogRepo,
		bookingRepo,
		clock.NewSystem(),
	)

	allocHandler := handler.NewAllocationHandler(engine, queue_publisher.PublishAssignmentChanged)
	seatMapHandler := handler.NewSeatMapHandler(catalogRepo, assignmentRepo)

	e := echo.New() // Create Echo instance
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterRoutes(e) // Health check
	router.RegisterAllocation(e, allocHandler, seatMapHandler, cfg.JWTSecret, rdb)

	// Background consumer tails assignment.changed into logs/relocation.log.
	go func() {
		if err := queue.StartAssignmentConsumer(); err != nil {
			log.Printf("assignment consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

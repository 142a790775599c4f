package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/choiwab/patient-x/api/audit"
	"github.com/choiwab/patient-x/api/config"
	"github.com/choiwab/patient-x/api/controller"
	"github.com/choiwab/patient-x/api/db"
	logger "github.com/choiwab/patient-x/api/logging"
	"github.com/choiwab/patient-x/api/router"
	"github.com/choiwab/patient-x/api/service"
	"github.com/choiwab/patient-x/api/storage"
	"github.com/choiwab/patient-x/api/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger("logging")
	defer logger.Sync()

	// Initialize Neo4j
	if err := db.InitNeo4j(); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Audit sink: every domain event lands in Elasticsearch
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)
	audit.NewSubscriber(auditService).Register(eventBus)

	// Logical clock: one shared tick counter drives every expiry comparison.
	clock := util.NewLogicalClock()
	tickInterval := config.GetDuration("engine.tickInterval")
	go func() {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				clock.Advance()
			case <-ctx.Done():
				return
			}
		}
	}()

	caps := storage.Capacities{
		ConditionsPerPolicy:  config.GetInt("engine.maxConditionsPerPolicy"),
		AttributesPerSubject: config.GetInt("engine.maxAttributesPerSubject"),
		PoliciesPerRecord:    config.GetInt("engine.maxPoliciesPerRecord"),
	}

	// Initialize services and utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()

	services, err := service.InitializeServices(
		db.Neo4jDriver,
		caps,
		clock,
		validationUtil,
		cacheService,
		eventBus,
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Initialize controllers
	controllers := controller.InitializeControllers(services)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(
		controllers,
		config.GetInt("ratelimit.requests"),
		config.GetDuration("ratelimit.window"),
	)

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

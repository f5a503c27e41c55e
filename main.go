// File: caresched/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caresched/config"
	"caresched/cron"
	"caresched/database"
	appointmentRepoPkg "caresched/database/repository/appointment"
	contractRepoPkg "caresched/database/repository/contract"
	exceptionRepoPkg "caresched/database/repository/exception"
	providerRepoPkg "caresched/database/repository/provider"
	solicitationRepoPkg "caresched/database/repository/solicitation"
	"caresched/handlers"
	"caresched/middleware"
	"caresched/routes"
	"caresched/services/exception"
	"caresched/services/geo"
	"caresched/services/matching"
	"caresched/services/notification"
	"caresched/services/pricing"
	"caresched/services/scheduling"
	"caresched/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitGeoCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	provRepo := providerRepoPkg.NewMongoProviderRepo()
	contractRepo := contractRepoPkg.NewMongoContractRepo()
	solRepo := solicitationRepoPkg.NewMongoSolicitationRepo()
	apptRepo := appointmentRepoPkg.NewMongoAppointmentRepo()
	excRepo := exceptionRepoPkg.NewMongoExceptionRepo()

	// services.
	geoService := geo.NewDefaultGeoService(
		utils.GetGeoCacheClient(),
		config.AppConfig.GeocoderURL,
		config.AppConfig.GeocoderAPIKey,
		logger,
	)

	pricingCatalog := &pricing.DefaultCatalog{
		Contracts: contractRepo,
		Cache:     utils.GetCacheClient(),
		Logger:    logger,
	}

	eligibilityService := &matching.DefaultEligibilityService{
		Contracts:    contractRepo,
		Providers:    provRepo,
		Appointments: apptRepo,
		Geo:          geoService,
		Pricing:      pricingCatalog,
		Logger:       logger,
	}

	queueClient := cron.NewQueueClient()
	notifier := notification.NewOutboxGateway(queueClient, logger)

	schedulingCfg := config.SchedulingSnapshot()
	slotFinder := &scheduling.DefaultSlotFinder{Appointments: apptRepo}
	orchestrator := &scheduling.DefaultOrchestrator{
		Cfg:           schedulingCfg,
		Solicitations: solRepo,
		Appointments:  apptRepo,
		Eligibility:   eligibilityService,
		SlotFinder:    slotFinder,
		Notifier:      notifier,
		Logger:        logger,
	}

	exceptionWorkflow := &exception.DefaultWorkflow{
		Exceptions:    excRepo,
		Solicitations: solRepo,
		Appointments:  apptRepo,
		Providers:     provRepo,
		Eligibility:   eligibilityService,
		Notifier:      notifier,
		Logger:        logger,
	}

	// background workers.
	cron.InitSchedulingWorker(orchestrator, logger)
	cron.InitWatchdog(solRepo, queueClient, schedulingCfg.WatchdogAfter, logger)

	// handlers.
	enqueue := func(c *gin.Context, solicitationID string) error {
		return cron.EnqueueScheduleRun(c.Request.Context(), queueClient, solicitationID)
	}
	solicitationHandler := handlers.NewSolicitationHandler(solRepo, apptRepo, geoService, orchestrator, enqueue, logger)
	appointmentHandler := handlers.NewAppointmentHandler(apptRepo)
	exceptionHandler := handlers.NewExceptionHandler(exceptionWorkflow)

	routes.RegisterRoutes(router, solicitationHandler, appointmentHandler, exceptionHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

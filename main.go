package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voctnow/config"
	"voctnow/cron"
	"voctnow/database"
	"voctnow/database/repository"
	"voctnow/handlers"
	"voctnow/middleware"
	"voctnow/routes"
	"voctnow/services/assignment"
	"voctnow/services/booking"
	"voctnow/services/events"
	"voctnow/services/notification"
	"voctnow/services/payment"
	"voctnow/services/realtime"
	"voctnow/services/tasks"
	"voctnow/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	database.InitDB()
	utils.InitCache()
	stripe.Key = config.AppConfig.StripeKey

	rootCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(rootCtx, time.Minute, utils.GetCacheClient(), database.MongoClient)

	// repositories.
	repos, err := repository.NewMongoRepositories(database.DB())
	if err != nil {
		logger.Fatal("main: failed to initialize repositories", zap.Error(err))
	}

	// booking event journal and stream.
	var publisher events.Publisher
	var kafka *events.KafkaPublisher
	if brokers := config.SplitList(config.AppConfig.KafkaBrokers); len(brokers) > 0 {
		kafka, err = events.NewKafkaPublisher(brokers, config.AppConfig.KafkaBookingTopic, logger)
		if err != nil {
			logger.Fatal("main: failed to initialize kafka publisher", zap.Error(err))
		}
		publisher = kafka
	}
	recorder, err := events.NewRecorder(repos.Events, publisher, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize event recorder", zap.Error(err))
	}

	// live channels and notifications.
	registry := realtime.NewRegistry(logger)
	bridge := &notification.Bridge{Registry: registry, Logger: logger}
	if path := config.AppConfig.FirebaseCredentialsPath; path != "" {
		fcm, err := utils.FirebaseInit(rootCtx, path)
		if err != nil {
			logger.Fatal("main: failed to initialize firebase", zap.Error(err))
		}
		alerts, err := notification.NewFCMAlerts(fcm, config.AppConfig.OpsAlertTopic, logger)
		if err != nil {
			logger.Fatal("main: failed to initialize ops alerts", zap.Error(err))
		}
		bridge.Alerts = alerts
	}

	// assignment engine and acceptance deadlines.
	var (
		scheduler   assignment.ExpiryScheduler
		localTimer  *assignment.LocalTimer
		asynqClient *asynq.Client
		inspector   *asynq.Inspector
	)
	switch config.AppConfig.AssignmentTimer {
	case "local":
		localTimer = assignment.NewLocalTimer(logger)
		scheduler = localTimer
	default:
		asynqClient = asynq.NewClient(utils.QueueRedisOpt())
		inspector = asynq.NewInspector(utils.QueueRedisOpt())
		expiry, err := tasks.NewExpiryScheduler(asynqClient, inspector)
		if err != nil {
			logger.Fatal("main: failed to initialize expiry scheduler", zap.Error(err))
		}
		scheduler = expiry
	}

	engine, err := assignment.NewEngine(assignment.Deps{
		Bookings:  repos.Bookings,
		Providers: repos.Providers,
		Notifier:  bridge,
		Scheduler: scheduler,
		Events:    recorder,
		Logger:    logger.Named("assignment"),
	}, assignment.Config{
		AcceptanceWindow: config.AppConfig.AcceptanceWindow,
		CandidateLimit:   config.AppConfig.CandidateLimit,
	})
	if err != nil {
		logger.Fatal("main: failed to initialize assignment engine", zap.Error(err))
	}
	bridge.Engine = engine

	var worker *asynq.Server
	if localTimer != nil {
		localTimer.Bind(engine.Expire)
	} else {
		worker = cron.InitExpiryWorker(engine.Expire, logger)
	}

	// services.
	validator, err := booking.NewBookingValidator(logger)
	if err != nil {
		logger.Fatal("main: failed to initialize booking validator", zap.Error(err))
	}
	bookingService, err := booking.NewService(repos.Bookings, validator, recorder, config.AppConfig.PaymentCurrency, logger)
	if err != nil {
		logger.Fatal("main: failed to initialize booking service", zap.Error(err))
	}
	paymentService, err := payment.NewService(payment.Deps{
		Bookings: repos.Bookings,
		Records:  repos.Payments,
		Assigner: engine,
		Dedupe:   payment.NewRedisDeduper(utils.GetCacheClient(), 24*time.Hour),
		Events:   recorder,
		Logger:   logger,
	}, payment.Config{
		WebhookSecret: config.AppConfig.StripeWebhookSecret,
		DemoMode:      config.AppConfig.PaymentDemoMode,
	})
	if err != nil {
		logger.Fatal("main: failed to initialize payment service", zap.Error(err))
	}

	// handlers.
	allowedOrigins := config.SplitList(config.AppConfig.AllowedOrigins)
	bookingHandler := handlers.NewBookingHandler(bookingService, engine)
	internalHandler := handlers.NewInternalHandler(bookingService, engine, repos.Providers)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	realtimeHandler := handlers.NewRealtimeHandler(registry, bridge, allowedOrigins)

	handlerBundle := &handlers.HandlerBundle{
		CreateBooking:    bookingHandler.CreateBooking,
		GetBooking:       bookingHandler.GetBooking,
		ListUserBookings: bookingHandler.ListUserBookings,
		CancelBooking:    bookingHandler.CancelBooking,

		RetryAssignment:          internalHandler.RetryAssignment,
		CompleteSession:          internalHandler.CompleteSession,
		ListPractitionerBookings: internalHandler.ListPractitionerBookings,
		SetAvailability:          internalHandler.SetAvailability,

		CreatePaymentIntent: paymentHandler.CreateIntent,
		PaymentWebhook:      paymentHandler.Webhook,
		MockPaymentSuccess:  paymentHandler.MockSuccess,

		ClientSocket:   realtimeHandler.ClientSocket,
		ProviderSocket: realtimeHandler.ProviderSocket,

		Health: handlers.Health(registry),
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(handlers.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, logger))
	routes.RegisterRoutes(router, handlerBundle, allowedOrigins)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	if worker != nil {
		worker.Shutdown()
	}
	if localTimer != nil {
		localTimer.Stop()
	}
	if asynqClient != nil {
		_ = asynqClient.Close()
	}
	if inspector != nil {
		_ = inspector.Close()
	}
	if kafka != nil {
		if err := kafka.Close(); err != nil {
			logger.Warn("main: failed to close kafka publisher", zap.Error(err))
		}
	}
	if err := database.Close(ctx); err != nil {
		logger.Warn("main: failed to disconnect mongo", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

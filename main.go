package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidybook/config"
	"tidybook/cron"
	"tidybook/database"
	bookingRepo "tidybook/database/repository/booking"
	catalogRepo "tidybook/database/repository/catalog"
	conversationRepo "tidybook/database/repository/conversation"
	leaseRepo "tidybook/database/repository/lease"
	"tidybook/handlers"
	"tidybook/middleware"
	"tidybook/routes"
	"tidybook/services/availability"
	"tidybook/services/calendar"
	"tidybook/services/chat"
	"tidybook/services/events"
	"tidybook/services/lease"
	"tidybook/services/notification"
	"tidybook/services/tools"
	"tidybook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	db := database.DB()
	convRepo := conversationRepo.NewMongoConversationRepo(db)
	catRepo := catalogRepo.NewMongoCatalogRepo(db)
	bookRepo := bookingRepo.NewMongoBookingRepo(db)
	slotRepo := leaseRepo.NewMongoLeaseRepo(db)

	// services.
	calendarClient := calendar.NewHTTPClient("")
	leaseManager := lease.NewManager(slotRepo,
		time.Duration(config.AppConfig.LeaseTTLSeconds)*time.Second)
	availabilityEngine := &availability.Engine{
		Bookings: bookRepo,
		Catalog:  catRepo,
		Calendar: calendarClient,
		Timezone: config.AppConfig.BusinessTimezone,
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
	notifier := notification.NewAsynqNotifier(redisOpt)
	hub := events.NewHub()

	dispatcher := tools.NewDispatcher(tools.Deps{
		Catalog:       catRepo,
		Bookings:      bookRepo,
		Conversations: convRepo,
		Leases:        leaseManager,
		Availability:  availabilityEngine,
		Calendar:      calendarClient,
		Cache:         utils.NewRedisCache(utils.GetCacheClient(), "tidybook"),
		Notifier:      notifier,
	})

	chatService := chat.NewService(convRepo, catRepo, dispatcher, hub, notifier, chat.Options{
		RatePerMinute:      config.AppConfig.ChatRatePerMinute,
		RateBurst:          config.AppConfig.ChatRateBurst,
		MaxVisitorMessages: config.AppConfig.MaxVisitorMessages,
	})

	chatHandler := handlers.NewChatHandler(chatService, hub)
	routes.RegisterRoutes(router, chatHandler)

	// Background worker: notification consumer and maintenance sweeps.
	worker := cron.NewWorker(convRepo, leaseManager, redisOpt)
	if err := worker.Start(); err != nil {
		logger.Sugar().Fatalf("main: failed to start background worker: %v", err)
	}

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

	worker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}

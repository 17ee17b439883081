package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shiftboard-api/core/cache"
	"shiftboard-api/core/config"
	"shiftboard-api/core/constants"
	"shiftboard-api/core/database"
	"shiftboard-api/core/logger"
	"shiftboard-api/core/middleware"
	"shiftboard-api/modules/auth"
	"shiftboard-api/modules/event"
	"shiftboard-api/modules/notification"
	notificationService "shiftboard-api/modules/notification/service"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Run bootstraps config, storage, the background worker and the HTTP
// server, then blocks until a shutdown signal arrives.
func Run() error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.Get()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	redisCache, err := cache.NewCache(cfg.Redis)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer redisCache.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	taskClient := asynq.NewClient(redisOpt)
	defer taskClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
			)
			return nil
		},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	mw := middleware.NewMiddleware(redisCache)

	auth.Init(e, redisCache, mw)
	notificationSvc := notification.Init(e, &db, mw)
	dispatcher := notificationService.NewDispatcher(taskClient)
	event.Init(e, &db, redisCache, mw, dispatcher)

	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			constants.QueueNotifications: 1,
		},
	})
	mux := asynq.NewServeMux()
	notification.RegisterWorker(mux, notificationSvc)

	workerErr := make(chan error, 1)
	go func() {
		if err := worker.Run(mux); err != nil {
			workerErr <- err
		}
	}()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "address", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		worker.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case err := <-workerErr:
		return fmt.Errorf("worker error: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	}

	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultRequestTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mabletask/companion/assistant"
	"mabletask/companion/config"
	"mabletask/companion/database"
	"mabletask/companion/handlers"
	"mabletask/companion/middleware"
	"mabletask/companion/store"
	"mabletask/companion/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL: users and preferences.
	dbClient, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to initialize PostgreSQL database", err)
	}
	defer dbClient.Close()
	if err := dbClient.Migrate(ctx); err != nil {
		fatal("failed to migrate PostgreSQL", err)
	}

	// ClickHouse: chat history.
	chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
	if err != nil {
		fatal("failed to initialize ClickHouse database", err)
	}
	defer chClient.Close()
	if err := chClient.Migrate(ctx); err != nil {
		fatal("failed to migrate ClickHouse", err)
	}

	issuer, err := utils.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		fatal("JWT_SECRET_KEY is required", err)
	}

	userStore := store.NewUserStore(dbClient.DB)
	preferencesStore := store.NewPreferencesStore(dbClient.DB)
	chatStore := store.NewChatStore(chClient)
	productStore, err := store.LoadProducts(cfg.ProductCatalog)
	if err != nil {
		fatal("failed to load product catalog", err)
	}
	viewportStore := store.NewViewportStore(cfg.TrackerConfig(), cfg.Viewport.SessionTTL, logger)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		viewportStore.Run(ctx)
	}()

	authHandlers := handlers.NewAuthHandlers(userStore, issuer, cfg.Release())
	productHandlers := handlers.NewProductHandlers(productStore)
	preferencesHandlers := handlers.NewPreferencesHandlers(preferencesStore)
	viewportHandlers := handlers.NewViewportHandlers(viewportStore, productStore)

	var chatHandlers *handlers.ChatHandlers
	if responder, err := assistant.NewOpenAIResponder(cfg.OpenAI); err != nil {
		logger.Warn("chat disabled", "error", err)
	} else {
		svc := assistant.NewService(responder, chatStore, preferencesStore, cfg.Chat.HistoryTurns, logger)
		chatHandlers = handlers.NewChatHandlers(svc, viewportStore)
	}
	chatLimiter := middleware.NewUserRateLimiter(cfg.Chat.RatePerMinute, cfg.Chat.Burst)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(middleware.CORSMiddleware(cfg.FEOrigin))

	r.GET("/health", handlers.HealthCheck)

	api := r.Group("/api")
	{
		api.POST("/signup", authHandlers.Signup)
		api.POST("/login", authHandlers.Login)
		api.POST("/logout", authHandlers.Logout)

		api.GET("/products", productHandlers.List)
		api.GET("/products/:id", productHandlers.Get)

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(issuer, cfg.DefaultKey))
		{
			protected.GET("/profile", handlers.Profile)

			protected.GET("/preferences", preferencesHandlers.Get)
			protected.POST("/preferences", preferencesHandlers.Update)

			viewport := protected.Group("/viewport/sessions")
			{
				viewport.POST("", viewportHandlers.Create)
				viewport.PUT("/:id/items", viewportHandlers.Install)
				viewport.POST("/:id/notifications", viewportHandlers.Notify)
				viewport.DELETE("/:id/items", viewportHandlers.Teardown)
				viewport.GET("/:id/snapshot", viewportHandlers.Snapshot)
				viewport.GET("/:id/count", viewportHandlers.Count)
				viewport.GET("/:id/count/stream", viewportHandlers.CountStream)
				viewport.DELETE("/:id", viewportHandlers.Close)
			}

			if chatHandlers != nil {
				protected.POST("/chat", chatLimiter.Middleware(), chatHandlers.Chat)
				protected.GET("/chat/history/:sessionId", chatHandlers.History)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("companion API starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed to start", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	<-sweeperDone

	logger.Info("server exiting")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.Release() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// requestLogger logs one line per request in place of gin's default logger.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

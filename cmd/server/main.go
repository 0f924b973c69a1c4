package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"rostering_backend/internal/config"
	"rostering_backend/internal/database"
	"rostering_backend/internal/events"
	"rostering_backend/internal/middleware"
	"rostering_backend/internal/router"
	"rostering_backend/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		utils.LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	// Initialize Logger
	utils.InitLogger(cfg.App.LogLevel, !cfg.App.IsProduction())

	ctx := context.Background()

	// Initialize Database
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		utils.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.ApplySchema {
		if err := database.ApplySchema(ctx, db); err != nil {
			utils.LogError(err, "Failed to apply database schema")
			os.Exit(1)
		}
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"host": cfg.Database.Host, "name": cfg.Database.Name})

	rdb := openRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	publisher := openPublisher(cfg.Broker)
	defer publisher.Close()

	tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.Issuer)
	if err != nil {
		utils.LogError(err, "Failed to initialize token manager")
		os.Exit(1)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID(), utils.GinLogger(), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.App.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	// Setup all application routes
	router.Setup(engine, router.Deps{
		DB:        db,
		Tokens:    tokens,
		Redis:     rdb,
		Publisher: publisher,
		Config:    cfg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.App.Port, "env": cfg.App.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server forced to shutdown")
	}
}

// openRedis returns nil when Redis is unreachable; the login limiter then lets requests through.
func openRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		utils.LogWarn(err, "Redis unavailable, login rate limiting disabled")
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func openPublisher(cfg config.BrokerConfig) events.Publisher {
	if cfg.URL == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewAMQPPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		utils.LogWarn(err, "Event broker unavailable, domain events disabled")
		return events.NopPublisher{}
	}
	return pub
}

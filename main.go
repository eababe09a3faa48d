package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rallypoint/config"
	"rallypoint/database"
	"rallypoint/logger"
	"rallypoint/middleware"
	"rallypoint/server"
	"rallypoint/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Production, cfg.LogLevel)
	defer log.Sync()

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	store := database.NewStore(db)

	// Redis is optional; without it profiles are read from the database
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Warn("Redis connection failed, running without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			redisClient.Close()
			redisClient = nil
		} else {
			log.Info("Redis cache connected", zap.String("addr", cfg.RedisAddr))
			defer redisClient.Close()
		}
	}

	tokens := services.NewTokenManager(cfg.JWTSecret, cfg.SessionDuration)
	audit := services.NewAuditLogger(store, log)
	cache := services.NewProfileCache(redisClient, cfg.ProfileCacheTTL, log)

	auth, err := services.NewAuthService(store, services.NewPasswordHasher(cfg.BcryptCost), tokens, cache, log)
	if err != nil {
		log.Fatal("Failed to initialise auth service", zap.Error(err))
	}

	app := server.New(cfg, log, server.Deps{
		Store:      store,
		Tokens:     tokens,
		Auth:       auth,
		Groups:     services.NewGroupService(store, services.NewInviteCodeGenerator(), audit, log),
		Activities: services.NewActivityService(store, audit),
		Metrics:    middleware.NewMetrics(),
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.RequestTimeout); err != nil {
			log.Error("Error shutting down", zap.Error(err))
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info("Starting Rallypoint", zap.String("addr", addr), zap.Bool("production", cfg.Production))
	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

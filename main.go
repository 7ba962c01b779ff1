// main.go
package main

import (
	"context"
	"log"
	"time"

	"theater-booking/cmd"
	"theater-booking/internal/data/repository"
	"theater-booking/internal/wire"
	"theater-booking/pkg/cache"
	"theater-booking/pkg/database"
	"theater-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}

	logger.Info("Database connected successfully")

	// Optional Redis availability cache; the booking path works without it.
	var cacheSvc *cache.Service
	if config.Redis.Enabled {
		cacheSvc, err = cache.Connect(cache.Config{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err != nil {
			logger.Warn("Redis unavailable, running without availability cache", zap.Error(err))
			cacheSvc = nil
		} else {
			defer cacheSvc.Close()
			logger.Info("Redis connected successfully")
		}
	}

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, config, cacheSvc, logger)

	// Background hold sweep. An optimization only: expiry is also enforced
	// lazily wherever a hold is read.
	sweepInterval := time.Duration(config.Hold.SweepIntervalSeconds) * time.Second
	if sweepInterval > 0 {
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := app.Service.Hold.SweepExpired(context.Background()); err != nil {
					logger.Error("Hold sweep failed", zap.Error(err))
				}
			}
		}()
	}

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	cmd.APIServer(app.Router, config.App.Port)
}

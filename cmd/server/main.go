package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/harudiet/backend/config"
	httpDelivery "github.com/harudiet/backend/internal/delivery/http"
	"github.com/harudiet/backend/internal/domain"
	"github.com/harudiet/backend/internal/infrastructure/backend"
	"github.com/harudiet/backend/internal/infrastructure/cache"
	"github.com/harudiet/backend/internal/infrastructure/storage"
	"github.com/harudiet/backend/internal/usecase"
)

func main() {
	// Load configuration (.env first, then config.yaml and HARU_* variables)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting HaruDiet Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Display timezone: %s", cfg.Display.Timezone)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()
	log.Printf("Profile cache TTL: %s", cfg.Cache.TTL)

	mealBackend := backend.NewClient(cfg.Backend.BaseURL, backend.ClientConfig{
		Timeout:       cfg.Backend.Timeout,
		RatePerSecond: cfg.Backend.RatePerSecond,
		Burst:         cfg.Backend.Burst,
		MaxRetries:    cfg.Backend.MaxRetries,
	})
	if cfg.Server.Environment == "development" {
		mealBackend.SetDebug(true)
		log.Printf("Backend client debug mode enabled")
	}
	log.Printf("Meal backend: %s", cfg.Backend.BaseURL)

	var analyzer domain.FoodAnalyzer
	if cfg.Analysis.BaseURL != "" {
		analyzer = backend.NewAnalysisClient(cfg.Analysis.BaseURL, cfg.Analysis.Timeout)
		log.Printf("Photo analysis: %s", cfg.Analysis.BaseURL)
	} else {
		log.Printf("WARNING: analysis base URL not configured - photo analysis disabled")
	}

	var photos domain.PhotoStore
	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewS3PhotoStore(context.Background(), storage.Options{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			log.Fatalf("Failed to initialize photo storage: %v", err)
		}
		photos = store
		log.Printf("Photo storage: %s (bucket: %s)", cfg.Storage.Endpoint, cfg.Storage.Bucket)
	} else {
		log.Printf("WARNING: storage endpoint not configured - photo uploads disabled")
	}

	// Initialize usecase layer
	mealService := usecase.NewMealService(
		mealBackend,
		memoryCache,
		photos,
		analyzer,
		usecase.MealServiceConfig{
			ProfileTTL:         cfg.Cache.TTL,
			DefaultCalorieGoal: cfg.Display.DefaultCalorieGoal,
			MacroGoals: domain.MacroGoals{
				Carbs:   cfg.Display.CarbsGoal,
				Protein: cfg.Display.ProteinGoal,
				Fat:     cfg.Display.FatGoal,
			},
			MaxRangeDays: cfg.Display.MaxRangeDays,
		},
	)

	handler := httpDelivery.NewHandler(mealService, cfg.Location())
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}

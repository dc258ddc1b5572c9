package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"news-enricher/internal/cache"
	"news-enricher/internal/common/logging"
	"news-enricher/internal/config"
	"news-enricher/internal/enrichment"
	"news-enricher/internal/extract"
	"news-enricher/internal/generate"
	"news-enricher/internal/handlers"
	"news-enricher/internal/jobs"
	"news-enricher/internal/middleware"
	"news-enricher/internal/ratelimit"
	"news-enricher/internal/redis"
	"news-enricher/internal/server"
)

func main() {
	_ = godotenv.Load()
	runtime.GOMAXPROCS(runtime.NumCPU())

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.InitGlobalLogger()
	logger := logging.GetGlobalLogger()
	defer logging.MustSync()

	// Redis is optional: without it the cache runs local-only and the
	// service stays up.
	var store cache.Store
	var redisClient *redis.Client
	if cfg.RedisAddress != "" {
		client, err := redis.NewClient(&redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       atoiOrZero(cfg.RedisDB),
			PoolSize: atoiOrZero(cfg.RedisPoolSize),
		})
		if err != nil {
			logger.Warn("Redis unavailable, running with local cache only",
				logging.String("address", cfg.RedisAddress),
				logging.Err(err),
			)
		} else {
			redisClient = client
			store = client
			defer client.Close()
		}
	}

	tieredCache, err := cache.New(store, cache.Options{
		LocalCapacity: cfg.LocalCacheCapacity(),
		LogInterval:   cfg.HealthCheckIntervalDuration(),
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	coordinator := jobs.NewCoordinator(tieredCache, jobs.Options{
		Timeout:  cfg.GenerationTimeoutDuration(),
		Cooldown: cfg.RetryCooldownDuration(),
		Logger:   logger,
	})

	extractor := extract.NewClient(extract.Options{
		APIKey:  cfg.JinaAPIKey,
		Timeout: cfg.JinaTimeoutDuration(),
		Logger:  logger,
	})

	// Generators are gated on their API keys; missing keys degrade the
	// artifact, not the service.
	var summarizer enrichment.Summarizer
	if cfg.OpenAIAPIKey != "" {
		s, err := generate.NewSummarizer(generate.SummarizerOptions{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("Failed to initialize summarizer: %v", err)
		}
		summarizer = s
	} else {
		logger.Warn("OPENAI_API_KEY not set, summaries disabled")
	}

	var imageGen enrichment.ImageGenerator
	if cfg.GeminiAPIKey != "" {
		g, err := generate.NewImageGenerator(context.Background(), generate.ImageOptions{
			APIKey:   cfg.GeminiAPIKey,
			Model:    cfg.ImageModel,
			ImageDir: cfg.ImageDir,
			Logger:   logger,
		})
		if err != nil {
			log.Fatalf("Failed to initialize image generator: %v", err)
		}
		imageGen = g
	} else {
		logger.Warn("GEMINI_API_KEY not set, image generation disabled")
	}

	service, err := enrichment.NewService(enrichment.Options{
		Coordinator:    coordinator,
		Cache:          tieredCache,
		Extractor:      extractor,
		Summarizer:     summarizer,
		ImageGenerator: imageGen,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("Failed to initialize enrichment service: %v", err)
	}

	h := handlers.New(service, coordinator, tieredCache, redisClient, cfg)

	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Quota:   cfg.RateLimitQuota(),
		Window:  cfg.RateLimitWindowDuration(),
		Enabled: cfg.RateLimitEnabled,
	})

	// Set up routes
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(limiter.HTTPMiddleware(ratelimit.IPBasedKey))
	api.HandleFunc("/article", h.GetArticle).Methods("GET")
	api.HandleFunc("/article", h.InvalidateArticle).Methods("DELETE")
	api.HandleFunc("/article/poll", h.PollArticle).Methods("GET")
	api.HandleFunc("/article/metadata", h.GetArticleMetadata).Methods("GET")
	api.HandleFunc("/articles/cluster", h.ClusterArticles).Methods("POST")
	api.HandleFunc("/cache/stats", h.CacheStats).Methods("GET")
	api.HandleFunc("/cache/clear", h.ClearCache).Methods("POST")

	router.HandleFunc("/health", h.Health).Methods("GET")

	// Generated article images
	router.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImageDir))))

	// Periodic backing store probe; outage and recovery transitions are
	// logged from here at most once per interval.
	scheduler := cron.New()
	if store != nil {
		_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", cfg.HealthCheckInterval), func() {
			if err := tieredCache.ProbeHealth(); err != nil {
				logger.Debug("backing store probe failed", logging.Err(err))
			}
		})
		if err != nil {
			log.Fatalf("Failed to schedule health probe: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(router, cfg.Port)
	errCh := srv.Start()
	logger.Info("Server started", logging.String("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-quit:
		logger.Info("Shutting down", logging.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Let in-flight generation tasks commit their cache writes.
	done := make(chan struct{})
	go func() {
		coordinator.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	logger.Info("Server exited")
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"insta-persona/internal/cache"
	"insta-persona/internal/config"
	"insta-persona/internal/db"
	apihttp "insta-persona/internal/http"
	"insta-persona/internal/ml"
	"insta-persona/internal/render"
	"insta-persona/internal/repository"
	"insta-persona/internal/scraper"
	"insta-persona/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	store, err := cache.NewStore(cfg.CacheDir, time.Duration(cfg.CacheTTLHours)*time.Hour, logger)
	if err != nil {
		logger.Fatal("cache init", zap.Error(err))
	}

	igClient := scraper.NewHTTPClient(cfg.ScraperBaseURL, cfg.SessionCookie)
	fetcher := scraper.NewService(
		igClient,
		store,
		time.Duration(cfg.RateLimitDelaySec)*time.Second,
		cfg.DownloadDir,
		cfg.MaxCommentsPerPost,
		logger,
	)

	textClassifier := ml.NewHTTPTextClassifier(cfg.TextModelBaseURL, cfg.ModelAPIKey, cfg.TextModelName)
	imageClassifier := ml.NewHTTPImageClassifier(cfg.ImageModelBaseURL, cfg.ModelAPIKey, cfg.ImageModelName)
	textScorer := service.NewTextScorer(textClassifier, logger)
	imageScorer := service.NewImageScorer(imageClassifier, cfg.DownloadDir, logger)
	radar := render.NewRadarRenderer()

	repo := repository.NewDisabledRepository("analysis repository not configured")
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("db connect failed, history disabled", zap.Error(err))
		} else {
			defer pool.Close()
			repo = repository.NewPgAnalysisRepository(pool)
		}
	}

	var limiter service.AnalyzeLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, analyze limiter disabled", zap.Error(err))
		} else {
			limiter = service.NewRedisAnalyzeLimiter(redisClient, time.Minute, 3)
		}
		cancel()
	}

	analysisSvc := service.NewAnalysisService(
		fetcher,
		textScorer,
		imageScorer,
		radar,
		repo,
		limiter,
		cfg.MaxPosts,
		cfg.TextWeight,
		logger,
	)

	analysisHandler := apihttp.NewAnalysisHandler(logger, analysisSvc, repo)
	router := apihttp.NewRouter(logger, analysisHandler, cfg.DownloadDir)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"insta-persona/internal/cache"
	"insta-persona/internal/config"
	"insta-persona/internal/domain"
	"insta-persona/internal/ml"
	"insta-persona/internal/render"
	"insta-persona/internal/repository"
	"insta-persona/internal/scraper"
	"insta-persona/internal/service"
)

// Análisis one-shot desde la línea de comandos, sin levantar el server.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: cli_analyze <instagram-url-or-username>")
		os.Exit(2)
	}
	target := os.Args[1]

	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	store, err := cache.NewStore(cfg.CacheDir, time.Duration(cfg.CacheTTLHours)*time.Hour, logger)
	if err != nil {
		log.Fatal(err)
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

	textScorer := service.NewTextScorer(ml.NewHTTPTextClassifier(cfg.TextModelBaseURL, cfg.ModelAPIKey, cfg.TextModelName), logger)
	imageScorer := service.NewImageScorer(ml.NewHTTPImageClassifier(cfg.ImageModelBaseURL, cfg.ModelAPIKey, cfg.ImageModelName), cfg.DownloadDir, logger)

	analysisSvc := service.NewAnalysisService(
		fetcher,
		textScorer,
		imageScorer,
		render.NewRadarRenderer(),
		repository.NewDisabledRepository("analysis repository not configured"),
		nil,
		cfg.MaxPosts,
		cfg.TextWeight,
		logger,
	)

	result, err := analysisSvc.Analyze(ctx, target)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Subject: %s (%d posts analyzed, confidence %.2f)\n\n", result.Subject, result.PostsAnalyzed, result.Confidence)
	for _, trait := range domain.TraitNames {
		score := result.Traits[trait]
		fmt.Printf("%-18s %.3f  %s\n", trait, score, domain.TraitDescription(trait, score))
	}

	if len(result.SampleData) > 0 {
		fmt.Println("\nSample posts:")
		for _, post := range result.SampleData {
			rate := domain.EngagementRate(post.Likes, post.CommentsCount, result.ProfileInfo.Followers)
			fmt.Printf("  %s  %s  likes=%d comments=%d engagement=%.4f\n",
				post.ID, domain.FormatDate(post.Date), post.Likes, post.CommentsCount, rate)
		}
	}
}

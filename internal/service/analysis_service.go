package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/repository"
)

var (
	// ErrNoDataFound indica un fetch exitoso pero sin ningún post usable.
	ErrNoDataFound = errors.New("no data found for profile")
	// ErrRateLimited indica que el subject supero la cuota de análisis.
	ErrRateLimited = errors.New("analysis rate limited")
)

// PostFetcher es la cara del scraper que el orquestador necesita.
type PostFetcher interface {
	FetchPosts(ctx context.Context, subject string, maxPosts int) ([]domain.PostRecord, error)
	FetchProfileInfo(ctx context.Context, subject string) (domain.ProfileInfo, error)
}

// Renderer produce la visualización del mapa de rasgos final.
type Renderer interface {
	Render(scores domain.TraitScores) (string, error)
}

// AnalyzeLimiter limita análisis repetidos por subject. Nil deshabilita.
type AnalyzeLimiter interface {
	Allow(subject string) bool
}

const sampleDisplayLimit = 10

// AnalysisService secuencia el pipeline completo de una petición:
// validar → fetch → score concurrente → fusión → render → persistir.
type AnalysisService struct {
	fetcher     PostFetcher
	textScorer  *TextScorer
	imageScorer *ImageScorer
	renderer    Renderer
	repo        repository.AnalysisRepository
	limiter     AnalyzeLimiter
	maxPosts    int
	textWeight  float64
	logger      *zap.Logger
}

func NewAnalysisService(
	fetcher PostFetcher,
	textScorer *TextScorer,
	imageScorer *ImageScorer,
	renderer Renderer,
	repo repository.AnalysisRepository,
	limiter AnalyzeLimiter,
	maxPosts int,
	textWeight float64,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		fetcher:     fetcher,
		textScorer:  textScorer,
		imageScorer: imageScorer,
		renderer:    renderer,
		repo:        repo,
		limiter:     limiter,
		maxPosts:    maxPosts,
		textWeight:  textWeight,
		logger:      logger,
	}
}

// Analyze corre el pipeline para una URL de perfil o un username pelado.
func (s *AnalysisService) Analyze(ctx context.Context, instagramURL string) (domain.AnalysisResult, error) {
	subject, err := domain.ExtractSubject(instagramURL)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if s.limiter != nil && !s.limiter.Allow(subject) {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %s", ErrRateLimited, subject)
	}

	posts, err := s.fetcher.FetchPosts(ctx, subject, s.maxPosts)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if len(posts) == 0 {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %s", ErrNoDataFound, subject)
	}

	info, err := s.fetcher.FetchProfileInfo(ctx, subject)
	if err != nil {
		// Los posts ya se obtuvieron; el perfil queda como "no disponible".
		s.logger.Warn("profile info fetch failed", zap.String("subject", subject), zap.Error(err))
		info = domain.ProfileInfo{}
	}

	// Las dos modalidades son independientes; corren en paralelo y la
	// fusión espera a ambas.
	var (
		textScores    domain.TraitScores
		imageScores   domain.TraitScores
		imageFeatures []float64
		wg            sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		textScores = s.textScorer.Score(ctx, posts)
	}()
	go func() {
		defer wg.Done()
		imageScores, imageFeatures = s.imageScorer.Score(ctx, posts)
	}()
	wg.Wait()

	fused := Fuse(textScores, imageScores, s.textWeight)
	confidence := Confidence(fused)

	visualization, err := s.renderer.Render(fused)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("render visualization: %w", err)
	}

	sample := posts
	if len(sample) > sampleDisplayLimit {
		sample = sample[:sampleDisplayLimit]
	}

	result := domain.AnalysisResult{
		RunID:         uuid.NewString(),
		Subject:       subject,
		Traits:        fused,
		TextScores:    textScores,
		ImageScores:   imageScores,
		Confidence:    confidence,
		PostsAnalyzed: len(posts),
		SampleData:    sample,
		Visualization: visualization,
		ProfileInfo:   info,
		ImageFeatures: imageFeatures,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.SaveRun(ctx, result); err != nil {
		s.logger.Debug("analysis run not persisted", zap.String("subject", subject), zap.Error(err))
	}

	return result, nil
}

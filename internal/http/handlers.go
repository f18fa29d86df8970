package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/repository"
	"insta-persona/internal/scraper"
	"insta-persona/internal/service"
)

// Analyzer es la cara del orquestador que consumen los handlers.
type Analyzer interface {
	Analyze(ctx context.Context, instagramURL string) (domain.AnalysisResult, error)
}

// HistoryProvider expone el historial persistido de análisis.
type HistoryProvider interface {
	RecentRuns(ctx context.Context, subject string, limit int) ([]repository.RunSummary, error)
}

// AnalysisHandler mantiene dependencias para los endpoints de análisis.
type AnalysisHandler struct {
	logger   *zap.Logger
	analyzer Analyzer
	history  HistoryProvider
	proxy    *http.Client
}

// NewAnalysisHandler crea una instancia de AnalysisHandler.
func NewAnalysisHandler(logger *zap.Logger, analyzer Analyzer, history HistoryProvider) *AnalysisHandler {
	return &AnalysisHandler{
		logger:   logger,
		analyzer: analyzer,
		history:  history,
		proxy:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Root maneja GET /.
func (h *AnalysisHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Instagram Personality Analyzer API",
		"status":  "running",
	})
}

type analyzeRequest struct {
	InstagramURL string `json:"instagram_url" binding:"required"`
}

type analyzeResponse struct {
	PersonalityTraits domain.TraitScores  `json:"personality_traits"`
	Confidence        float64             `json:"confidence"`
	PostsAnalyzed     int                 `json:"posts_analyzed"`
	SampleData        []domain.PostRecord `json:"sample_data"`
	Visualization     string              `json:"visualization"`
	ProfileInfo       domain.ProfileInfo  `json:"profile_info"`
	TextScores        domain.TraitScores  `json:"text_scores"`
	ImageScores       domain.TraitScores  `json:"image_scores"`
	Descriptions      map[string]string   `json:"trait_descriptions"`
	AvgEngagement     float64             `json:"avg_engagement_rate"`
}

// avgEngagement promedia el engagement de la muestra; 0 sin followers.
func avgEngagement(sample []domain.PostRecord, followers int64) float64 {
	if len(sample) == 0 || followers <= 0 {
		return 0.0
	}
	var total float64
	for _, post := range sample {
		total += domain.EngagementRate(post.Likes, post.CommentsCount, followers)
	}
	return total / float64(len(sample))
}

// Analyze maneja POST /analyze.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid analyze request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.InstagramURL)
	if err != nil {
		h.respondAnalyzeError(c, err)
		return
	}

	descriptions := make(map[string]string, len(result.Traits))
	for trait, score := range result.Traits {
		descriptions[trait] = domain.TraitDescription(trait, score)
	}

	c.JSON(http.StatusOK, analyzeResponse{
		PersonalityTraits: result.Traits,
		Confidence:        result.Confidence,
		PostsAnalyzed:     result.PostsAnalyzed,
		SampleData:        result.SampleData,
		Visualization:     result.Visualization,
		ProfileInfo:       result.ProfileInfo,
		TextScores:        result.TextScores,
		ImageScores:       result.ImageScores,
		Descriptions:      descriptions,
		AvgEngagement:     avgEngagement(result.SampleData, result.ProfileInfo.Followers),
	})
}

// respondAnalyzeError traduce la taxonomía de errores a status HTTP.
// El payload siempre es {"detail": mensaje}, nunca un stack trace.
func (h *AnalysisHandler) respondAnalyzeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSubject):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid instagram username or url"})
	case errors.Is(err, scraper.ErrPrivateProfile):
		c.JSON(http.StatusForbidden, gin.H{"detail": "profile is private"})
	case errors.Is(err, scraper.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "profile does not exist"})
	case errors.Is(err, service.ErrNoDataFound), errors.Is(err, scraper.ErrNoPosts):
		c.JSON(http.StatusNotFound, gin.H{"detail": "no data found for this profile"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "too many analyses for this profile, try again later"})
	case errors.Is(err, scraper.ErrTransient):
		h.logger.Warn("upstream fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"detail": "connection error, please try again later"})
	default:
		h.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "analysis failed"})
	}
}

const historyDefaultLimit = 10

// History maneja GET /history/:subject; devuelve los runs persistidos más
// recientes del subject. Sin persistencia configurada responde 503.
func (h *AnalysisHandler) History(c *gin.Context) {
	subject := c.Param("subject")
	if !domain.ValidateSubject(subject) {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid instagram username"})
		return
	}

	runs, err := h.history.RecentRuns(c.Request.Context(), subject, historyDefaultLimit)
	if err != nil {
		h.logger.Warn("history lookup failed", zap.String("subject", subject), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "history unavailable"})
		return
	}
	if runs == nil {
		runs = []repository.RunSummary{}
	}

	c.JSON(http.StatusOK, gin.H{
		"subject": subject,
		"runs":    runs,
	})
}

// ProxyImage maneja GET /proxy/image?url=; rebota bytes de imágenes
// externas para esquivar restricciones de hotlinking.
func (h *AnalysisHandler) ProxyImage(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "missing url parameter"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid url parameter"})
		return
	}

	resp, err := h.proxy.Do(req)
	if err != nil {
		h.logger.Warn("image proxy fetch failed", zap.String("url", rawURL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not fetch image"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Propaga el status del upstream tal cual.
		c.Status(resp.StatusCode)
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.logger.Warn("image proxy stream interrupted", zap.String("url", rawURL), zap.Error(err))
	}
}

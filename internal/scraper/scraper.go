package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"insta-persona/internal/cache"
	"insta-persona/internal/domain"
)

// Service orquesta el fetch de un perfil: validación, cache, rate limit
// por post, tolerancia a fallas por post y materialización de imágenes.
type Service struct {
	client      Client
	store       *cache.Store
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	downloadDir string
	maxComments int
	logger      *zap.Logger
}

// NewService construye el servicio. delay es la separación mínima entre
// materializaciones de posts consecutivos dentro de un mismo fetch.
func NewService(
	client Client,
	store *cache.Store,
	delay time.Duration,
	downloadDir string,
	maxComments int,
	logger *zap.Logger,
) *Service {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "instagram",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// Privado y not-found son resultados esperados del colaborador,
		// no fallas de infraestructura: no abren el circuito.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrPrivateProfile) ||
				errors.Is(err, ErrProfileNotFound)
		},
	})
	return &Service{
		client:      client,
		store:       store,
		limiter:     rate.NewLimiter(rate.Every(delay), 1),
		breaker:     breaker,
		downloadDir: downloadDir,
		maxComments: maxComments,
		logger:      logger,
	}
}

// FetchProfileInfo devuelve metadatos del perfil. NotFound se propaga;
// cualquier otra falla del colaborador degrada a ProfileInfo vacío.
func (s *Service) FetchProfileInfo(ctx context.Context, subject string) (domain.ProfileInfo, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.ProfileInfo(ctx, subject)
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return domain.ProfileInfo{}, err
		}
		s.logger.Warn("profile info unavailable", zap.String("subject", subject), zap.Error(err))
		return domain.ProfileInfo{}, nil
	}
	return result.(domain.ProfileInfo), nil
}

// FetchPosts devuelve hasta maxPosts posts normalizados, del más nuevo al
// más viejo. Las fallas por post se loguean y se saltan; el fetch entero
// falla por errores a nivel de perfil o con ErrNoPosts si no se juntó
// ningún post usable.
func (s *Service) FetchPosts(ctx context.Context, subject string, maxPosts int) ([]domain.PostRecord, error) {
	if !domain.ValidateSubject(subject) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSubject, subject)
	}

	key := cache.Key(subject, maxPosts)
	if sample, ok := s.store.Get(key); ok {
		s.logger.Info("cache hit", zap.String("subject", subject), zap.Int("posts", len(sample)))
		return sample, nil
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.RecentPosts(ctx, subject, maxPosts)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrTransient)
		}
		return nil, err
	}
	raws := result.([]RawPost)

	userDir := filepath.Join(s.downloadDir, subject)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	records := make([]domain.PostRecord, 0, len(raws))
	for _, raw := range raws {
		// El rate limit es la separación entre operaciones por post;
		// el primer Wait consume el token inicial sin demora.
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		record, err := s.materialize(ctx, subject, userDir, raw)
		if err != nil {
			s.logger.Warn("skipping post", zap.String("shortcode", raw.Shortcode), zap.Error(err))
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPosts, subject)
	}

	if err := s.store.Put(key, records); err != nil {
		s.logger.Warn("cache put failed", zap.String("subject", subject), zap.Error(err))
	}
	return records, nil
}

func (s *Service) materialize(ctx context.Context, subject, userDir string, raw RawPost) (domain.PostRecord, error) {
	if raw.Shortcode == "" {
		return domain.PostRecord{}, errors.New("post without shortcode")
	}

	record := domain.PostRecord{
		ID:            raw.Shortcode,
		Caption:       raw.Caption,
		Likes:         raw.Likes,
		CommentsCount: raw.CommentsCount,
		Date:          raw.TakenAt,
		IsVideo:       raw.IsVideo,
		Hashtags:      domain.ExtractHashtags(raw.Caption),
		Mentions:      domain.ExtractMentions(raw.Caption),
		Location:      raw.Location,
		URL:           domain.PostURL(raw.Shortcode),
	}

	// La imagen es best-effort: los videos no se bajan y una falla de
	// descarga deja el path vacío sin descartar el post.
	if !raw.IsVideo && raw.DisplayURL != "" {
		if err := s.downloadImage(ctx, userDir, raw); err != nil {
			s.logger.Warn("image download failed", zap.String("shortcode", raw.Shortcode), zap.Error(err))
		} else {
			record.ImagePath = filepath.ToSlash(filepath.Join(subject, raw.Shortcode+".jpg"))
		}
	}

	// Los comentarios también: una falla del colaborador deja la lista vacía.
	comments, err := s.client.Comments(ctx, raw.Shortcode, s.maxComments)
	if err != nil {
		s.logger.Warn("comment extraction failed", zap.String("shortcode", raw.Shortcode), zap.Error(err))
	} else {
		for _, text := range comments {
			if text == "" {
				continue
			}
			record.Comments = append(record.Comments, text)
			if len(record.Comments) >= s.maxComments {
				break
			}
		}
	}

	return record, nil
}

// downloadImage materializa la imagen del post en userDir. El path destino es
// determinista por (subject, post): si ya existe no se vuelve a bajar.
func (s *Service) downloadImage(ctx context.Context, userDir string, raw RawPost) error {
	target := filepath.Join(userDir, raw.Shortcode+".jpg")
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	data, err := s.client.FetchImage(ctx, raw.DisplayURL)
	if err != nil {
		return err
	}

	// Escritura atómica: así los escritores concurrentes del mismo post
	// son idempotentes.
	tmp, err := os.CreateTemp(userDir, raw.Shortcode+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename temp image: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/ml"
)

const minMaxEpsilon = 1e-8

// ImageScorer convierte la muestra en scores por rasgo usando el clasificador
// de imágenes. Total como el TextScorer: fallas por imagen se saltan y sin
// ninguna imagen usable devuelve el mapa neutro.
type ImageScorer struct {
	classifier  ml.ImageClassifier
	downloadDir string
	logger      *zap.Logger
}

func NewImageScorer(classifier ml.ImageClassifier, downloadDir string, logger *zap.Logger) *ImageScorer {
	return &ImageScorer{classifier: classifier, downloadDir: downloadDir, logger: logger}
}

// Score clasifica cada imagen materializada por separado, promedia los
// vectores de features elemento a elemento, normaliza con min-max y proyecta
// al rasgo i el índice i*len/5. La proyeccion por stride es una heurística
// provisoria, no un mapeo aprendido; el test del paquete la fija para que
// reemplazarla sea un cambio consciente.
// Devuelve además el vector promediado sin normalizar, para persistencia.
func (s *ImageScorer) Score(ctx context.Context, posts []domain.PostRecord) (domain.TraitScores, []float64) {
	var vectors [][]float64
	for _, post := range posts {
		if post.ImagePath == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.downloadDir, filepath.FromSlash(post.ImagePath)))
		if err != nil {
			s.logger.Warn("image read failed", zap.String("path", post.ImagePath), zap.Error(err))
			continue
		}
		features, err := s.classifier.ClassifyImage(ctx, data)
		if err != nil || len(features) == 0 {
			s.logger.Warn("image classification failed", zap.String("path", post.ImagePath), zap.Error(err))
			continue
		}
		vectors = append(vectors, features)
	}

	if len(vectors) == 0 {
		return domain.NeutralScores(), nil
	}

	averaged := averageVectors(vectors)
	normalized := minMaxNormalize(averaged)

	scores := make(domain.TraitScores, len(domain.TraitNames))
	for i, trait := range domain.TraitNames {
		idx := i * len(normalized) / len(domain.TraitNames)
		scores[trait] = normalized[idx]
	}
	return scores, averaged
}

// averageVectors promedia elemento a elemento; vectores más cortos que el
// primero solo aportan a los indices que tienen.
func averageVectors(vectors [][]float64) []float64 {
	length := len(vectors[0])
	sums := make([]float64, length)
	counts := make([]int, length)
	for _, vector := range vectors {
		for i, value := range vector {
			if i >= length {
				break
			}
			sums[i] += value
			counts[i]++
		}
	}
	for i := range sums {
		if counts[i] > 0 {
			sums[i] /= float64(counts[i])
		}
	}
	return sums
}

func minMaxNormalize(values []float64) []float64 {
	min, max := values[0], values[0]
	for _, value := range values {
		if value < min {
			min = value
		}
		if value > max {
			max = value
		}
	}
	normalized := make([]float64, len(values))
	span := max - min + minMaxEpsilon
	for i, value := range values {
		normalized[i] = (value - min) / span
	}
	return normalized
}

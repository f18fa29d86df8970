package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/ml"
)

// Limites del pool de texto antes de la única llamada de inferencia.
const (
	maxPooledTexts = 50
	maxPooledChars = 4000
)

// TextScorer convierte la muestra de posts en scores por rasgo usando el
// clasificador de texto. Es total: nunca devuelve error; sin input usable
// o ante una falla del modelo degrada al mapa neutro.
type TextScorer struct {
	classifier ml.TextClassifier
	logger     *zap.Logger
}

func NewTextScorer(classifier ml.TextClassifier, logger *zap.Logger) *TextScorer {
	return &TextScorer{classifier: classifier, logger: logger}
}

// Score agrupa captions limpios y comentarios de toda la muestra, trunca al
// presupuesto y hace una sola inferencia por análisis. El output del modelo
// se mapea posicionalmente al orden fijo de rasgos; posiciones faltantes
// quedan en 0.5.
func (s *TextScorer) Score(ctx context.Context, posts []domain.PostRecord) domain.TraitScores {
	var texts []string
	for _, post := range posts {
		if len(texts) >= maxPooledTexts {
			break
		}
		if cleaned := domain.CleanText(post.Caption); cleaned != "" {
			texts = append(texts, cleaned)
		}
		for _, comment := range post.Comments {
			if len(texts) >= maxPooledTexts {
				break
			}
			if comment != "" {
				texts = append(texts, comment)
			}
		}
	}

	if len(texts) == 0 {
		return domain.NeutralScores()
	}

	pooled := strings.Join(texts, " ")
	if len(pooled) > maxPooledChars {
		// El corte retrocede hasta un límite de runa para no mandar
		// UTF-8 inválido al clasificador.
		cut := maxPooledChars
		for cut > 0 && !utf8.RuneStart(pooled[cut]) {
			cut--
		}
		pooled = pooled[:cut]
	}

	raw, err := s.classifier.ClassifyText(ctx, pooled)
	if err != nil {
		s.logger.Warn("text classification failed", zap.Error(err))
		return domain.NeutralScores()
	}

	scores := make(domain.TraitScores, len(domain.TraitNames))
	for i, trait := range domain.TraitNames {
		if i < len(raw) {
			scores[trait] = raw[i]
		} else {
			scores[trait] = 0.5
		}
	}
	return scores
}

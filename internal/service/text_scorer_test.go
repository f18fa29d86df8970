package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"insta-persona/internal/domain"
	"insta-persona/internal/ml"
)

func TestTextScorerPoolsIntoSingleCall(t *testing.T) {
	mock := &ml.MockTextClassifier{Scores: []float64{0.1, 0.2, 0.3, 0.4, 0.5}}
	scorer := NewTextScorer(mock, zap.NewNop())

	posts := []domain.PostRecord{
		{Caption: "first #tag", Comments: []string{"great", "love it"}},
		{Caption: "second caption"},
	}
	scores := scorer.Score(context.Background(), posts)

	if mock.Calls != 1 {
		t.Fatalf("expected a single inference call, got %d", mock.Calls)
	}
	pooled := mock.Inputs[0]
	if !strings.Contains(pooled, "first") || !strings.Contains(pooled, "great") || !strings.Contains(pooled, "second caption") {
		t.Fatalf("pooled text missing content: %q", pooled)
	}
	if strings.Contains(pooled, "#tag") {
		t.Fatalf("expected cleaned captions in pool, got %q", pooled)
	}

	// Mapeo posicional sobre el orden fijo de rasgos.
	if scores["Openness"] != 0.1 || scores["Neuroticism"] != 0.5 {
		t.Fatalf("unexpected positional mapping: %v", scores)
	}
}

func TestTextScorerPadsShortOutput(t *testing.T) {
	mock := &ml.MockTextClassifier{Scores: []float64{0.9, 0.8}}
	scorer := NewTextScorer(mock, zap.NewNop())

	scores := scorer.Score(context.Background(), []domain.PostRecord{{Caption: "something"}})
	if scores["Openness"] != 0.9 || scores["Conscientiousness"] != 0.8 {
		t.Fatalf("unexpected mapped values: %v", scores)
	}
	for _, trait := range domain.TraitNames[2:] {
		if scores[trait] != 0.5 {
			t.Fatalf("trait %s = %f, want padded 0.5", trait, scores[trait])
		}
	}
}

func TestTextScorerNeutralOnEmptyInput(t *testing.T) {
	mock := &ml.MockTextClassifier{Scores: []float64{0.9}}
	scorer := NewTextScorer(mock, zap.NewNop())

	scores := scorer.Score(context.Background(), []domain.PostRecord{{IsVideo: true}, {}})
	if mock.Calls != 0 {
		t.Fatalf("expected no inference without text, got %d calls", mock.Calls)
	}
	for trait, value := range scores {
		if value != 0.5 {
			t.Fatalf("trait %s = %f, want neutral", trait, value)
		}
	}
}

func TestTextScorerNeutralOnClassifierError(t *testing.T) {
	mock := &ml.MockTextClassifier{Err: errors.New("model down")}
	scorer := NewTextScorer(mock, zap.NewNop())

	scores := scorer.Score(context.Background(), []domain.PostRecord{{Caption: "hello"}})
	for trait, value := range scores {
		if value != 0.5 {
			t.Fatalf("trait %s = %f, want neutral on error", trait, value)
		}
	}
}

func TestTextScorerTruncatesPool(t *testing.T) {
	mock := &ml.MockTextClassifier{Scores: []float64{0.1, 0.2, 0.3, 0.4, 0.5}}
	scorer := NewTextScorer(mock, zap.NewNop())

	long := strings.Repeat("palabra ", 2000)
	scorer.Score(context.Background(), []domain.PostRecord{{Caption: long}})

	if len(mock.Inputs[0]) > maxPooledChars {
		t.Fatalf("pool of %d chars exceeds budget %d", len(mock.Inputs[0]), maxPooledChars)
	}
}

func TestTextScorerTruncatesOnRuneBoundary(t *testing.T) {
	mock := &ml.MockTextClassifier{Scores: []float64{0.1, 0.2, 0.3, 0.4, 0.5}}
	scorer := NewTextScorer(mock, zap.NewNop())

	// Runas de 3 bytes: el presupuesto cae en medio de una runa y el corte
	// tiene que retroceder al límite anterior.
	long := strings.Repeat("日", 2000)
	scorer.Score(context.Background(), []domain.PostRecord{{Caption: long}})

	pooled := mock.Inputs[0]
	if len(pooled) > maxPooledChars {
		t.Fatalf("pool of %d bytes exceeds budget %d", len(pooled), maxPooledChars)
	}
	if !utf8.ValidString(pooled) {
		t.Fatal("expected valid utf-8 after truncation")
	}
}

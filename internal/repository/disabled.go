package repository

import (
	"context"
	"errors"

	"insta-persona/internal/domain"
)

// disabledRepository se usa cuando no hay DATABASE_URL configurada; cada
// operacion devuelve el motivo y el caller decide si loguear o ignorar.
type disabledRepository struct {
	reason string
}

func NewDisabledRepository(reason string) AnalysisRepository {
	return &disabledRepository{reason: reason}
}

func (r *disabledRepository) SaveRun(_ context.Context, _ domain.AnalysisResult) error {
	return r.err()
}

func (r *disabledRepository) RecentRuns(_ context.Context, _ string, _ int) ([]RunSummary, error) {
	return nil, r.err()
}

func (r *disabledRepository) err() error {
	if r.reason == "" {
		return errors.New("analysis repository disabled")
	}
	return errors.New(r.reason)
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"insta-persona/internal/domain"
)

// AnalysisRepository persiste el historial de análisis. La persistencia es
// best-effort: el orquestador loguea las fallas sin abortar la respuesta.
type AnalysisRepository interface {
	SaveRun(ctx context.Context, result domain.AnalysisResult) error
	RecentRuns(ctx context.Context, subject string, limit int) ([]RunSummary, error)
}

// RunSummary es una fila del historial de análisis.
type RunSummary struct {
	RunID         string             `json:"run_id"`
	Subject       string             `json:"subject"`
	PostsAnalyzed int                `json:"posts_analyzed"`
	Confidence    float64            `json:"confidence"`
	Traits        domain.TraitScores `json:"traits"`
}

type PgAnalysisRepository struct {
	pool *pgxpool.Pool
}

func NewPgAnalysisRepository(pool *pgxpool.Pool) *PgAnalysisRepository {
	return &PgAnalysisRepository{pool: pool}
}

func (r *PgAnalysisRepository) SaveRun(ctx context.Context, result domain.AnalysisResult) error {
	const runQuery = `
		INSERT INTO analysis_runs (id, subject, posts_analyzed, confidence, image_features, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var features interface{}
	if len(result.ImageFeatures) > 0 {
		converted := make([]float32, len(result.ImageFeatures))
		for i, value := range result.ImageFeatures {
			converted[i] = float32(value)
		}
		features = pgvector.NewVector(converted)
	}

	if _, err := r.pool.Exec(ctx, runQuery,
		result.RunID,
		result.Subject,
		result.PostsAnalyzed,
		result.Confidence,
		features,
		result.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert analysis run: %w", err)
	}

	const traitQuery = `
		INSERT INTO analysis_traits (run_id, trait, value, text_value, image_value)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, trait := range domain.TraitNames {
		if _, err := r.pool.Exec(ctx, traitQuery,
			result.RunID,
			trait,
			result.Traits[trait],
			result.TextScores[trait],
			result.ImageScores[trait],
		); err != nil {
			return fmt.Errorf("insert trait %s: %w", trait, err)
		}
	}
	return nil
}

func (r *PgAnalysisRepository) RecentRuns(ctx context.Context, subject string, limit int) ([]RunSummary, error) {
	const query = `
		SELECT r.id, r.subject, r.posts_analyzed, r.confidence, t.trait, t.value
		FROM analysis_runs r
		JOIN analysis_traits t ON t.run_id = r.id
		WHERE r.subject = $1
		ORDER BY r.created_at DESC, t.trait
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, subject, limit*len(domain.TraitNames))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RunSummary
	index := make(map[string]int)
	for rows.Next() {
		var (
			runID, trait string
			sum          RunSummary
			value        float64
		)
		if err := rows.Scan(&runID, &sum.Subject, &sum.PostsAnalyzed, &sum.Confidence, &trait, &value); err != nil {
			return nil, err
		}
		pos, ok := index[runID]
		if !ok {
			sum.RunID = runID
			sum.Traits = make(domain.TraitScores, len(domain.TraitNames))
			summaries = append(summaries, sum)
			pos = len(summaries) - 1
			index[runID] = pos
		}
		summaries[pos].Traits[trait] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

package storage

import (
	"context"

	"rbfswarm/internal/model"
)

// Store persists training run reports and their error histories.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	// ListRuns returns runs newest first; limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, runID string) error
	SaveErrorHistory(ctx context.Context, runID string, history []float64) error
	GetErrorHistory(ctx context.Context, runID string) ([]float64, bool, error)
}

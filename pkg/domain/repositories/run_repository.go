package repositories

import (
	"context"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// RunRepository persists finalized allocation runs
type RunRepository interface {
	GetRun(ctx context.Context, id entities.RunID) (*entities.AllocationRun, error)
	ListRuns(ctx context.Context) ([]*entities.AllocationRun, error)
	SaveRun(ctx context.Context, run *entities.AllocationRun) error
}

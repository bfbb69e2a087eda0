package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// VariantRunRepository provides in-memory variant and run storage. It is
// what the CLI and tests run against; the daemon uses the sqlite store.
type VariantRunRepository struct {
	mu           sync.RWMutex
	variants     map[entities.VariantID]*entities.Variant
	variantOrder []entities.VariantID
	runs         map[entities.RunID]*entities.AllocationRun
	runOrder     []entities.RunID
}

// NewVariantRunRepository creates a new in-memory variant/run repository
func NewVariantRunRepository() *VariantRunRepository {
	return &VariantRunRepository{
		variants: make(map[entities.VariantID]*entities.Variant),
		runs:     make(map[entities.RunID]*entities.AllocationRun),
	}
}

// Verify interface compliance
var (
	_ repositories.VariantRepository = (*VariantRunRepository)(nil)
	_ repositories.RunRepository     = (*VariantRunRepository)(nil)
)

// GetVariant returns one variant by ID
func (r *VariantRunRepository) GetVariant(_ context.Context, id entities.VariantID) (*entities.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, fmt.Errorf("variant %s not found", id)
	}
	clone := *v
	return &clone, nil
}

// ListVariants returns all variants in save order
func (r *VariantRunRepository) ListVariants(_ context.Context) ([]*entities.Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.Variant, 0, len(r.variantOrder))
	for _, id := range r.variantOrder {
		clone := *r.variants[id]
		out = append(out, &clone)
	}
	return out, nil
}

// SaveVariant stores a variant snapshot
func (r *VariantRunRepository) SaveVariant(_ context.Context, variant *entities.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.variants[variant.ID]; !exists {
		r.variantOrder = append(r.variantOrder, variant.ID)
	}
	clone := *variant
	r.variants[variant.ID] = &clone
	return nil
}

// GetRun returns one run by ID
func (r *VariantRunRepository) GetRun(_ context.Context, id entities.RunID) (*entities.AllocationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return run, nil
}

// ListRuns returns all runs in save order
func (r *VariantRunRepository) ListRuns(_ context.Context) ([]*entities.AllocationRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.AllocationRun, 0, len(r.runOrder))
	for _, id := range r.runOrder {
		out = append(out, r.runs[id])
	}
	return out, nil
}

// SaveRun stores a finalized run. Runs are immutable; saving the same ID
// twice is rejected.
func (r *VariantRunRepository) SaveRun(_ context.Context, run *entities.AllocationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.runs[run.ID]; exists {
		return fmt.Errorf("run %s already finalized", run.ID)
	}
	r.runOrder = append(r.runOrder, run.ID)
	r.runs[run.ID] = run
	return nil
}

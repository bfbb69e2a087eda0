package memory

import (
	"sync"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/domain/repositories"
)

// DemandRepository provides in-memory demand line storage
type DemandRepository struct {
	mu    sync.RWMutex
	lines []*entities.DemandLine
}

// NewDemandRepository creates a new in-memory demand repository
func NewDemandRepository() *DemandRepository {
	return &DemandRepository{}
}

// Verify interface compliance
var _ repositories.DemandRepository = (*DemandRepository)(nil)

// GetDemandLines returns all demand lines
func (r *DemandRepository) GetDemandLines() ([]*entities.DemandLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entities.DemandLine, len(r.lines))
	copy(out, r.lines)
	return out, nil
}

// GetDemandLinesForArticle returns the demand lines of one article
func (r *DemandRepository) GetDemandLinesForArticle(number entities.ArticleNumber) ([]*entities.DemandLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.DemandLine
	for _, line := range r.lines {
		if line.ArticleNumber == number {
			out = append(out, line)
		}
	}
	return out, nil
}

// LoadDemandLines loads demand lines into the repository
func (r *DemandRepository) LoadDemandLines(lines []*entities.DemandLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, lines...)
	return nil
}

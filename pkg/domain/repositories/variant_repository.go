package repositories

import (
	"context"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// VariantRepository persists variant configuration snapshots
type VariantRepository interface {
	GetVariant(ctx context.Context, id entities.VariantID) (*entities.Variant, error)
	ListVariants(ctx context.Context) ([]*entities.Variant, error)
	SaveVariant(ctx context.Context, variant *entities.Variant) error
}

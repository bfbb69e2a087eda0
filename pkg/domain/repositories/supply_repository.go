package repositories

import "github.com/mbanner77/allocengine/pkg/domain/entities"

// SupplyRepository provides access to the per-article supply snapshot
type SupplyRepository interface {
	GetSupply(number entities.ArticleNumber) (*entities.SupplySnapshot, error)
	GetSupplySnapshots() ([]*entities.SupplySnapshot, error)
	LoadSupplySnapshots(snapshots []*entities.SupplySnapshot) error
}

package repositories

import "github.com/mbanner77/allocengine/pkg/domain/entities"

// StoreRepository provides access to store master data
type StoreRepository interface {
	GetStore(id entities.StoreID) (*entities.Store, error)
	GetStores() ([]*entities.Store, error)
	LoadStores(stores []*entities.Store) error
}

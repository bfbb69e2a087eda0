package repositories

import "github.com/mbanner77/allocengine/pkg/domain/entities"

// CapacityRepository provides access to the SOLL/IST capacity snapshot
type CapacityRepository interface {
	GetCapacity(key entities.CapacityKey) (*entities.CapacitySnapshot, error)
	GetCapacitySnapshots() ([]*entities.CapacitySnapshot, error)
	LoadCapacitySnapshots(snapshots []*entities.CapacitySnapshot) error
}

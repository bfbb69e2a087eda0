package entities

import "time"

// CapacityKey identifies one capacity pool
type CapacityKey struct {
	StoreID      StoreID
	ProductGroup ProductGroup
}

// CapacitySnapshot is the SOLL/IST capacity position for one
// (store, product group) pool at snapshot time. Capacities are measured
// in space units (the unit SpacePerUnit is expressed in).
type CapacitySnapshot struct {
	StoreID      StoreID
	ProductGroup ProductGroup
	Soll         float64
	Ist          float64
	TakenAt      time.Time
}

// Key returns the pool key for this snapshot
func (c *CapacitySnapshot) Key() CapacityKey {
	return CapacityKey{StoreID: c.StoreID, ProductGroup: c.ProductGroup}
}

// Free returns the free capacity, never negative
func (c *CapacitySnapshot) Free() float64 {
	free := c.Soll - c.Ist
	if free < 0 {
		return 0
	}
	return free
}

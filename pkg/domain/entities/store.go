package entities

import "time"

// StoreID represents a unique store identifier
type StoreID string

// Quantity represents an integer quantity of discrete retail units
type Quantity int64

// Store represents a receiving store with its eligibility-relevant state
type Store struct {
	ID                   StoreID
	Name                 string
	Cluster              string
	Closed               bool
	TransportBlocked     bool
	DeliveryBlockedUntil time.Time
	ListedSeasons        map[Season]bool
}

// Listed reports whether the store carries an active listing for the season
func (s *Store) Listed(season Season) bool {
	return s.ListedSeasons[season]
}

// DeliveryBlocked reports whether a temporary delivery block is active at t
func (s *Store) DeliveryBlocked(t time.Time) bool {
	return !s.DeliveryBlockedUntil.IsZero() && t.Before(s.DeliveryBlockedUntil)
}

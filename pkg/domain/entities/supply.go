package entities

import "time"

// SupplySnapshot is the per-article supply position at snapshot time.
// It is taken once per run and treated as read-only afterwards.
type SupplySnapshot struct {
	ArticleNumber     ArticleNumber
	OnHand            Quantity
	ConfirmedInbound  Quantity
	PlannedDeliveries Quantity
	Reservations      Quantity
	External          Quantity
	TakenAt           time.Time
}

// RawAvailable returns the unclamped availability. Callers that need the
// clamped value with exception accounting go through the supply aggregator.
func (s *SupplySnapshot) RawAvailable() Quantity {
	return s.OnHand + s.ConfirmedInbound - s.Reservations + s.External
}

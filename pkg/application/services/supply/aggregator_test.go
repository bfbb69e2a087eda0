package supply

import (
	"testing"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/infrastructure/repositories/memory"
)

func seedSupply(t *testing.T, snapshots []*entities.SupplySnapshot) *memory.SupplyRepository {
	t.Helper()
	repo := memory.NewSupplyRepository()
	if err := repo.LoadSupplySnapshots(snapshots); err != nil {
		t.Fatalf("Failed to load supply snapshots: %v", err)
	}
	return repo
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name              string
		snapshot          entities.SupplySnapshot
		expectedAvailable entities.Quantity
		expectedExhausted bool
	}{
		{
			name: "sums_position",
			snapshot: entities.SupplySnapshot{
				ArticleNumber: "A1", OnHand: 200, ConfirmedInbound: 50, Reservations: 30, External: 10,
			},
			expectedAvailable: 230,
		},
		{
			name: "planned_deliveries_not_counted",
			snapshot: entities.SupplySnapshot{
				ArticleNumber: "A1", OnHand: 100, PlannedDeliveries: 500,
			},
			expectedAvailable: 100,
		},
		{
			name: "reservations_exceed_position",
			snapshot: entities.SupplySnapshot{
				ArticleNumber: "A1", OnHand: 10, Reservations: 40,
			},
			expectedAvailable: 0,
			expectedExhausted: true,
		},
		{
			name: "exactly_zero_is_not_exhausted",
			snapshot: entities.SupplySnapshot{
				ArticleNumber: "A1", OnHand: 40, Reservations: 40,
			},
			expectedAvailable: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator := NewAggregator(seedSupply(t, []*entities.SupplySnapshot{&tt.snapshot}))

			availability, exception, err := aggregator.Aggregate("A1")
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}

			if availability.Available != tt.expectedAvailable {
				t.Errorf("Expected available %d, got %d", tt.expectedAvailable, availability.Available)
			}
			if availability.Exhausted != tt.expectedExhausted {
				t.Errorf("Expected exhausted %v, got %v", tt.expectedExhausted, availability.Exhausted)
			}
			if tt.expectedExhausted && exception == nil {
				t.Error("Expected a SupplyExhausted exception")
			}
			if tt.expectedExhausted && exception != nil && exception.Kind != entities.SupplyExhausted {
				t.Errorf("Expected SupplyExhausted kind, got %v", exception.Kind)
			}
			if !tt.expectedExhausted && exception != nil {
				t.Errorf("Unexpected exception: %+v", exception)
			}
		})
	}
}

func TestAggregateAll_CollectsExceptions(t *testing.T) {
	snapshots := []*entities.SupplySnapshot{
		{ArticleNumber: "A1", OnHand: 100},
		{ArticleNumber: "A2", OnHand: 5, Reservations: 20},
		{ArticleNumber: "A3", OnHand: 0},
	}
	aggregator := NewAggregator(seedSupply(t, snapshots))

	availabilities, exceptions, err := aggregator.AggregateAll()
	if err != nil {
		t.Fatalf("AggregateAll failed: %v", err)
	}

	if len(availabilities) != 3 {
		t.Fatalf("Expected 3 availabilities, got %d", len(availabilities))
	}
	if len(exceptions) != 1 {
		t.Fatalf("Expected 1 exception, got %d", len(exceptions))
	}
	if exceptions[0].ArticleNumber != "A2" {
		t.Errorf("Expected exception for A2, got %s", exceptions[0].ArticleNumber)
	}
	if exceptions[0].Kind.Blocking() {
		t.Error("SupplyExhausted must not block the run")
	}
}

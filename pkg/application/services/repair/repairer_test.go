package repair

import (
	"testing"

	"github.com/mbanner77/allocengine/pkg/application/services/capacity"
	"github.com/mbanner77/allocengine/pkg/domain/entities"
	"github.com/mbanner77/allocengine/pkg/infrastructure/repositories/memory"
)

func poolsWith(t *testing.T, snapshots []*entities.CapacitySnapshot) *capacity.PoolSet {
	t.Helper()
	repo := memory.NewCapacityRepository()
	if err := repo.LoadCapacitySnapshots(snapshots); err != nil {
		t.Fatalf("Failed to load capacity snapshots: %v", err)
	}
	set, err := capacity.NewProvider(repo, 0).Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	return set
}

func TestRepairPack_StrictRoundsDown(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 0)
	article := &entities.Article{ArticleNumber: "A1", ProductGroup: "TOPS", PackSize: 6, SpacePerUnit: 1}
	pools := poolsWith(t, []*entities.CapacitySnapshot{
		{StoreID: "S1", ProductGroup: "TOPS", Soll: 1000},
	})

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 70, FinalQty: 67}
	slack := entities.Quantity(0)

	repairer.RepairPack(line, article, pools, &slack)

	if line.FinalQty != 66 {
		t.Errorf("Expected strict round down to 66, got %d", line.FinalQty)
	}
	if line.LimitingFactor != entities.LimitPack {
		t.Errorf("Expected LimitPack, got %v", line.LimitingFactor)
	}
	if slack != 1 {
		t.Errorf("Expected 1 freed unit in slack, got %d", slack)
	}
}

func TestRepairPack_BestEffortRoundsUpWithRoom(t *testing.T) {
	repairer := NewRepairer(entities.BestEffort, 0)
	article := &entities.Article{ArticleNumber: "A1", ProductGroup: "TOPS", PackSize: 6, SpacePerUnit: 1}
	pools := poolsWith(t, []*entities.CapacitySnapshot{
		{StoreID: "S1", ProductGroup: "TOPS", Soll: 1000},
	})

	// 67 is closer to 66 than 72: does not round up even with room.
	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 70, FinalQty: 67}
	slack := entities.Quantity(10)
	repairer.RepairPack(line, article, pools, &slack)
	if line.FinalQty != 66 {
		t.Errorf("Expected nearest multiple 66, got %d", line.FinalQty)
	}

	// 70 is closer to 72: rounds up, consuming supply slack.
	line = &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 75, FinalQty: 70}
	slack = 10
	repairer.RepairPack(line, article, pools, &slack)
	if line.FinalQty != 72 {
		t.Errorf("Expected best-effort round up to 72, got %d", line.FinalQty)
	}
	if slack != 8 {
		t.Errorf("Expected slack drawn down to 8, got %d", slack)
	}
}

func TestRepairPack_BestEffortFallsBackWithoutSupplySlack(t *testing.T) {
	repairer := NewRepairer(entities.BestEffort, 0)
	article := &entities.Article{ArticleNumber: "A1", ProductGroup: "TOPS", PackSize: 6, SpacePerUnit: 1}
	pools := poolsWith(t, []*entities.CapacitySnapshot{
		{StoreID: "S1", ProductGroup: "TOPS", Soll: 1000},
	})

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 75, FinalQty: 70}
	slack := entities.Quantity(1) // needs 2 to reach 72

	repairer.RepairPack(line, article, pools, &slack)

	if line.FinalQty != 66 {
		t.Errorf("Expected round down without supply slack, got %d", line.FinalQty)
	}
}

func TestRepairPack_BestEffortFallsBackWithoutCapacity(t *testing.T) {
	repairer := NewRepairer(entities.BestEffort, 0)
	article := &entities.Article{ArticleNumber: "A1", ProductGroup: "TOPS", PackSize: 6, SpacePerUnit: 1}
	// Pool is full: no room for the 2 extra units.
	pools := poolsWith(t, []*entities.CapacitySnapshot{
		{StoreID: "S1", ProductGroup: "TOPS", Soll: 100, Ist: 100},
	})

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 75, FinalQty: 70}
	slack := entities.Quantity(10)

	repairer.RepairPack(line, article, pools, &slack)

	if line.FinalQty != 66 {
		t.Errorf("Expected round down without capacity, got %d", line.FinalQty)
	}
}

func TestRepairPack_ExactMultipleUntouched(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 0)
	article := &entities.Article{ArticleNumber: "A1", ProductGroup: "TOPS", PackSize: 6, SpacePerUnit: 1}
	pools := poolsWith(t, nil)

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 70, FinalQty: 66}
	slack := entities.Quantity(0)

	repairer.RepairPack(line, article, pools, &slack)

	if line.FinalQty != 66 {
		t.Errorf("Expected exact multiple untouched, got %d", line.FinalQty)
	}
	if line.LimitingFactor != entities.LimitNone {
		t.Errorf("Expected LimitNone, got %v", line.LimitingFactor)
	}
}

func TestRepairPack_FreedSpaceReturnsToPool(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 0)
	article := &entities.Article{ArticleNumber: "A1", ProductGroup: "TOPS", PackSize: 10, SpacePerUnit: 2}
	pools := poolsWith(t, []*entities.CapacitySnapshot{
		{StoreID: "S1", ProductGroup: "TOPS", Soll: 100, Ist: 100},
	})
	key := entities.CapacityKey{StoreID: "S1", ProductGroup: "TOPS"}

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", Demand: 20, FinalQty: 17}
	slack := entities.Quantity(0)

	repairer.RepairPack(line, article, pools, &slack)

	// 7 freed units at 2 space each.
	if free := pools.Free(key); free != 14 {
		t.Errorf("Expected 14 space released, got %v", free)
	}
}

func TestRepairSizes_DistributesByShare(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 0)
	article := &entities.Article{
		ArticleNumber: "A1",
		SizeCurve: []entities.SizeShare{
			{Size: "S", TargetShare: 0.2},
			{Size: "M", TargetShare: 0.5},
			{Size: "L", TargetShare: 0.3},
		},
	}

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", FinalQty: 10}
	repairer.RepairSizes(line, article)

	if len(line.Sizes) != 3 {
		t.Fatalf("Expected 3 size buckets, got %d", len(line.Sizes))
	}
	expected := map[string]entities.Quantity{"S": 2, "M": 5, "L": 3}
	var total entities.Quantity
	for _, size := range line.Sizes {
		if size.Qty != expected[size.Size] {
			t.Errorf("Size %s: expected %d, got %d", size.Size, expected[size.Size], size.Qty)
		}
		total += size.Qty
	}
	if total != line.FinalQty {
		t.Errorf("Size quantities sum %d != line quantity %d", total, line.FinalQty)
	}
}

func TestRepairSizes_LargestRemainderSumsExactly(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 0)
	article := &entities.Article{
		ArticleNumber: "A1",
		SizeCurve: []entities.SizeShare{
			{Size: "S", TargetShare: 1},
			{Size: "M", TargetShare: 1},
			{Size: "L", TargetShare: 1},
		},
	}

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", FinalQty: 7}
	repairer.RepairSizes(line, article)

	var total entities.Quantity
	for _, size := range line.Sizes {
		total += size.Qty
	}
	if total != 7 {
		t.Errorf("Expected exact sum 7, got %d", total)
	}
}

func TestRepairSizes_MinSizesFloor(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 3)
	article := &entities.Article{
		ArticleNumber: "A1",
		SizeCurve: []entities.SizeShare{
			{Size: "S", TargetShare: 0.9},
			{Size: "M", TargetShare: 0.1},
			{Size: "L", TargetShare: 0},
		},
	}

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", FinalQty: 10}
	repairer.RepairSizes(line, article)

	nonzero := 0
	var total entities.Quantity
	for _, size := range line.Sizes {
		if size.Qty > 0 {
			nonzero++
		}
		total += size.Qty
	}
	if nonzero < 3 {
		t.Errorf("Expected at least 3 distinct sizes, got %d", nonzero)
	}
	if total != 10 {
		t.Errorf("Floor enforcement changed the total: got %d", total)
	}
	if line.LimitingFactor != entities.LimitSize {
		t.Errorf("Expected LimitSize after floor move, got %v", line.LimitingFactor)
	}
}

func TestRepairSizes_FloorCappedByQuantity(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 5)
	article := &entities.Article{
		ArticleNumber: "A1",
		SizeCurve: []entities.SizeShare{
			{Size: "S", TargetShare: 0.5},
			{Size: "M", TargetShare: 0.3},
			{Size: "L", TargetShare: 0.2},
		},
	}

	// Only 2 units: the floor cannot exceed the quantity.
	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", FinalQty: 2}
	repairer.RepairSizes(line, article)

	var total entities.Quantity
	for _, size := range line.Sizes {
		total += size.Qty
	}
	if total != 2 {
		t.Errorf("Expected total preserved at 2, got %d", total)
	}
}

func TestRepairSizes_NoCurveNoOp(t *testing.T) {
	repairer := NewRepairer(entities.Strict, 2)
	article := &entities.Article{ArticleNumber: "A1"}

	line := &entities.AllocationLine{ArticleNumber: "A1", StoreID: "S1", FinalQty: 10}
	repairer.RepairSizes(line, article)

	if line.Sizes != nil {
		t.Errorf("Expected no size buckets without a curve, got %v", line.Sizes)
	}
}

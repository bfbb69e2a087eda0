package memory

import (
	"context"
	"testing"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

func TestStoreRepository_LoadAndGet(t *testing.T) {
	repo := NewStoreRepository()
	stores := []*entities.Store{
		{ID: "S002", Name: "Hamburg"},
		{ID: "S001", Name: "Berlin"},
	}
	if err := repo.LoadStores(stores); err != nil {
		t.Fatalf("LoadStores failed: %v", err)
	}

	store, err := repo.GetStore("S001")
	if err != nil {
		t.Fatalf("GetStore failed: %v", err)
	}
	if store.Name != "Berlin" {
		t.Errorf("Expected Berlin, got %s", store.Name)
	}

	all, err := repo.GetStores()
	if err != nil {
		t.Fatalf("GetStores failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 stores, got %d", len(all))
	}
	// Load order preserved.
	if all[0].ID != "S002" || all[1].ID != "S001" {
		t.Errorf("Expected load order S002,S001, got %s,%s", all[0].ID, all[1].ID)
	}

	if _, err := repo.GetStore("MISSING"); err == nil {
		t.Error("Expected error for unknown store")
	}
}

func TestStoreRepository_ReloadReplaces(t *testing.T) {
	repo := NewStoreRepository()
	if err := repo.LoadStores([]*entities.Store{{ID: "S001", Name: "Old"}}); err != nil {
		t.Fatalf("LoadStores failed: %v", err)
	}
	if err := repo.LoadStores([]*entities.Store{{ID: "S001", Name: "New"}}); err != nil {
		t.Fatalf("LoadStores failed: %v", err)
	}

	store, err := repo.GetStore("S001")
	if err != nil {
		t.Fatalf("GetStore failed: %v", err)
	}
	if store.Name != "New" {
		t.Errorf("Expected replacement, got %s", store.Name)
	}
	all, _ := repo.GetStores()
	if len(all) != 1 {
		t.Errorf("Expected no duplicate entries, got %d", len(all))
	}
}

func TestArticleRepository_ByGroup(t *testing.T) {
	repo := NewArticleRepository()
	articles := []*entities.Article{
		{ArticleNumber: "A1", ProductGroup: "TOPS"},
		{ArticleNumber: "A2", ProductGroup: "PANTS"},
		{ArticleNumber: "A3", ProductGroup: "TOPS", NOS: true},
	}
	if err := repo.LoadArticles(articles); err != nil {
		t.Fatalf("LoadArticles failed: %v", err)
	}

	tops, err := repo.GetArticlesByGroup("TOPS")
	if err != nil {
		t.Fatalf("GetArticlesByGroup failed: %v", err)
	}
	if len(tops) != 2 {
		t.Fatalf("Expected 2 TOPS articles, got %d", len(tops))
	}
	if tops[0].ArticleNumber != "A1" || tops[1].ArticleNumber != "A3" {
		t.Errorf("Expected A1,A3 in load order, got %s,%s", tops[0].ArticleNumber, tops[1].ArticleNumber)
	}

	empty, err := repo.GetArticlesByGroup("SHOES")
	if err != nil {
		t.Fatalf("GetArticlesByGroup failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no SHOES articles, got %d", len(empty))
	}
}

func TestDemandRepository_LoadAndGet(t *testing.T) {
	repo := NewDemandRepository()
	lines := []*entities.DemandLine{
		{ArticleNumber: "A1", StoreID: "S1", PlanQty: 10},
		{ArticleNumber: "A1", StoreID: "S2", PlanQty: 20},
	}
	if err := repo.LoadDemandLines(lines); err != nil {
		t.Fatalf("LoadDemandLines failed: %v", err)
	}

	all, err := repo.GetDemandLines()
	if err != nil {
		t.Fatalf("GetDemandLines failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 demand lines, got %d", len(all))
	}
}

func TestSupplyRepository_LoadAndGet(t *testing.T) {
	repo := NewSupplyRepository()
	snapshots := []*entities.SupplySnapshot{
		{ArticleNumber: "A1", OnHand: 100},
	}
	if err := repo.LoadSupplySnapshots(snapshots); err != nil {
		t.Fatalf("LoadSupplySnapshots failed: %v", err)
	}

	snapshot, err := repo.GetSupply("A1")
	if err != nil {
		t.Fatalf("GetSupply failed: %v", err)
	}
	if snapshot.OnHand != 100 {
		t.Errorf("Expected on-hand 100, got %d", snapshot.OnHand)
	}

	if _, err := repo.GetSupply("MISSING"); err == nil {
		t.Error("Expected error for unknown article")
	}
}

func TestCapacityRepository_LoadAndGet(t *testing.T) {
	repo := NewCapacityRepository()
	snapshots := []*entities.CapacitySnapshot{
		{StoreID: "S1", ProductGroup: "TOPS", Soll: 100, Ist: 40},
	}
	if err := repo.LoadCapacitySnapshots(snapshots); err != nil {
		t.Fatalf("LoadCapacitySnapshots failed: %v", err)
	}

	all, err := repo.GetCapacitySnapshots()
	if err != nil {
		t.Fatalf("GetCapacitySnapshots failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Expected 1 capacity snapshot, got %d", len(all))
	}
	if all[0].Soll != 100 {
		t.Errorf("Expected soll 100, got %v", all[0].Soll)
	}
}

func TestVariantRunRepository_Variants(t *testing.T) {
	repo := NewVariantRunRepository()
	ctx := context.Background()

	v := &entities.Variant{ID: "V1", Name: "first", Status: entities.Draft}
	if err := repo.SaveVariant(ctx, v); err != nil {
		t.Fatalf("SaveVariant failed: %v", err)
	}

	// Mutating the caller's copy must not affect the stored snapshot.
	v.Name = "mutated"

	stored, err := repo.GetVariant(ctx, "V1")
	if err != nil {
		t.Fatalf("GetVariant failed: %v", err)
	}
	if stored.Name != "first" {
		t.Errorf("Stored variant leaked caller mutation: %s", stored.Name)
	}

	stored.Status = entities.Simulated
	if err := repo.SaveVariant(ctx, stored); err != nil {
		t.Fatalf("SaveVariant update failed: %v", err)
	}

	variants, err := repo.ListVariants(ctx)
	if err != nil {
		t.Fatalf("ListVariants failed: %v", err)
	}
	if len(variants) != 1 {
		t.Fatalf("Expected 1 variant, got %d", len(variants))
	}
	if variants[0].Status != entities.Simulated {
		t.Errorf("Expected updated status, got %v", variants[0].Status)
	}
}

func TestVariantRunRepository_RunsAreImmutable(t *testing.T) {
	repo := NewVariantRunRepository()
	ctx := context.Background()

	run := &entities.AllocationRun{ID: "R1", VariantID: "V1", Status: entities.RunCompleted}
	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	// Finalized runs are append-only records.
	if err := repo.SaveRun(ctx, run); err == nil {
		t.Error("Expected duplicate run save to be rejected")
	}

	stored, err := repo.GetRun(ctx, "R1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if stored.VariantID != "V1" {
		t.Errorf("Expected variant V1, got %s", stored.VariantID)
	}

	runs, err := repo.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run, got %d", len(runs))
	}
}

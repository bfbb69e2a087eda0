package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadStores(t *testing.T) {
	path := writeCSV(t, "stores.csv",
		"store_id,name,cluster,closed,transport_blocked,delivery_blocked_until,listed_seasons\n"+
			"S1,Downtown,A,false,false,,SS26;FW26\n"+
			"S2,Harbor,B,true,false,2026-10-01,SS26\n"+
			"S3,Airport,A,false,true,,\n")

	stores, err := NewLoader().LoadStores(path)
	if err != nil {
		t.Fatalf("LoadStores() error: %v", err)
	}
	if len(stores) != 3 {
		t.Fatalf("expected 3 stores, got %d", len(stores))
	}

	s1 := stores[0]
	if s1.ID != "S1" || s1.Name != "Downtown" || s1.Cluster != "A" {
		t.Errorf("unexpected first store: %+v", s1)
	}
	if s1.Closed || s1.TransportBlocked {
		t.Errorf("S1 should be open and unblocked")
	}
	if !s1.ListedSeasons["SS26"] || !s1.ListedSeasons["FW26"] {
		t.Errorf("S1 listed seasons not parsed: %v", s1.ListedSeasons)
	}

	s2 := stores[1]
	if !s2.Closed {
		t.Errorf("S2 should be closed")
	}
	if s2.DeliveryBlockedUntil.IsZero() {
		t.Errorf("S2 delivery block date should be set")
	}
	if got := s2.DeliveryBlockedUntil.Format("2006-01-02"); got != "2026-10-01" {
		t.Errorf("expected block until 2026-10-01, got %s", got)
	}

	s3 := stores[2]
	if !s3.TransportBlocked {
		t.Errorf("S3 should be transport blocked")
	}
	if len(s3.ListedSeasons) != 0 {
		t.Errorf("S3 should have no listed seasons, got %v", s3.ListedSeasons)
	}
}

func TestLoadArticles(t *testing.T) {
	path := writeCSV(t, "articles.csv",
		"article_number,description,product_group,season,pack_size,space_per_unit,nos,avg_daily_forecast,size_curve\n"+
			"A1,Crew Tee,TOPS,SS26,6,1.5,false,4.2,S:0.2;M:0.5;L:0.3\n"+
			"A2,Basic Sock,HOSIERY,SS26,1,0.25,true,12,\n")

	articles, err := NewLoader().LoadArticles(path)
	if err != nil {
		t.Fatalf("LoadArticles() error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	a1 := articles[0]
	if a1.ArticleNumber != "A1" || a1.ProductGroup != "TOPS" || a1.Season != "SS26" {
		t.Errorf("unexpected first article: %+v", a1)
	}
	if a1.PackSize != 6 || a1.SpacePerUnit != 1.5 || a1.NOS || a1.AvgDailyFcst != 4.2 {
		t.Errorf("unexpected A1 attributes: %+v", a1)
	}
	if len(a1.SizeCurve) != 3 {
		t.Fatalf("expected 3 size curve entries, got %d", len(a1.SizeCurve))
	}
	if a1.SizeCurve[1].Size != "M" || a1.SizeCurve[1].TargetShare != 0.5 {
		t.Errorf("unexpected second curve entry: %+v", a1.SizeCurve[1])
	}
	if !a1.HasSizeCurve() {
		t.Errorf("A1 should report a size curve")
	}

	a2 := articles[1]
	if !a2.NOS {
		t.Errorf("A2 should be a never-out-of-stock article")
	}
	if a2.SizeCurve != nil {
		t.Errorf("empty size_curve column should yield nil curve, got %v", a2.SizeCurve)
	}
}

func TestLoadDemandLines(t *testing.T) {
	path := writeCSV(t, "demand.csv",
		"article_number,store_id,plan_qty,forecast_qty,on_hand,inbound,has_forecast\n"+
			"A1,S1,20,14,3,2,true\n"+
			"A1,S2,10,0,0,0,false\n")

	lines, err := NewLoader().LoadDemandLines(path)
	if err != nil {
		t.Fatalf("LoadDemandLines() error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 demand lines, got %d", len(lines))
	}

	first := lines[0]
	if first.ArticleNumber != "A1" || first.StoreID != "S1" {
		t.Errorf("unexpected first line keys: %+v", first)
	}
	if first.PlanQty != 20 || first.ForecastQty != 14 || first.OnHand != 3 || first.Inbound != 2 {
		t.Errorf("unexpected first line quantities: %+v", first)
	}
	if !first.HasForecast {
		t.Errorf("first line should carry a forecast")
	}
	if lines[1].HasForecast {
		t.Errorf("second line should not carry a forecast")
	}
}

func TestLoadSupplySnapshots(t *testing.T) {
	path := writeCSV(t, "supply.csv",
		"article_number,on_hand,confirmed_inbound,planned_deliveries,reservations,external\n"+
			"A1,120,50,200,30,10\n")

	snapshots, err := NewLoader().LoadSupplySnapshots(path)
	if err != nil {
		t.Fatalf("LoadSupplySnapshots() error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}

	s := snapshots[0]
	if s.OnHand != 120 || s.ConfirmedInbound != 50 || s.PlannedDeliveries != 200 || s.Reservations != 30 || s.External != 10 {
		t.Errorf("unexpected snapshot quantities: %+v", s)
	}
	if s.RawAvailable() != 150 {
		t.Errorf("expected raw available 150, got %d", s.RawAvailable())
	}
	if s.TakenAt.IsZero() {
		t.Errorf("snapshot timestamp should be set")
	}
}

func TestLoadCapacitySnapshots(t *testing.T) {
	path := writeCSV(t, "capacity.csv",
		"store_id,product_group,soll,ist\n"+
			"S1,TOPS,100.5,60\n")

	snapshots, err := NewLoader().LoadCapacitySnapshots(path)
	if err != nil {
		t.Fatalf("LoadCapacitySnapshots() error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(snapshots))
	}

	s := snapshots[0]
	if s.StoreID != "S1" || s.ProductGroup != "TOPS" {
		t.Errorf("unexpected snapshot keys: %+v", s)
	}
	if s.Soll != 100.5 || s.Ist != 60 {
		t.Errorf("unexpected snapshot values: soll=%v ist=%v", s.Soll, s.Ist)
	}
	if key := s.Key(); key != (entities.CapacityKey{StoreID: "S1", ProductGroup: "TOPS"}) {
		t.Errorf("unexpected snapshot key: %+v", key)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	loader := NewLoader()

	t.Run("missing file", func(t *testing.T) {
		if _, err := loader.LoadStores(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
			t.Fatalf("expected error for missing file")
		}
	})

	t.Run("wrong header", func(t *testing.T) {
		path := writeCSV(t, "stores.csv",
			"id,name,cluster,closed,transport_blocked,delivery_blocked_until,listed_seasons\n"+
				"S1,Downtown,A,false,false,,\n")
		_, err := loader.LoadStores(path)
		if err == nil || !strings.Contains(err.Error(), "header mismatch") {
			t.Fatalf("expected header mismatch error, got %v", err)
		}
	})

	t.Run("no data rows", func(t *testing.T) {
		path := writeCSV(t, "capacity.csv", "store_id,product_group,soll,ist\n")
		if _, err := loader.LoadCapacitySnapshots(path); err == nil {
			t.Fatalf("expected error for header-only file")
		}
	})

	t.Run("bad boolean", func(t *testing.T) {
		path := writeCSV(t, "demand.csv",
			"article_number,store_id,plan_qty,forecast_qty,on_hand,inbound,has_forecast\n"+
				"A1,S1,20,14,3,2,maybe\n")
		_, err := loader.LoadDemandLines(path)
		if err == nil || !strings.Contains(err.Error(), "has_forecast") {
			t.Fatalf("expected has_forecast parse error, got %v", err)
		}
	})

	t.Run("bad size curve", func(t *testing.T) {
		path := writeCSV(t, "articles.csv",
			"article_number,description,product_group,season,pack_size,space_per_unit,nos,avg_daily_forecast,size_curve\n"+
				"A1,Crew Tee,TOPS,SS26,6,1.5,false,4.2,S-0.2\n")
		if _, err := loader.LoadArticles(path); err == nil {
			t.Fatalf("expected size curve parse error")
		}
	})
}

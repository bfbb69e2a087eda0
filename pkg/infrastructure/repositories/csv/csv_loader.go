package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mbanner77/allocengine/pkg/domain/entities"
)

// Loader handles loading planning extracts from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadStores loads the store master from a CSV file
func (l *Loader) LoadStores(filename string) ([]*entities.Store, error) {
	records, err := readAll(filename, []string{
		"store_id", "name", "cluster", "closed", "transport_blocked", "delivery_blocked_until", "listed_seasons",
	})
	if err != nil {
		return nil, fmt.Errorf("stores CSV: %w", err)
	}

	var stores []*entities.Store
	for i, record := range records {
		closed, err := strconv.ParseBool(record[3])
		if err != nil {
			return nil, rowErr("stores", i, "closed", err)
		}
		transportBlocked, err := strconv.ParseBool(record[4])
		if err != nil {
			return nil, rowErr("stores", i, "transport_blocked", err)
		}
		var blockedUntil time.Time
		if record[5] != "" {
			blockedUntil, err = time.Parse("2006-01-02", record[5])
			if err != nil {
				return nil, rowErr("stores", i, "delivery_blocked_until", err)
			}
		}
		listed := make(map[entities.Season]bool)
		for _, season := range splitList(record[6]) {
			listed[entities.Season(season)] = true
		}

		stores = append(stores, &entities.Store{
			ID:                   entities.StoreID(record[0]),
			Name:                 record[1],
			Cluster:              record[2],
			Closed:               closed,
			TransportBlocked:     transportBlocked,
			DeliveryBlockedUntil: blockedUntil,
			ListedSeasons:        listed,
		})
	}
	return stores, nil
}

// LoadArticles loads the article master from a CSV file. The size curve
// column uses "size:share" pairs separated by semicolons.
func (l *Loader) LoadArticles(filename string) ([]*entities.Article, error) {
	records, err := readAll(filename, []string{
		"article_number", "description", "product_group", "season", "pack_size", "space_per_unit", "nos", "avg_daily_forecast", "size_curve",
	})
	if err != nil {
		return nil, fmt.Errorf("articles CSV: %w", err)
	}

	var articles []*entities.Article
	for i, record := range records {
		packSize, err := strconv.ParseInt(record[4], 10, 64)
		if err != nil {
			return nil, rowErr("articles", i, "pack_size", err)
		}
		spacePerUnit, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return nil, rowErr("articles", i, "space_per_unit", err)
		}
		nos, err := strconv.ParseBool(record[6])
		if err != nil {
			return nil, rowErr("articles", i, "nos", err)
		}
		forecast, err := strconv.ParseFloat(record[7], 64)
		if err != nil {
			return nil, rowErr("articles", i, "avg_daily_forecast", err)
		}
		curve, err := parseSizeCurve(record[8])
		if err != nil {
			return nil, rowErr("articles", i, "size_curve", err)
		}

		articles = append(articles, &entities.Article{
			ArticleNumber: entities.ArticleNumber(record[0]),
			Description:   record[1],
			ProductGroup:  entities.ProductGroup(record[2]),
			Season:        entities.Season(record[3]),
			PackSize:      entities.Quantity(packSize),
			SpacePerUnit:  spacePerUnit,
			NOS:           nos,
			AvgDailyFcst:  forecast,
			SizeCurve:     curve,
		})
	}
	return articles, nil
}

// LoadDemandLines loads plan/forecast demand from a CSV file
func (l *Loader) LoadDemandLines(filename string) ([]*entities.DemandLine, error) {
	records, err := readAll(filename, []string{
		"article_number", "store_id", "plan_qty", "forecast_qty", "on_hand", "inbound", "has_forecast",
	})
	if err != nil {
		return nil, fmt.Errorf("demand CSV: %w", err)
	}

	var lines []*entities.DemandLine
	for i, record := range records {
		quantities, err := parseQuantities(record[2:6])
		if err != nil {
			return nil, rowErr("demand", i, "quantities", err)
		}
		hasForecast, err := strconv.ParseBool(record[6])
		if err != nil {
			return nil, rowErr("demand", i, "has_forecast", err)
		}

		lines = append(lines, &entities.DemandLine{
			ArticleNumber: entities.ArticleNumber(record[0]),
			StoreID:       entities.StoreID(record[1]),
			PlanQty:       quantities[0],
			ForecastQty:   quantities[1],
			OnHand:        quantities[2],
			Inbound:       quantities[3],
			HasForecast:   hasForecast,
		})
	}
	return lines, nil
}

// LoadSupplySnapshots loads the warehouse supply snapshot from a CSV file
func (l *Loader) LoadSupplySnapshots(filename string) ([]*entities.SupplySnapshot, error) {
	records, err := readAll(filename, []string{
		"article_number", "on_hand", "confirmed_inbound", "planned_deliveries", "reservations", "external",
	})
	if err != nil {
		return nil, fmt.Errorf("supply CSV: %w", err)
	}

	takenAt := time.Now()
	var snapshots []*entities.SupplySnapshot
	for i, record := range records {
		quantities, err := parseQuantities(record[1:6])
		if err != nil {
			return nil, rowErr("supply", i, "quantities", err)
		}
		snapshots = append(snapshots, &entities.SupplySnapshot{
			ArticleNumber:     entities.ArticleNumber(record[0]),
			OnHand:            quantities[0],
			ConfirmedInbound:  quantities[1],
			PlannedDeliveries: quantities[2],
			Reservations:      quantities[3],
			External:          quantities[4],
			TakenAt:           takenAt,
		})
	}
	return snapshots, nil
}

// LoadCapacitySnapshots loads the SOLL/IST capacity snapshot from a CSV file
func (l *Loader) LoadCapacitySnapshots(filename string) ([]*entities.CapacitySnapshot, error) {
	records, err := readAll(filename, []string{"store_id", "product_group", "soll", "ist"})
	if err != nil {
		return nil, fmt.Errorf("capacity CSV: %w", err)
	}

	takenAt := time.Now()
	var snapshots []*entities.CapacitySnapshot
	for i, record := range records {
		soll, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, rowErr("capacity", i, "soll", err)
		}
		ist, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, rowErr("capacity", i, "ist", err)
		}
		snapshots = append(snapshots, &entities.CapacitySnapshot{
			StoreID:      entities.StoreID(record[0]),
			ProductGroup: entities.ProductGroup(record[1]),
			Soll:         soll,
			Ist:          ist,
			TakenAt:      takenAt,
		})
	}
	return snapshots, nil
}

// readAll opens the file, validates the header and returns the data rows
func readAll(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have a header and at least one data row", filename)
	}

	header := records[0]
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("header mismatch: expected %v, got %v", expectedHeader, header)
	}
	for i, col := range expectedHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("header mismatch: expected %v, got %v", expectedHeader, header)
		}
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("row %d: expected %d columns, got %d", i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func parseQuantities(fields []string) ([]entities.Quantity, error) {
	out := make([]entities.Quantity, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = entities.Quantity(value)
	}
	return out, nil
}

func parseSizeCurve(raw string) ([]entities.SizeShare, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var curve []entities.SizeShare
	for _, pair := range strings.Split(raw, ";") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid size curve entry %q", pair)
		}
		share, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size share %q: %w", parts[1], err)
		}
		curve = append(curve, entities.SizeShare{Size: parts[0], TargetShare: share})
	}
	return curve, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func rowErr(file string, row int, column string, err error) error {
	return fmt.Errorf("%s CSV row %d column %s: %w", file, row+2, column, err)
}

// Package stats computes dashboard and barangay tallies on demand from the
// current record set. Nothing is cached between calls.
package stats

import (
	"civicore/registry/schema"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// InMonth reports whether date (YYYY-MM-DD) falls in the calendar month and
// year of now. Dates that cannot be parsed never count.
func InMonth(date string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	return d.Year() == now.Year() && d.Month() == now.Month()
}

type DashboardCounts struct {
	TotalDocuments   int64 `json:"totalDocuments"`
	TotalUsers       int64 `json:"totalUsers"`
	TotalIssuances   int64 `json:"totalIssuances"`
	PendingIssuances int64 `json:"pendingIssuances"`
	IssuedThisMonth  int64 `json:"issuedThisMonth"`
}

type BarangayTally struct {
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Monthly int      `json:"monthly"`
	Total   int      `json:"total"`
}

type BarangayStats struct {
	Barangays   []BarangayTally `json:"barangays"`
	ActiveAreas int             `json:"activeAreas"`
}

// PerBarangay tallies issuances per barangay name. Issuances naming a barangay
// outside the list are ignored.
func PerBarangay(barangays []schema.Barangay, issuances []schema.Issuance, now time.Time) BarangayStats {
	index := make(map[string]int, len(barangays))
	tallies := make([]BarangayTally, 0, len(barangays))
	for _, b := range barangays {
		index[b.Name] = len(tallies)
		tallies = append(tallies, BarangayTally{Name: b.Name, Lat: b.Lat, Lng: b.Lng})
	}

	for _, issuance := range issuances {
		i, ok := index[issuance.Barangay]
		if !ok {
			continue
		}
		tallies[i].Total++
		if InMonth(issuance.IssuanceDate, now) {
			tallies[i].Monthly++
		}
	}

	active := 0
	for _, t := range tallies {
		if t.Monthly > 0 {
			active++
		}
	}

	return BarangayStats{Barangays: tallies, ActiveAreas: active}
}

type Aggregator struct {
	db *gorm.DB

	Now func() time.Time
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, Now: time.Now}
}

func (a *Aggregator) count(model interface{}, name string) (int64, error) {
	var count int64
	if result := a.db.Model(model).Count(&count); result.Error != nil {
		slog.Error("sql error counting records", "table", name, "error", result.Error)
		return 0, schema.ErrDbAccessFailed
	}
	return count, nil
}

func (a *Aggregator) DashboardCounts() (DashboardCounts, error) {
	var counts DashboardCounts
	var err error

	if counts.TotalDocuments, err = a.count(&schema.Document{}, "documents"); err != nil {
		return DashboardCounts{}, err
	}
	if counts.TotalUsers, err = a.count(&schema.User{}, "users"); err != nil {
		return DashboardCounts{}, err
	}

	var issuances []schema.Issuance
	if result := a.db.Select("status", "issuance_date").Find(&issuances); result.Error != nil {
		slog.Error("sql error loading issuances for dashboard", "error", result.Error)
		return DashboardCounts{}, schema.ErrDbAccessFailed
	}

	now := a.Now()
	counts.TotalIssuances = int64(len(issuances))
	for _, issuance := range issuances {
		if issuance.Status == schema.StatusPending {
			counts.PendingIssuances++
		}
		if InMonth(issuance.IssuanceDate, now) {
			counts.IssuedThisMonth++
		}
	}

	return counts, nil
}

func (a *Aggregator) PerBarangay(barangays []schema.Barangay) (BarangayStats, error) {
	var issuances []schema.Issuance
	if result := a.db.Select("barangay", "issuance_date").Find(&issuances); result.Error != nil {
		slog.Error("sql error loading issuances for barangay stats", "error", result.Error)
		return BarangayStats{}, schema.ErrDbAccessFailed
	}
	return PerBarangay(barangays, issuances, a.Now()), nil
}

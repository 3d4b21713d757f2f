package tests

import (
	"civicore/registry/schema"
	"civicore/registry/services"
	"net/http"
	"testing"
	"time"
)

func TestBarangays(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	var barangays []services.BarangayInfo
	if err := admin.Get("/barangays").Do(&barangays); err != nil {
		t.Fatal(err)
	}
	if len(barangays) != 30 || barangays[0].Lat == nil {
		t.Fatalf("expected the built in barangays with coordinates, got %d", len(barangays))
	}
}

func TestTemplates(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	clerk, err := env.newUser(admin, "clerk", schema.Admin)
	if err != nil {
		t.Fatal(err)
	}

	var templates map[string]string
	if err := clerk.Get("/templates").Do(&templates); err != nil {
		t.Fatal(err)
	}
	for _, docType := range []string{schema.DocBirth, schema.DocDeath, schema.DocMarriage} {
		if templates[docType] == "" {
			t.Fatalf("missing default %v template", docType)
		}
	}

	update := map[string]string{"content": "Certified true copy for {{name}}"}
	if err := clerk.Put("/templates/birth").Json(update).Do(nil); status(err) != http.StatusForbidden {
		t.Fatalf("only super admins edit templates, got %v", err)
	}
	if err := admin.Put("/templates/birth").Json(update).Do(nil); err != nil {
		t.Fatal(err)
	}
	if err := admin.Put("/templates/adoption").Json(update).Do(nil); status(err) != http.StatusNotFound {
		t.Fatalf("unknown template should be not found, got %v", err)
	}

	if err := clerk.Get("/templates").Do(&templates); err != nil {
		t.Fatal(err)
	}
	if templates[schema.DocBirth] != update["content"] {
		t.Fatalf("template not updated: %v", templates[schema.DocBirth])
	}
}

func TestStats(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	lastYear := now.AddDate(-1, 0, 0).Format("2006-01-02")

	for _, body := range []map[string]string{
		{"certNumber": "BC-1", "type": schema.DocBirth, "name": "A", "barangay": "Halang"},
		{"certNumber": "BC-2", "type": schema.DocBirth, "name": "B", "barangay": "Halang", "status": schema.StatusPending},
		{"certNumber": "BC-3", "type": schema.DocBirth, "name": "C", "barangay": "Halang", "issuanceDate": lastYear},
	} {
		if _, err := admin.issue(body); err != nil {
			t.Fatal(err)
		}
	}

	var counts struct {
		TotalDocuments   int `json:"totalDocuments"`
		TotalUsers       int `json:"totalUsers"`
		TotalIssuances   int `json:"totalIssuances"`
		PendingIssuances int `json:"pendingIssuances"`
		IssuedThisMonth  int `json:"issuedThisMonth"`
	}
	if err := admin.Get("/stats/dashboard").Do(&counts); err != nil {
		t.Fatal(err)
	}
	if counts.TotalUsers != 1 || counts.TotalIssuances != 3 || counts.PendingIssuances != 1 || counts.IssuedThisMonth != 2 {
		t.Fatalf("unexpected dashboard counts %+v", counts)
	}

	var perBarangay struct {
		Barangays []struct {
			Name    string `json:"name"`
			Monthly int    `json:"monthly"`
			Total   int    `json:"total"`
		} `json:"barangays"`
		ActiveAreas int `json:"activeAreas"`
		Center      struct {
			Lat float64 `json:"lat"`
		} `json:"center"`
	}
	if err := admin.Get("/stats/barangays").Do(&perBarangay); err != nil {
		t.Fatal(err)
	}
	if perBarangay.ActiveAreas != 1 || perBarangay.Center.Lat == 0 {
		t.Fatalf("unexpected barangay stats %+v", perBarangay)
	}
	for _, b := range perBarangay.Barangays {
		if b.Name == "Halang" && (b.Monthly != 2 || b.Total != 3) {
			t.Fatalf("unexpected Halang tally %+v", b)
		}
	}

	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}
	if err := user.Get("/stats/barangays").Do(nil); status(err) != http.StatusForbidden {
		t.Fatalf("mapping requires mapping analytics, got %v", err)
	}
}

func TestBarangayMapIgnoresStoredRows(t *testing.T) {
	env := setupTestEnv(t)

	if err := env.db.Create(&schema.Barangay{Name: "Halang"}).Error; err != nil {
		t.Fatal(err)
	}

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.issue(map[string]string{"certNumber": "BC-1", "type": schema.DocBirth, "name": "A", "barangay": "Halang"}); err != nil {
		t.Fatal(err)
	}

	var stored []services.BarangayInfo
	if err := admin.Get("/barangays").Do(&stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].Lat != nil {
		t.Fatalf("expected the single stored barangay, got %+v", stored)
	}

	var perBarangay struct {
		Barangays []struct {
			Name  string   `json:"name"`
			Lat   *float64 `json:"lat"`
			Lng   *float64 `json:"lng"`
			Total int      `json:"total"`
		} `json:"barangays"`
	}
	if err := admin.Get("/stats/barangays").Do(&perBarangay); err != nil {
		t.Fatal(err)
	}
	if len(perBarangay.Barangays) != 30 {
		t.Fatalf("expected 30 map markers, got %d", len(perBarangay.Barangays))
	}
	halang := false
	for _, b := range perBarangay.Barangays {
		if b.Lat == nil || b.Lng == nil {
			t.Fatalf("map marker %v has no coordinates", b.Name)
		}
		if b.Name == "Halang" {
			halang = true
			if b.Total != 1 {
				t.Fatalf("unexpected Halang total %d", b.Total)
			}
		}
	}
	if !halang {
		t.Fatal("Halang missing from map markers")
	}
}

package tests

import (
	"civicore/registry/schema"
	"fmt"
	"net/http"
	"testing"
)

const previewPixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

type documentInfo struct {
	Id          uint                   `json:"id"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Date        string                 `json:"date"`
	Status      string                 `json:"status"`
	PreviewData string                 `json:"previewData"`
	PersonName  string                 `json:"personName"`
	Barangay    string                 `json:"barangay"`
	Metadata    map[string]interface{} `json:"metadata"`
}

func TestDocumentUploadAndDelete(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	var created messageResponse
	err = admin.Post("/documents").Json(map[string]interface{}{
		"name": "scan_birth.png", "type": schema.DocBirth, "size": "88 KB", "previewData": previewPixel,
		"metadata": map[string]interface{}{"pages": 2},
	}).Do(&created)
	if err != nil {
		t.Fatal(err)
	}

	var docs []documentInfo
	if err := admin.Get("/documents").Do(&docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	doc := docs[0]
	if doc.Id != created.Id || doc.PreviewData != previewPixel || doc.Status != schema.StatusProcessed {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.PersonName != "Extracted Name" || doc.Barangay != "Poblacion" || doc.Metadata["pages"] != float64(2) {
		t.Fatalf("unexpected document defaults %+v", doc)
	}

	if err := admin.Delete(fmt.Sprintf("/documents/%d", doc.Id)).Do(nil); err != nil {
		t.Fatal(err)
	}
	if err := admin.Delete(fmt.Sprintf("/documents/%d", doc.Id)).Do(nil); status(err) != http.StatusNotFound {
		t.Fatalf("deleting twice should be not found, got %v", err)
	}

	if err := admin.Get("/documents").Do(&docs); err != nil || len(docs) != 0 {
		t.Fatalf("expected no documents, got %v %v", docs, err)
	}
}

func TestDocumentPermissions(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}

	err = user.Post("/documents").Json(map[string]string{"name": "x.png"}).Do(nil)
	if status(err) != http.StatusForbidden {
		t.Fatalf("regular users cannot upload, got %v", err)
	}

	if err := user.Get("/documents").Do(nil); err != nil {
		t.Fatalf("any user can view documents: %v", err)
	}

	err = admin.Post("/documents").Json(map[string]string{"name": "x.png", "previewData": "garbage"}).Do(nil)
	if status(err) != http.StatusBadRequest {
		t.Fatalf("bad preview should be rejected, got %v", err)
	}

	err = admin.Post("/documents").Json(map[string]string{"type": schema.DocDeath}).Do(nil)
	if status(err) != http.StatusBadRequest {
		t.Fatalf("missing name should be rejected, got %v", err)
	}
}

package records

import (
	"civicore/registry/schema"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func TestCreateDocumentDefaults(t *testing.T) {
	store := documentStore(t)

	doc, err := store.Create(DocumentRequest{Name: "scan.png", Size: "120 KB"})
	require.NoError(t, err)

	assert.Equal(t, schema.DocUncategorized, doc.Type)
	assert.Equal(t, schema.StatusProcessed, doc.Status)
	assert.Equal(t, "2026-03-03", doc.Date)
	assert.Equal(t, DefaultPersonName, doc.PersonName)
	assert.Equal(t, DefaultBarangay, doc.Barangay)
	assert.Empty(t, doc.PreviewKey)
}

func TestCreateDocumentValidation(t *testing.T) {
	store := documentStore(t)

	bad := []DocumentRequest{
		{},
		{Name: " "},
		{Name: "a.png", Type: "passport"},
		{Name: "a.png", Status: "Issued"},
		{Name: "a.png", Date: "yesterday"},
		{Name: "a.png", PreviewData: "not a data url"},
		{Name: "a.png", Metadata: json.RawMessage(`{"broken"`)},
	}
	for _, req := range bad {
		_, err := store.Create(req)
		assert.ErrorIs(t, err, schema.ErrInvalidInput, req)
	}
}

func TestDocumentPreviewLifecycle(t *testing.T) {
	store := documentStore(t)

	doc, err := store.Create(DocumentRequest{
		Name: "birth.png", Type: schema.DocBirth, PreviewData: pixel,
		Metadata: json.RawMessage(`{"pages":1}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, doc.PreviewKey)

	docs, err := store.List()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, pixel, docs[0].PreviewData)
	assert.JSONEq(t, `{"pages":1}`, string(docs[0].Metadata))

	require.NoError(t, store.Delete(doc.Id))

	loaded, err := store.previews.Load(doc.PreviewKey)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	docs, err = store.List()
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.ErrorIs(t, store.Delete(doc.Id), schema.ErrDocumentNotFound)
}

func TestDeleteWithMissingPreview(t *testing.T) {
	store := documentStore(t)

	doc, err := store.Create(DocumentRequest{Name: "death.png", Type: schema.DocDeath, PreviewData: pixel})
	require.NoError(t, err)
	require.NoError(t, store.previews.Delete(doc.PreviewKey))

	view, err := store.Get(doc.Id)
	require.NoError(t, err)
	assert.Empty(t, view.PreviewData)

	assert.NoError(t, store.Delete(doc.Id))
}

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReferenceData(t *testing.T) {
	data, err := LoadReferenceData()
	require.NoError(t, err)

	require.Len(t, data.Barangays, 30)
	assert.Equal(t, "Gomez-Zamora (Pob.)", data.Barangays[0].Name)

	names := map[string]bool{}
	for _, b := range data.Barangays {
		assert.False(t, names[b.Name], "duplicate barangay %v", b.Name)
		names[b.Name] = true

		require.NotNil(t, b.Lat)
		require.NotNil(t, b.Lng)
		assert.True(t, *b.Lat >= data.Map.Bounds[0].Lat && *b.Lat <= data.Map.Bounds[1].Lat, b.Name)
		assert.True(t, *b.Lng >= data.Map.Bounds[0].Lng && *b.Lng <= data.Map.Bounds[1].Lng, b.Name)
	}

	pob := 0
	for name := range names {
		if strings.Contains(name, "(Pob.)") {
			pob++
		}
	}
	assert.Equal(t, 2, pob)

	assert.Equal(t, Coordinate{Lat: 14.3150, Lng: 120.7700}, data.Map.Center)

	types := []string{}
	for _, tmpl := range data.Templates {
		types = append(types, tmpl.Type)
		assert.NotEmpty(t, tmpl.Content)
	}
	assert.ElementsMatch(t, []string{"birth", "death", "marriage"}, types)
}

// Package config holds the reference data compiled into the binary: the
// municipality's barangays with map coordinates and the default certificate
// templates.
package config

import (
	"bytes"
	"civicore/registry/schema"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed barangays.yaml
var barangaysYaml []byte

//go:embed templates.yaml
var templatesYaml []byte

type Coordinate struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

type MapView struct {
	Center Coordinate    `yaml:"center" json:"center"`
	Bounds [2]Coordinate `yaml:"bounds" json:"bounds"`
}

type barangayFile struct {
	Municipality string  `yaml:"municipality"`
	Map          MapView `yaml:"map"`
	Entries      []struct {
		Name string  `yaml:"name"`
		Lat  float64 `yaml:"lat"`
		Lng  float64 `yaml:"lng"`
	} `yaml:"barangays"`
}

type templateFile struct {
	Templates []struct {
		Type    string `yaml:"type"`
		Content string `yaml:"content"`
	} `yaml:"templates"`
}

type ReferenceData struct {
	Municipality string
	Map          MapView
	// Used whenever the barangays table is empty.
	Barangays []schema.Barangay
	Templates []schema.Template
}

func decodeStrict(data []byte, dest interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(dest)
}

func LoadReferenceData() (*ReferenceData, error) {
	var barangays barangayFile
	if err := decodeStrict(barangaysYaml, &barangays); err != nil {
		return nil, fmt.Errorf("error decoding barangay reference data: %w", err)
	}

	var templates templateFile
	if err := decodeStrict(templatesYaml, &templates); err != nil {
		return nil, fmt.Errorf("error decoding template reference data: %w", err)
	}

	data := &ReferenceData{
		Municipality: barangays.Municipality,
		Map:          barangays.Map,
		Barangays:    make([]schema.Barangay, 0, len(barangays.Entries)),
		Templates:    make([]schema.Template, 0, len(templates.Templates)),
	}

	for _, entry := range barangays.Entries {
		lat, lng := entry.Lat, entry.Lng
		data.Barangays = append(data.Barangays, schema.Barangay{Name: entry.Name, Lat: &lat, Lng: &lng})
	}
	for _, t := range templates.Templates {
		data.Templates = append(data.Templates, schema.Template{Type: t.Type, Content: t.Content})
	}

	return data, nil
}

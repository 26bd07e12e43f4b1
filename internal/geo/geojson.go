// Package geo converts granule footprints into GeoJSON for map display.
package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   *Geometry      `json:"geometry"`
}

// Geometry is a GeoJSON Polygon geometry in lon/lat order.
type Geometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// FeatureCollection is the root GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// FootprintCollection builds one polygon feature per granule that has a
// footprint or bounding box. Each feature carries a result_idx property
// pointing back at the granule's position in the search results, so map
// selection can round-trip to the results list.
func FootprintCollection(granules []model.Granule) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for i, g := range granules {
		geom := footprintGeometry(g)
		if geom == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Properties: map[string]any{
				"result_idx": i,
				"granule_id": g.DisplayID(),
			},
			Geometry: geom,
		})
	}
	return fc
}

func footprintGeometry(g model.Granule) *Geometry {
	if len(g.Footprint) >= 3 {
		ring := make([][2]float64, 0, len(g.Footprint)+1)
		for _, p := range g.Footprint {
			ring = append(ring, [2]float64{p.Lon, p.Lat})
		}
		// GeoJSON rings must be closed.
		if ring[0] != ring[len(ring)-1] {
			ring = append(ring, ring[0])
		}
		return &Geometry{Type: "Polygon", Coordinates: [][][2]float64{ring}}
	}
	if g.BBox != nil {
		b := *g.BBox
		ring := [][2]float64{
			{b.West, b.South},
			{b.East, b.South},
			{b.East, b.North},
			{b.West, b.North},
			{b.West, b.South},
		}
		return &Geometry{Type: "Polygon", Coordinates: [][][2]float64{ring}}
	}
	return nil
}

// WriteFootprints serializes the granule footprints to a GeoJSON file in
// dir and returns its path. An empty dir falls back to the OS temp dir.
func WriteFootprints(granules []model.Granule, dir string) (string, error) {
	fc := FootprintCollection(granules)
	if len(fc.Features) == 0 {
		return "", fmt.Errorf("no granules carry spatial geometry")
	}

	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create footprint dir: %w", err)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("encode footprints: %w", err)
	}

	path := filepath.Join(dir, "earthdata_footprints.geojson")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write footprints: %w", err)
	}
	return path, nil
}

// ResultsExtent returns the union of all granule extents, grown by a 10%
// margin so footprints never touch the viewport edge after zooming.
func ResultsExtent(granules []model.Granule) (model.BoundingBox, bool) {
	var union *model.BoundingBox
	for _, g := range granules {
		box := g.FootprintBox()
		if box == nil {
			continue
		}
		if union == nil {
			b := *box
			union = &b
		} else {
			union.Union(*box)
		}
	}
	if union == nil {
		return model.BoundingBox{}, false
	}
	return union.Buffered(0.1), true
}

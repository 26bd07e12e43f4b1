package ui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/geo"
	"github.com/opengeos/earthdata-desktop/internal/model"
	"github.com/opengeos/earthdata-desktop/internal/raster"
)

// MapCanvas is the surface search results are drawn on. The desktop build
// ships with a stub; an embedded map view can plug in here without touching
// the rest of the UI.
type MapCanvas interface {
	// SetExtent pans and zooms the view to the given bounding box.
	SetExtent(box model.BoundingBox)

	// CurrentExtent returns the visible bounding box, false when the
	// canvas has no view yet.
	CurrentExtent() (model.BoundingBox, bool)

	// ShowFootprints replaces the footprint overlay with the collection.
	ShowFootprints(fc geo.FeatureCollection)

	// ShowRaster adds a raster layer; gdalConfig carries the options a
	// GDAL-backed renderer needs for authenticated remote reads.
	ShowRaster(layer raster.Layer, gdalConfig map[string]string)

	// Clear removes all overlays and raster layers.
	Clear()
}

// NullMapCanvas remembers what it was told to draw but renders nothing.
// It keeps the UI fully functional when no map backend is available and
// doubles as a test observer.
type NullMapCanvas struct {
	mu         sync.Mutex
	extent     *model.BoundingBox
	footprints *geo.FeatureCollection
	layers     []raster.Layer
}

// NewNullMapCanvas creates an empty no-op canvas.
func NewNullMapCanvas() *NullMapCanvas {
	return &NullMapCanvas{}
}

// SetExtent records the requested view.
func (m *NullMapCanvas) SetExtent(box model.BoundingBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extent = &box
}

// CurrentExtent returns the last extent set, if any.
func (m *NullMapCanvas) CurrentExtent() (model.BoundingBox, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.extent == nil {
		return model.BoundingBox{}, false
	}
	return *m.extent, true
}

// ShowFootprints records the overlay collection.
func (m *NullMapCanvas) ShowFootprints(fc geo.FeatureCollection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.footprints = &fc
}

// Footprints returns the last overlay shown, if any.
func (m *NullMapCanvas) Footprints() (geo.FeatureCollection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.footprints == nil {
		return geo.FeatureCollection{}, false
	}
	return *m.footprints, true
}

// ShowRaster records the layer.
func (m *NullMapCanvas) ShowRaster(layer raster.Layer, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers = append(m.layers, layer)
}

// Layers returns the raster layers added since the last Clear.
func (m *NullMapCanvas) Layers() []raster.Layer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]raster.Layer(nil), m.layers...)
}

// Clear drops everything recorded so far.
func (m *NullMapCanvas) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extent = nil
	m.footprints = nil
	m.layers = nil
}

// FileMapCanvas is the default desktop canvas. It records state like
// NullMapCanvas and additionally writes each footprint collection to a
// GeoJSON file so an external GIS can pick it up.
type FileMapCanvas struct {
	NullMapCanvas
	dir string
	log zerolog.Logger
}

// NewFileMapCanvas creates a canvas writing its handoff files under dir.
func NewFileMapCanvas(dir string, log zerolog.Logger) *FileMapCanvas {
	return &FileMapCanvas{
		dir: dir,
		log: log.With().Str("component", "map").Logger(),
	}
}

// ShowFootprints records the collection and writes the handoff file.
func (m *FileMapCanvas) ShowFootprints(fc geo.FeatureCollection) {
	m.NullMapCanvas.ShowFootprints(fc)

	path := filepath.Join(m.dir, "earthdata_footprints.geojson")
	data, err := json.MarshalIndent(fc, "", "  ")
	if err == nil {
		err = os.WriteFile(path, data, 0o644)
	}
	if err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("could not write footprint file")
		return
	}
	m.log.Debug().Str("path", path).Int("features", len(fc.Features)).Msg("footprints written")
}

// ShowRaster records the layer and logs the vsicurl reference.
func (m *FileMapCanvas) ShowRaster(layer raster.Layer, gdalConfig map[string]string) {
	m.NullMapCanvas.ShowRaster(layer, gdalConfig)
	m.log.Info().Str("layer", layer.Name).Str("path", layer.VSIPath).Msg("raster layer ready")
}

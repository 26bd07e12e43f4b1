package ui

import (
	"testing"

	"github.com/opengeos/earthdata-desktop/internal/geo"
	"github.com/opengeos/earthdata-desktop/internal/model"
	"github.com/opengeos/earthdata-desktop/internal/raster"
)

func TestNullMapCanvasRecordsState(t *testing.T) {
	mc := NewNullMapCanvas()

	if _, ok := mc.CurrentExtent(); ok {
		t.Error("fresh canvas should have no extent")
	}

	box := model.BoundingBox{West: -120, South: 33, East: -117, North: 35}
	mc.SetExtent(box)
	got, ok := mc.CurrentExtent()
	if !ok || got != box {
		t.Errorf("CurrentExtent() = %+v, %v; want %+v, true", got, ok, box)
	}

	mc.ShowFootprints(geo.FeatureCollection{Type: "FeatureCollection"})
	if _, ok := mc.Footprints(); !ok {
		t.Error("footprints not recorded")
	}

	mc.ShowRaster(raster.Layer{Name: "granule.tif", VSIPath: "/vsicurl/https://example.com/granule.tif"}, nil)
	if layers := mc.Layers(); len(layers) != 1 || layers[0].Name != "granule.tif" {
		t.Errorf("Layers() = %+v, want one granule.tif layer", layers)
	}

	mc.Clear()
	if _, ok := mc.CurrentExtent(); ok {
		t.Error("Clear should drop the extent")
	}
	if layers := mc.Layers(); len(layers) != 0 {
		t.Errorf("Clear should drop layers, got %d", len(layers))
	}
}

func TestStatusFilterNames(t *testing.T) {
	cases := map[StatusFilter]string{
		FilterAll:       "All",
		FilterActive:    "Active",
		FilterCompleted: "Completed",
		FilterFailed:    "Failed",
	}
	for filter, want := range cases {
		if got := filter.String(); got != want {
			t.Errorf("StatusFilter(%d).String() = %q, want %q", filter, got, want)
		}
	}
}

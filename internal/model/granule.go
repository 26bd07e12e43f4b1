package model

import (
	"fmt"
	"strings"
	"time"
)

// Point is a single lon/lat vertex of a footprint polygon.
type Point struct {
	Lon float64
	Lat float64
}

// Granule is one search result from the CMR catalog. Granules are immutable
// once retrieved; the UI holds them in an ordered slice that is replaced
// wholesale on every new search.
type Granule struct {
	ConceptID string
	NativeID  string
	Title     string // GranuleUR

	BeginningDateTime time.Time
	EndingDateTime    time.Time

	// Footprint is the polygon ring when the granule carries a GPolygon;
	// BBox is set when it carries bounding rectangles (or derived from the
	// polygon). Either may be nil for granules without spatial metadata.
	Footprint []Point
	BBox      *BoundingBox

	SizeBytes    int64
	DayNightFlag string
	CloudCover   *float64

	DataLinks   []string
	BrowseLinks []string
}

// Date returns the acquisition date (yyyy-mm-dd) for the results table.
func (g *Granule) Date() string {
	if g.BeginningDateTime.IsZero() {
		return "N/A"
	}
	return g.BeginningDateTime.UTC().Format("2006-01-02")
}

// DisplaySize formats SizeBytes the way the results table shows it.
// Decimal units, matching how archive sizes are reported by the catalog.
func (g *Granule) DisplaySize() string {
	switch {
	case g.SizeBytes <= 0:
		return "N/A"
	case g.SizeBytes > 1e9:
		return fmt.Sprintf("%.1f GB", float64(g.SizeBytes)/1e9)
	case g.SizeBytes > 1e6:
		return fmt.Sprintf("%.1f MB", float64(g.SizeBytes)/1e6)
	default:
		return fmt.Sprintf("%.1f KB", float64(g.SizeBytes)/1e3)
	}
}

// DisplayID returns the identifier shown in the results table.
func (g *Granule) DisplayID() string {
	if g.NativeID != "" {
		return g.NativeID
	}
	if g.Title != "" {
		return g.Title
	}
	return g.ConceptID
}

// FootprintBox returns the spatial extent of the granule, deriving it from
// the polygon ring when no bounding rectangle was provided.
func (g *Granule) FootprintBox() *BoundingBox {
	if g.BBox != nil {
		return g.BBox
	}
	if len(g.Footprint) == 0 {
		return nil
	}
	box := BoundingBox{
		West:  g.Footprint[0].Lon,
		South: g.Footprint[0].Lat,
		East:  g.Footprint[0].Lon,
		North: g.Footprint[0].Lat,
	}
	for _, p := range g.Footprint[1:] {
		box.Union(BoundingBox{West: p.Lon, South: p.Lat, East: p.Lon, North: p.Lat})
	}
	return &box
}

// FileNameFromURL extracts the bare file name of an asset link, dropping any
// query string. Used for layer names and download destinations.
func FileNameFromURL(link string) string {
	if i := strings.Index(link, "?"); i >= 0 {
		link = link[:i]
	}
	if i := strings.LastIndex(link, "/"); i >= 0 {
		link = link[i+1:]
	}
	return link
}

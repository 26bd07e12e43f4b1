package cmr

// UMM-JSON response types for the CMR granule search endpoint. Only the
// fields the plugin reads are modeled.

// GranuleResponse is the top-level granules.umm_json payload.
type GranuleResponse struct {
	Hits  int           `json:"hits"`
	Took  int           `json:"took"`
	Items []GranuleItem `json:"items"`
}

// GranuleItem pairs CMR bookkeeping metadata with the UMM-G record.
type GranuleItem struct {
	Meta Meta     `json:"meta"`
	UMM  UMMGraph `json:"umm"`
}

// Meta holds CMR-side identifiers for a granule.
type Meta struct {
	ConceptID  string `json:"concept-id"`
	NativeID   string `json:"native-id"`
	ProviderID string `json:"provider-id"`
}

// UMMGraph is the UMM-G metadata body.
type UMMGraph struct {
	GranuleUR      string          `json:"GranuleUR"`
	TemporalExtent *TemporalExtent `json:"TemporalExtent,omitempty"`
	SpatialExtent  *SpatialExtent  `json:"SpatialExtent,omitempty"`
	DataGranule    *DataGranule    `json:"DataGranule,omitempty"`
	CloudCover     *float64        `json:"CloudCover,omitempty"`
	RelatedUrls    []RelatedURL    `json:"RelatedUrls,omitempty"`
}

// TemporalExtent holds the granule acquisition time range.
type TemporalExtent struct {
	RangeDateTime *RangeDateTime `json:"RangeDateTime,omitempty"`
}

// RangeDateTime is the begin/end pair inside a temporal extent.
type RangeDateTime struct {
	BeginningDateTime string `json:"BeginningDateTime"`
	EndingDateTime    string `json:"EndingDateTime"`
}

// SpatialExtent wraps the horizontal spatial domain.
type SpatialExtent struct {
	HorizontalSpatialDomain *HorizontalSpatialDomain `json:"HorizontalSpatialDomain,omitempty"`
}

// HorizontalSpatialDomain wraps the footprint geometry.
type HorizontalSpatialDomain struct {
	Geometry *Geometry `json:"Geometry,omitempty"`
}

// Geometry carries either bounding rectangles or polygons; granules provide
// one or the other.
type Geometry struct {
	BoundingRectangles []BoundingRectangle `json:"BoundingRectangles,omitempty"`
	GPolygons          []GPolygon          `json:"GPolygons,omitempty"`
}

// BoundingRectangle is a lon/lat rectangle footprint.
type BoundingRectangle struct {
	WestBoundingCoordinate  float64 `json:"WestBoundingCoordinate"`
	SouthBoundingCoordinate float64 `json:"SouthBoundingCoordinate"`
	EastBoundingCoordinate  float64 `json:"EastBoundingCoordinate"`
	NorthBoundingCoordinate float64 `json:"NorthBoundingCoordinate"`
}

// GPolygon is a polygon footprint with an outer boundary ring.
type GPolygon struct {
	Boundary Boundary `json:"Boundary"`
}

// Boundary is the vertex ring of a GPolygon.
type Boundary struct {
	Points []GeoPoint `json:"Points"`
}

// GeoPoint is a single polygon vertex.
type GeoPoint struct {
	Longitude float64 `json:"Longitude"`
	Latitude  float64 `json:"Latitude"`
}

// DataGranule holds file-level metadata.
type DataGranule struct {
	DayNightFlag                      string                   `json:"DayNightFlag,omitempty"`
	ArchiveAndDistributionInformation []ArchiveAndDistribution `json:"ArchiveAndDistributionInformation,omitempty"`
}

// ArchiveAndDistribution describes one archived file of the granule.
type ArchiveAndDistribution struct {
	Name        string  `json:"Name,omitempty"`
	SizeInBytes int64   `json:"SizeInBytes,omitempty"`
	Size        float64 `json:"Size,omitempty"`
	SizeUnit    string  `json:"SizeUnit,omitempty"`
}

// RelatedURL is a link attached to the granule: data assets, browse images,
// metadata documents.
type RelatedURL struct {
	URL         string `json:"URL"`
	Type        string `json:"Type"`
	Subtype     string `json:"Subtype,omitempty"`
	Description string `json:"Description,omitempty"`
}

// RelatedURL Type values the plugin cares about.
const (
	URLTypeGetData       = "GET DATA"
	URLTypeVisualization = "GET RELATED VISUALIZATION"
)

// errorResponse is CMR's error payload shape.
type errorResponse struct {
	Errors []string `json:"errors"`
}

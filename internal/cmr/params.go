package cmr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

// SearchParams represents the filters for a CMR granule query. A fresh value
// is built for every search; nothing here is persisted.
type SearchParams struct {
	// Dataset identification
	ShortName string // collection short name, e.g. "HLSL30"
	Version   string // collection version, e.g. "2.0"
	Provider  string // data provider, e.g. "LPCLOUD"

	// Spatial filter
	BoundingBox *model.BoundingBox

	// Temporal filter (inclusive)
	Start *time.Time
	End   *time.Time

	// Advanced filters
	CloudCoverMin  *int
	CloudCoverMax  *int
	DayNightFlag   string // "Day", "Night" or "Unspecified"
	GranulePattern string // granule UR pattern, wildcards allowed ("*")

	// Orbit number: single value when OrbitMax is zero, range otherwise
	OrbitMin int
	OrbitMax int

	// Result limiting
	PageSize int
}

// Validate checks that the parameters can form a well-formed query.
func (p SearchParams) Validate() error {
	if strings.TrimSpace(p.ShortName) == "" {
		return fmt.Errorf("short name is required")
	}
	if p.BoundingBox != nil {
		if err := p.BoundingBox.Validate(); err != nil {
			return fmt.Errorf("invalid bounding box: %w", err)
		}
	}
	if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
		return fmt.Errorf("end date %s is before start date %s",
			p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
	}
	return nil
}

// ToURLValues converts SearchParams to url.Values. Values pass through
// unmodified; only the encoding is CMR's.
func (p SearchParams) ToURLValues() url.Values {
	values := url.Values{}

	values.Set("short_name", p.ShortName)

	if p.Version != "" {
		values.Set("version", p.Version)
	}
	if p.Provider != "" {
		values.Set("provider", p.Provider)
	}

	if p.BoundingBox != nil {
		values.Set("bounding_box", p.BoundingBox.String())
	}

	if p.Start != nil || p.End != nil {
		values.Set("temporal", formatCMRTime(p.Start)+","+formatCMRTime(p.End))
	}

	if p.CloudCoverMin != nil || p.CloudCoverMax != nil {
		min, max := "", ""
		if p.CloudCoverMin != nil {
			min = strconv.Itoa(*p.CloudCoverMin)
		}
		if p.CloudCoverMax != nil {
			max = strconv.Itoa(*p.CloudCoverMax)
		}
		values.Set("cloud_cover", min+","+max)
	}

	if p.DayNightFlag != "" {
		values.Set("day_night_flag", p.DayNightFlag)
	}

	if p.GranulePattern != "" {
		values.Set("readable_granule_name", p.GranulePattern)
		if strings.ContainsAny(p.GranulePattern, "*?") {
			values.Set("options[readable_granule_name][pattern]", "true")
		}
	}

	if p.OrbitMin > 0 && p.OrbitMax > 0 {
		values.Set("orbit_number[]", strconv.Itoa(p.OrbitMin)+","+strconv.Itoa(p.OrbitMax))
	} else if p.OrbitMin > 0 {
		values.Set("orbit_number", strconv.Itoa(p.OrbitMin))
	} else if p.OrbitMax > 0 {
		values.Set("orbit_number", strconv.Itoa(p.OrbitMax))
	}

	if p.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(p.PageSize))
	}

	return values
}

// formatCMRTime formats a time for CMR temporal queries (ISO 8601, UTC).
// A nil bound renders as the empty string, leaving the range open.
func formatCMRTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

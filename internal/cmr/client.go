// Package cmr implements the client for NASA's Common Metadata Repository
// granule search endpoint.
package cmr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

// DefaultBaseURL is the public CMR search endpoint.
const DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

const userAgent = "earthdata-desktop/1.0"

// Client handles communication with the CMR search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a new CMR client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

// SearchGranules executes a granule search and maps the UMM-JSON records to
// model granules. The records come back in CMR's order.
func (c *Client) SearchGranules(ctx context.Context, params SearchParams) ([]model.Granule, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	searchURL := c.baseURL + "/granules.umm_json?" + params.ToURLValues().Encode()

	c.log.Debug().Str("url", searchURL).Msg("executing CMR granule search")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", searchURL).Msg("CMR request failed")
		return nil, fmt.Errorf("CMR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error().Int("status_code", resp.StatusCode).Msg("CMR returned non-200 status")
		return nil, fmt.Errorf("CMR returned status %d: %s", resp.StatusCode, cmrErrorText(body))
	}

	var payload GranuleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}

	granules := make([]model.Granule, 0, len(payload.Items))
	for i := range payload.Items {
		granules = append(granules, toGranule(&payload.Items[i]))
	}

	c.log.Debug().Int("granule_count", len(granules)).Int("hits", payload.Hits).Msg("CMR search completed")

	return granules, nil
}

// cmrErrorText extracts CMR's error messages from a failed response body,
// falling back to the raw body.
func cmrErrorText(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Errors) > 0 {
		return strings.Join(er.Errors, "; ")
	}
	return string(body)
}

// toGranule maps one UMM-JSON item to the model granule the rest of the
// plugin works with.
func toGranule(item *GranuleItem) model.Granule {
	g := model.Granule{
		ConceptID: item.Meta.ConceptID,
		NativeID:  item.Meta.NativeID,
		Title:     item.UMM.GranuleUR,
	}

	if te := item.UMM.TemporalExtent; te != nil && te.RangeDateTime != nil {
		g.BeginningDateTime = parseUMMTime(te.RangeDateTime.BeginningDateTime)
		g.EndingDateTime = parseUMMTime(te.RangeDateTime.EndingDateTime)
	}

	if geom := ummGeometry(item); geom != nil {
		if len(geom.BoundingRectangles) > 0 {
			g.BBox = rectanglesToBox(geom.BoundingRectangles)
		} else if len(geom.GPolygons) > 0 {
			for _, p := range geom.GPolygons[0].Boundary.Points {
				g.Footprint = append(g.Footprint, model.Point{Lon: p.Longitude, Lat: p.Latitude})
			}
		}
	}

	if dg := item.UMM.DataGranule; dg != nil {
		g.DayNightFlag = dg.DayNightFlag
		for _, info := range dg.ArchiveAndDistributionInformation {
			if info.SizeInBytes > 0 {
				g.SizeBytes = info.SizeInBytes
				break
			}
		}
	}

	g.CloudCover = item.UMM.CloudCover

	for _, ru := range item.UMM.RelatedUrls {
		if !strings.HasPrefix(ru.URL, "http") {
			continue
		}
		switch {
		case strings.HasPrefix(ru.Type, URLTypeGetData):
			g.DataLinks = append(g.DataLinks, ru.URL)
		case ru.Type == URLTypeVisualization:
			g.BrowseLinks = append(g.BrowseLinks, ru.URL)
		}
	}

	return g
}

func ummGeometry(item *GranuleItem) *Geometry {
	se := item.UMM.SpatialExtent
	if se == nil || se.HorizontalSpatialDomain == nil {
		return nil
	}
	return se.HorizontalSpatialDomain.Geometry
}

// rectanglesToBox unions all bounding rectangles into one box, matching how
// multi-rectangle granules are displayed.
func rectanglesToBox(rects []BoundingRectangle) *model.BoundingBox {
	box := model.BoundingBox{
		West:  rects[0].WestBoundingCoordinate,
		South: rects[0].SouthBoundingCoordinate,
		East:  rects[0].EastBoundingCoordinate,
		North: rects[0].NorthBoundingCoordinate,
	}
	for _, r := range rects[1:] {
		box.Union(model.BoundingBox{
			West:  r.WestBoundingCoordinate,
			South: r.SouthBoundingCoordinate,
			East:  r.EastBoundingCoordinate,
			North: r.NorthBoundingCoordinate,
		})
	}
	return &box
}

// parseUMMTime parses UMM datetimes, which appear both with and without
// fractional seconds.
func parseUMMTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

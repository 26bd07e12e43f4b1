package cmr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

const sampleResponse = `{
  "hits": 2,
  "took": 12,
  "items": [
    {
      "meta": {"concept-id": "G100-LPCLOUD", "native-id": "HLS.L30.T11SLT.2024001T181225.v2.0", "provider-id": "LPCLOUD"},
      "umm": {
        "GranuleUR": "HLS.L30.T11SLT.2024001T181225.v2.0",
        "TemporalExtent": {"RangeDateTime": {"BeginningDateTime": "2024-01-01T18:12:25.085Z", "EndingDateTime": "2024-01-01T18:12:49.027Z"}},
        "SpatialExtent": {"HorizontalSpatialDomain": {"Geometry": {"BoundingRectangles": [
          {"WestBoundingCoordinate": -118.1, "SouthBoundingCoordinate": 33.6, "EastBoundingCoordinate": -116.9, "NorthBoundingCoordinate": 34.6}
        ]}}},
        "DataGranule": {"DayNightFlag": "Day", "ArchiveAndDistributionInformation": [{"Name": "B04", "SizeInBytes": 198345678}]},
        "CloudCover": 11.0,
        "RelatedUrls": [
          {"URL": "https://data.lpdaac.earthdatacloud.nasa.gov/HLS.L30.T11SLT.B04.tif", "Type": "GET DATA"},
          {"URL": "https://data.lpdaac.earthdatacloud.nasa.gov/HLS.L30.T11SLT.jpg", "Type": "GET RELATED VISUALIZATION"},
          {"URL": "s3://lp-prod-protected/HLS.L30.T11SLT.B04.tif", "Type": "GET DATA VIA DIRECT ACCESS"}
        ]
      }
    },
    {
      "meta": {"concept-id": "G101-LPCLOUD", "native-id": "HLS.L30.T11SLT.2024002T181225.v2.0"},
      "umm": {
        "GranuleUR": "HLS.L30.T11SLT.2024002T181225.v2.0",
        "SpatialExtent": {"HorizontalSpatialDomain": {"Geometry": {"GPolygons": [
          {"Boundary": {"Points": [
            {"Longitude": -118.0, "Latitude": 33.7},
            {"Longitude": -117.0, "Latitude": 33.7},
            {"Longitude": -117.0, "Latitude": 34.5},
            {"Longitude": -118.0, "Latitude": 34.5},
            {"Longitude": -118.0, "Latitude": 33.7}
          ]}}
        ]}}}
      }
    }
  ]
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 5*time.Second, zerolog.Nop())
}

func TestSearchGranules_Success(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/granules.umm_json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	})

	granules, err := client.SearchGranules(context.Background(), SearchParams{ShortName: "HLSL30"})
	require.NoError(t, err)
	require.Len(t, granules, 2)

	first := granules[0]
	assert.Equal(t, "HLS.L30.T11SLT.2024001T181225.v2.0", first.NativeID)
	assert.Equal(t, "G100-LPCLOUD", first.ConceptID)
	assert.Equal(t, "2024-01-01", first.Date())
	assert.Equal(t, "Day", first.DayNightFlag)
	assert.Equal(t, int64(198345678), first.SizeBytes)
	require.NotNil(t, first.BBox)
	assert.InDelta(t, -118.1, first.BBox.West, 1e-9)

	// Only the HTTPS GET DATA link counts as a data link; the S3 direct
	// access link has a different type prefix but still starts GET DATA.
	require.Len(t, first.DataLinks, 1)
	assert.Equal(t, "https://data.lpdaac.earthdatacloud.nasa.gov/HLS.L30.T11SLT.B04.tif", first.DataLinks[0])
	require.Len(t, first.BrowseLinks, 1)

	second := granules[1]
	assert.Nil(t, second.BBox)
	require.Len(t, second.Footprint, 5)
	assert.Equal(t, model.Point{Lon: -118.0, Lat: 33.7}, second.Footprint[0])
}

func TestSearchGranules_ParamsPassThrough(t *testing.T) {
	var captured string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": 0, "items": []}`))
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	minCC, maxCC := 10, 80

	params := SearchParams{
		ShortName:     "HLSL30",
		Version:       "2.0",
		Provider:      "LPCLOUD",
		BoundingBox:   &model.BoundingBox{West: -120, South: 33, East: -117, North: 35},
		Start:         &start,
		End:           &end,
		CloudCoverMin: &minCC,
		CloudCoverMax: &maxCC,
		DayNightFlag:  "Day",
		PageSize:      50,
	}

	_, err := client.SearchGranules(context.Background(), params)
	require.NoError(t, err)

	// The query must carry exactly the user's values, unmodified.
	parsed := mustParseQuery(t, captured)
	assert.Equal(t, "HLSL30", parsed.Get("short_name"))
	assert.Equal(t, "2.0", parsed.Get("version"))
	assert.Equal(t, "LPCLOUD", parsed.Get("provider"))
	assert.Equal(t, "-120.0000,33.0000,-117.0000,35.0000", parsed.Get("bounding_box"))
	assert.Equal(t, "2024-01-01T00:00:00Z,2024-01-31T00:00:00Z", parsed.Get("temporal"))
	assert.Equal(t, "10,80", parsed.Get("cloud_cover"))
	assert.Equal(t, "Day", parsed.Get("day_night_flag"))
	assert.Equal(t, "50", parsed.Get("page_size"))
}

func TestSearchGranules_EmptyResult(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": 0, "items": []}`))
	})

	granules, err := client.SearchGranules(context.Background(), SearchParams{ShortName: "HLSL30"})
	require.NoError(t, err)
	assert.Empty(t, granules)
}

func TestSearchGranules_InvalidParamsNoNetworkCall(t *testing.T) {
	called := false
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	// Missing short name
	_, err := client.SearchGranules(context.Background(), SearchParams{})
	require.Error(t, err)

	// Malformed bounding box
	_, err = client.SearchGranules(context.Background(), SearchParams{
		ShortName:   "HLSL30",
		BoundingBox: &model.BoundingBox{West: 10, South: 0, East: 5, North: 10},
	})
	require.Error(t, err)

	assert.False(t, called, "no request may be issued for invalid parameters")
}

func TestSearchGranules_HTTPError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors": ["Collection short_name [NOPE] was not found"]}`))
	})

	_, err := client.SearchGranules(context.Background(), SearchParams{ShortName: "NOPE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "was not found")
}

func TestSearchGranules_InvalidJSON(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.SearchGranules(context.Background(), SearchParams{ShortName: "HLSL30"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestSearchGranules_ContextCancellation(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.SearchGranules(ctx, SearchParams{ShortName: "HLSL30"})
	require.Error(t, err)
}

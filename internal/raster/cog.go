// Package raster prepares cloud-optimized GeoTIFF links for streaming
// display through GDAL's /vsicurl/ virtual filesystem.
package raster

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

// Layer describes one streamable raster: a display name, the GDAL virtual
// path, and the underlying HTTPS link.
type Layer struct {
	Name    string
	VSIPath string
	URL     string
}

// COGLinks returns a granule's HTTPS GeoTIFF links, in catalog order.
func COGLinks(g model.Granule) []string {
	var links []string
	for _, link := range g.DataLinks {
		lower := strings.ToLower(link)
		if !strings.HasPrefix(lower, "http") {
			continue
		}
		if strings.Contains(lower, ".tif") || strings.Contains(lower, ".tiff") {
			links = append(links, link)
		}
	}
	return links
}

// LayerForLink wraps a single COG link as a displayable layer.
func LayerForLink(link string) Layer {
	return Layer{
		Name:    model.FileNameFromURL(link),
		VSIPath: "/vsicurl/" + link,
		URL:     link,
	}
}

// LayersForGranules collects the first COG of each granule. Granules
// without a COG link are skipped.
func LayersForGranules(granules []model.Granule) []Layer {
	var layers []Layer
	for _, g := range granules {
		links := COGLinks(g)
		if len(links) == 0 {
			continue
		}
		layers = append(layers, LayerForLink(links[0]))
	}
	return layers
}

// GDALConfig returns the GDAL configuration options that make /vsicurl/
// stream Earthdata-protected rasters: session cookies, retry policy, and
// a VSI block cache.
func GDALConfig(cookieFile string) map[string]string {
	return map[string]string{
		"GDAL_HTTP_COOKIEFILE":             cookieFile,
		"GDAL_HTTP_COOKIEJAR":              cookieFile,
		"GDAL_DISABLE_READDIR_ON_OPEN":     "EMPTY_DIR",
		"CPL_VSIL_CURL_ALLOWED_EXTENSIONS": ".tif,.TIF,.tiff,.TIFF",
		"GDAL_HTTP_MAX_RETRY":              "3",
		"GDAL_HTTP_RETRY_DELAY":            "2",
		"VSI_CACHE":                        "TRUE",
		"VSI_CACHE_SIZE":                   "100000000",
	}
}

// DefaultCookieFile returns ~/.urs_cookies, the conventional location for
// Earthdata session cookies.
func DefaultCookieFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".urs_cookies"
	}
	return home + string(os.PathSeparator) + ".urs_cookies"
}

// WriteCookieFile exports a client's cookies for the given URLs in
// Netscape format so external tools like GDAL can reuse the session.
func WriteCookieFile(path string, jar http.CookieJar, siteURLs []string) error {
	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n")
	b.WriteString("# https://curl.se/docs/http-cookies.html\n\n")

	for _, site := range siteURLs {
		u, err := url.Parse(site)
		if err != nil {
			continue
		}
		for _, c := range jar.Cookies(u) {
			domain := c.Domain
			if domain == "" {
				domain = u.Hostname()
			}
			cookiePath := c.Path
			if cookiePath == "" {
				cookiePath = "/"
			}
			secure := "FALSE"
			if c.Secure {
				secure = "TRUE"
			}
			expires := int64(0)
			if !c.Expires.IsZero() {
				expires = c.Expires.Unix()
			}
			fmt.Fprintf(&b, "%s\tTRUE\t%s\t%s\t%d\t%s\t%s\n",
				domain, cookiePath, secure, expires, c.Name, c.Value)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

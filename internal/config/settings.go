package config

import (
	"fyne.io/fyne/v2"

	"github.com/opengeos/earthdata-desktop/internal/catalog"
	"github.com/opengeos/earthdata-desktop/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyUsername        = "earthdata_username"
	KeyToken           = "earthdata_token"
	KeyDownloadDir     = "download_directory"
	KeyMaxParallel     = "max_parallel_downloads"
	KeyDefaultMaxItems = "default_max_items"
	KeyAutoZoom        = "auto_zoom_to_results"
	KeyNotifications   = "show_notifications"
	KeyCatalogURL      = "catalog_url"
	KeyEnableCache     = "enable_catalog_cache"
	KeyCacheDir        = "cache_directory"
	KeyDebugLogging    = "debug_logging"
)

// Default values
const (
	DefaultMaxParallel     = 2
	DefaultDefaultMaxItems = 50
	DefaultAutoZoom        = true
	DefaultNotifications   = true
	DefaultEnableCache     = true
	DefaultDebugLogging    = false
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetUsername returns the stored Earthdata username
func (s *Settings) GetUsername() string {
	return s.app.Preferences().String(KeyUsername)
}

// SetUsername stores the Earthdata username
func (s *Settings) SetUsername(username string) {
	s.app.Preferences().SetString(KeyUsername, username)
}

// GetToken returns the stored Earthdata bearer token
func (s *Settings) GetToken() string {
	return s.app.Preferences().String(KeyToken)
}

// SetToken stores the Earthdata bearer token
func (s *Settings) SetToken(token string) {
	s.app.Preferences().SetString(KeyToken, token)
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = "/tmp/downloads"
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Settings) GetMaxParallelDownloads() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelDownloads(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Settings) SetMaxParallelDownloads(count int) {
	if count < 1 {
		count = 1
	}
	if count > 10 {
		count = 10
	}
	s.app.Preferences().SetInt(KeyMaxParallel, count)
}

// GetDefaultMaxItems returns the default result limit for granule searches
func (s *Settings) GetDefaultMaxItems() int {
	value := s.app.Preferences().Int(KeyDefaultMaxItems)
	if value <= 0 {
		s.SetDefaultMaxItems(DefaultDefaultMaxItems)
		return DefaultDefaultMaxItems
	}
	return value
}

// SetDefaultMaxItems sets the default result limit for granule searches
func (s *Settings) SetDefaultMaxItems(count int) {
	if count < 1 {
		count = 1
	}
	if count > 2000 {
		count = 2000
	}
	s.app.Preferences().SetInt(KeyDefaultMaxItems, count)
}

// GetAutoZoom returns whether the map zooms to new search results
func (s *Settings) GetAutoZoom() bool {
	return s.app.Preferences().BoolWithFallback(KeyAutoZoom, DefaultAutoZoom)
}

// SetAutoZoom sets whether the map zooms to new search results
func (s *Settings) SetAutoZoom(autoZoom bool) {
	s.app.Preferences().SetBool(KeyAutoZoom, autoZoom)
}

// GetNotifications returns whether completion notifications are shown
func (s *Settings) GetNotifications() bool {
	return s.app.Preferences().BoolWithFallback(KeyNotifications, DefaultNotifications)
}

// SetNotifications sets whether completion notifications are shown
func (s *Settings) SetNotifications(enabled bool) {
	s.app.Preferences().SetBool(KeyNotifications, enabled)
}

// GetCatalogURL returns the dataset catalog URL
func (s *Settings) GetCatalogURL() string {
	url := s.app.Preferences().String(KeyCatalogURL)
	if url == "" {
		s.SetCatalogURL(catalog.DefaultURL)
		return catalog.DefaultURL
	}
	return url
}

// SetCatalogURL sets the dataset catalog URL
func (s *Settings) SetCatalogURL(url string) {
	if url == "" {
		url = catalog.DefaultURL
	}
	s.app.Preferences().SetString(KeyCatalogURL, url)
}

// GetEnableCache returns whether the catalog disk cache is used
func (s *Settings) GetEnableCache() bool {
	return s.app.Preferences().BoolWithFallback(KeyEnableCache, DefaultEnableCache)
}

// SetEnableCache sets whether the catalog disk cache is used
func (s *Settings) SetEnableCache(enabled bool) {
	s.app.Preferences().SetBool(KeyEnableCache, enabled)
}

// GetCacheDirectory returns the cache directory, or "" for the OS default
func (s *Settings) GetCacheDirectory() string {
	return s.app.Preferences().String(KeyCacheDir)
}

// SetCacheDirectory sets the cache directory
func (s *Settings) SetCacheDirectory(dir string) {
	s.app.Preferences().SetString(KeyCacheDir, dir)
}

// GetDebugLogging returns whether debug logging is enabled
func (s *Settings) GetDebugLogging() bool {
	return s.app.Preferences().BoolWithFallback(KeyDebugLogging, DefaultDebugLogging)
}

// SetDebugLogging sets whether debug logging is enabled
func (s *Settings) SetDebugLogging(enabled bool) {
	s.app.Preferences().SetBool(KeyDebugLogging, enabled)
}

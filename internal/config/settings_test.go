package config

import (
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/opengeos/earthdata-desktop/internal/catalog"
)

func TestNewSettings(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.app != app {
		t.Error("Settings app reference should match provided app")
	}
}

func TestCredentials(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.GetUsername() != "" {
		t.Error("Username should default to empty")
	}
	if settings.GetToken() != "" {
		t.Error("Token should default to empty")
	}

	settings.SetUsername("someone")
	settings.SetToken("abc123")

	if settings.GetUsername() != "someone" {
		t.Errorf("Expected username 'someone', got %s", settings.GetUsername())
	}
	if settings.GetToken() != "abc123" {
		t.Errorf("Expected token 'abc123', got %s", settings.GetToken())
	}
}

func TestDownloadDirectory(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	dir := settings.GetDownloadDirectory()
	if dir == "" {
		t.Error("Download directory should not be empty")
	}

	// Test setting custom value
	customDir := "/custom/downloads"
	settings.SetDownloadDirectory(customDir)

	retrievedDir := settings.GetDownloadDirectory()
	if retrievedDir != customDir {
		t.Errorf("Expected download directory %s, got %s", customDir, retrievedDir)
	}
}

func TestMaxParallelDownloads(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	maxParallel := settings.GetMaxParallelDownloads()
	if maxParallel != DefaultMaxParallel {
		t.Errorf("Expected default max parallel %d, got %d", DefaultMaxParallel, maxParallel)
	}

	// Test setting custom value
	settings.SetMaxParallelDownloads(5)

	retrievedMax := settings.GetMaxParallelDownloads()
	if retrievedMax != 5 {
		t.Errorf("Expected max parallel 5, got %d", retrievedMax)
	}

	// Test boundary values
	settings.SetMaxParallelDownloads(0) // Should be clamped to 1
	if settings.GetMaxParallelDownloads() != 1 {
		t.Error("Max parallel should be clamped to minimum 1")
	}

	settings.SetMaxParallelDownloads(15) // Should be clamped to 10
	if settings.GetMaxParallelDownloads() != 10 {
		t.Error("Max parallel should be clamped to maximum 10")
	}
}

func TestDefaultMaxItems(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.GetDefaultMaxItems() != DefaultDefaultMaxItems {
		t.Errorf("Expected default max items %d, got %d", DefaultDefaultMaxItems, settings.GetDefaultMaxItems())
	}

	settings.SetDefaultMaxItems(200)
	if settings.GetDefaultMaxItems() != 200 {
		t.Errorf("Expected max items 200, got %d", settings.GetDefaultMaxItems())
	}

	settings.SetDefaultMaxItems(0) // Should be clamped to 1
	if settings.GetDefaultMaxItems() != 1 {
		t.Error("Max items should be clamped to minimum 1")
	}

	settings.SetDefaultMaxItems(5000) // Should be clamped to 2000
	if settings.GetDefaultMaxItems() != 2000 {
		t.Error("Max items should be clamped to maximum 2000")
	}
}

func TestCatalogURL(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	// Test default value
	if settings.GetCatalogURL() != catalog.DefaultURL {
		t.Errorf("Expected default catalog URL, got %s", settings.GetCatalogURL())
	}

	// Test setting custom value
	custom := "https://example.com/datasets.tsv"
	settings.SetCatalogURL(custom)
	if settings.GetCatalogURL() != custom {
		t.Errorf("Expected catalog URL %s, got %s", custom, settings.GetCatalogURL())
	}

	// Empty URL defaults back
	settings.SetCatalogURL("")
	if settings.GetCatalogURL() != catalog.DefaultURL {
		t.Error("Empty catalog URL should default back")
	}
}

func TestBooleanSettings(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if !settings.GetAutoZoom() {
		t.Error("Auto zoom should default to true")
	}
	settings.SetAutoZoom(false)
	if settings.GetAutoZoom() {
		t.Error("Auto zoom should be false after disabling")
	}

	if !settings.GetNotifications() {
		t.Error("Notifications should default to true")
	}
	settings.SetNotifications(false)
	if settings.GetNotifications() {
		t.Error("Notifications should be false after disabling")
	}

	if !settings.GetEnableCache() {
		t.Error("Catalog cache should default to enabled")
	}
	settings.SetEnableCache(false)
	if settings.GetEnableCache() {
		t.Error("Catalog cache should be disabled after toggling")
	}

	if settings.GetDebugLogging() {
		t.Error("Debug logging should default to false")
	}
	settings.SetDebugLogging(true)
	if !settings.GetDebugLogging() {
		t.Error("Debug logging should be true after enabling")
	}
}

func TestCacheDirectory(t *testing.T) {
	app := test.NewApp()
	settings := NewSettings(app)

	if settings.GetCacheDirectory() != "" {
		t.Error("Cache directory should default to empty (OS default)")
	}

	settings.SetCacheDirectory("/var/cache/earthdata")
	if settings.GetCacheDirectory() != "/var/cache/earthdata" {
		t.Errorf("Expected cache dir /var/cache/earthdata, got %s", settings.GetCacheDirectory())
	}
}

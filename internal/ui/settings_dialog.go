package ui

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/opengeos/earthdata-desktop/internal/auth"
	"github.com/opengeos/earthdata-desktop/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings *config.Settings
	window   fyne.Window
	dialog   *dialog.ConfirmDialog

	// Called after a successful save so the owner can push the new values
	// into running services.
	onApplied func()

	// UI components
	usernameEntry    *widget.Entry
	tokenEntry       *widget.Entry
	saveNetrcCheck   *widget.Check
	netrcPassEntry   *widget.Entry
	downloadDirEntry *widget.Entry
	maxParallelEntry *widget.Entry
	maxItemsEntry    *widget.Entry
	autoZoomCheck    *widget.Check
	notifyCheck      *widget.Check
	catalogURLEntry  *widget.Entry
	cacheCheck       *widget.Check
	cacheDirEntry    *widget.Entry
	debugCheck       *widget.Check
	testBtn          *widget.Button
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, window fyne.Window, onApplied func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:  settings,
		window:    window,
		onApplied: onApplied,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// Earthdata credentials
	sd.usernameEntry = widget.NewEntry()
	sd.usernameEntry.SetPlaceHolder("Earthdata Login username")

	sd.tokenEntry = widget.NewPasswordEntry()
	sd.tokenEntry.SetPlaceHolder("Bearer token (optional)")

	sd.netrcPassEntry = widget.NewPasswordEntry()
	sd.netrcPassEntry.SetPlaceHolder("Password (written to .netrc only)")
	sd.netrcPassEntry.Disable()

	sd.saveNetrcCheck = widget.NewCheck("Save username and password to ~/.netrc", func(checked bool) {
		if checked {
			sd.netrcPassEntry.Enable()
		} else {
			sd.netrcPassEntry.Disable()
		}
	})

	testBtn := widget.NewButton("Test Credentials", sd.onTestCredentials)
	testBtn.Importance = widget.LowImportance
	sd.testBtn = testBtn

	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")

	browseDirBtn := widget.NewButton("Browse", sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Max parallel downloads
	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder("1-10")

	// Default result limit for searches
	sd.maxItemsEntry = widget.NewEntry()
	sd.maxItemsEntry.SetPlaceHolder("1-2000")

	sd.autoZoomCheck = widget.NewCheck("Zoom the map to new search results", nil)
	sd.notifyCheck = widget.NewCheck("Notify when downloads finish", nil)

	// Advanced
	sd.catalogURLEntry = widget.NewEntry()
	sd.catalogURLEntry.SetPlaceHolder("Dataset catalog URL")

	sd.cacheCheck = widget.NewCheck("Cache the dataset catalog locally", nil)

	sd.cacheDirEntry = widget.NewEntry()
	sd.cacheDirEntry.SetPlaceHolder("Cache directory (blank for default)")

	sd.debugCheck = widget.NewCheck("Debug logging", nil)

	form := container.NewVBox(
		widget.NewLabel("Earthdata Credentials"),
		widget.NewSeparator(),

		widget.NewLabel("Username:"),
		sd.usernameEntry,

		widget.NewLabel("Token:"),
		sd.tokenEntry,

		sd.saveNetrcCheck,
		sd.netrcPassEntry,
		sd.testBtn,

		widget.NewSeparator(),
		widget.NewLabel("Downloads"),
		widget.NewSeparator(),

		widget.NewLabel("Download Directory:"),
		downloadDirRow,

		widget.NewLabel("Max Parallel Downloads:"),
		sd.maxParallelEntry,

		widget.NewLabel("Default Result Limit:"),
		sd.maxItemsEntry,

		sd.autoZoomCheck,
		sd.notifyCheck,

		widget.NewSeparator(),
		widget.NewLabel("Advanced"),
		widget.NewSeparator(),

		widget.NewLabel("Catalog URL:"),
		sd.catalogURLEntry,

		sd.cacheCheck,

		widget.NewLabel("Cache Directory:"),
		sd.cacheDirEntry,

		sd.debugCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		container.NewVScroll(form),
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(520, 560))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.usernameEntry.SetText(sd.settings.GetUsername())
	sd.tokenEntry.SetText(sd.settings.GetToken())
	sd.saveNetrcCheck.SetChecked(false)
	sd.netrcPassEntry.SetText("")
	sd.netrcPassEntry.Disable()
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelDownloads()))
	sd.maxItemsEntry.SetText(strconv.Itoa(sd.settings.GetDefaultMaxItems()))
	sd.autoZoomCheck.SetChecked(sd.settings.GetAutoZoom())
	sd.notifyCheck.SetChecked(sd.settings.GetNotifications())
	sd.catalogURLEntry.SetText(sd.settings.GetCatalogURL())
	sd.cacheCheck.SetChecked(sd.settings.GetEnableCache())
	sd.cacheDirEntry.SetText(sd.settings.GetCacheDirectory())
	sd.debugCheck.SetChecked(sd.settings.GetDebugLogging())
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	sd.settings.SetUsername(sd.usernameEntry.Text)
	sd.settings.SetToken(sd.tokenEntry.Text)

	// The password itself is never kept in preferences; it only goes to
	// the netrc file when explicitly requested.
	if sd.saveNetrcCheck.Checked && sd.usernameEntry.Text != "" && sd.netrcPassEntry.Text != "" {
		err := auth.WriteNetrcMachine(auth.DefaultNetrcPath(), auth.URSHost, sd.usernameEntry.Text, sd.netrcPassEntry.Text)
		if err != nil {
			dialog.ShowError(err, sd.window)
			return
		}
	}

	if downloadDir := sd.downloadDirEntry.Text; downloadDir != "" {
		sd.settings.SetDownloadDirectory(downloadDir)
	}

	if maxParallelStr := sd.maxParallelEntry.Text; maxParallelStr != "" {
		if maxParallel, err := strconv.Atoi(maxParallelStr); err == nil {
			sd.settings.SetMaxParallelDownloads(maxParallel)
		}
	}

	if maxItemsStr := sd.maxItemsEntry.Text; maxItemsStr != "" {
		if maxItems, err := strconv.Atoi(maxItemsStr); err == nil {
			sd.settings.SetDefaultMaxItems(maxItems)
		}
	}

	sd.settings.SetAutoZoom(sd.autoZoomCheck.Checked)
	sd.settings.SetNotifications(sd.notifyCheck.Checked)
	sd.settings.SetCatalogURL(sd.catalogURLEntry.Text)
	sd.settings.SetEnableCache(sd.cacheCheck.Checked)
	sd.settings.SetCacheDirectory(sd.cacheDirEntry.Text)
	sd.settings.SetDebugLogging(sd.debugCheck.Checked)

	if sd.onApplied != nil {
		sd.onApplied()
	}

	dialog.ShowInformation("Settings", "Settings saved successfully!", sd.window)
}

// ursProfileURL answers 200 for valid credentials and 401 otherwise.
const ursProfileURL = "https://" + auth.URSHost + "/api/users/user"

// onTestCredentials checks the entered credentials against Earthdata Login.
func (sd *SettingsDialog) onTestCredentials() {
	creds := auth.Credentials{
		Username: sd.usernameEntry.Text,
		Password: sd.netrcPassEntry.Text,
		Token:    sd.tokenEntry.Text,
	}
	if !creds.Usable() {
		dialog.ShowInformation("Credentials", "Enter a username and password, or a token, first.", sd.window)
		return
	}

	sd.testBtn.Disable()

	go func() {
		ok, err := verifyCredentials(creds)

		fyne.Do(func() {
			sd.testBtn.Enable()
			switch {
			case err != nil:
				dialog.ShowError(err, sd.window)
			case ok:
				dialog.ShowInformation("Credentials", "Earthdata Login accepted the credentials.", sd.window)
			default:
				dialog.ShowInformation("Credentials", "Earthdata Login rejected the credentials.", sd.window)
			}
		})
	}()
}

func verifyCredentials(creds auth.Credentials) (bool, error) {
	client, err := auth.NewHTTPClient(creds, 30*time.Second)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ursProfileURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode < 400, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/opengeos/earthdata-desktop/internal/auth"
	"github.com/opengeos/earthdata-desktop/internal/catalog"
	"github.com/opengeos/earthdata-desktop/internal/cmr"
	"github.com/opengeos/earthdata-desktop/internal/config"
	"github.com/opengeos/earthdata-desktop/internal/download"
	"github.com/opengeos/earthdata-desktop/internal/extract"
	"github.com/opengeos/earthdata-desktop/internal/logger"
	"github.com/opengeos/earthdata-desktop/internal/platform"
	"github.com/opengeos/earthdata-desktop/internal/ui"
	"github.com/opengeos/earthdata-desktop/internal/update"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "org.opengeos.earthdata-desktop"
	AppName = "NASA Earthdata Explorer"

	WindowWidth  = 1200
	WindowHeight = 800

	searchClientTimeout   = 60 * time.Second
	downloadClientTimeout = 0 // granule transfers can run for hours
)

func main() {
	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	settings := config.NewSettings(myApp)

	level := "info"
	if settings.GetDebugLogging() {
		level = "debug"
	}
	log := logger.Build(logger.Config{Level: level, Console: true}, nil)
	log.Info().Str("version", version).Msg("starting")

	downloadsDir := settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(downloadsDir); err != nil {
		log.Warn().Err(err).Str("dir", downloadsDir).Msg("could not create downloads directory")
	}

	cacheDir := settings.GetCacheDirectory()
	if cacheDir == "" {
		if dir, err := platform.GetCacheDir("earthdata-desktop"); err == nil {
			cacheDir = dir
		} else {
			cacheDir = downloadsDir
		}
	}

	// Earthdata credentials: preferences first, then environment, then
	// ~/.netrc. Downloads still work unauthenticated for open datasets.
	storedCreds := auth.Credentials{
		Username: settings.GetUsername(),
		Token:    settings.GetToken(),
	}
	creds, source, err := auth.Resolve(storedCreds, auth.DefaultNetrcPath())
	if err != nil {
		log.Warn().Msg("no Earthdata credentials found; protected downloads will fail")
	} else {
		log.Info().Str("source", string(source)).Msg("Earthdata credentials resolved")
	}

	authClient, err := auth.NewHTTPClient(creds, downloadClientTimeout)
	if err != nil {
		log.Error().Err(err).Msg("could not build HTTP client, using defaults")
		authClient = &http.Client{}
	}

	searchSvc := cmr.NewClient(cmr.DefaultBaseURL, searchClientTimeout, log)
	catalogSvc := catalog.NewService(settings.GetCatalogURL(), cacheDir, catalog.DefaultMaxAge, log)
	downloadSvc := download.NewService(downloadsDir, settings.GetMaxParallelDownloads(), authClient, log)
	extractSvc := extract.NewService(log)

	updateChecker, err := update.NewChecker(update.DefaultManifestURL, version, log)
	if err != nil {
		// Dev builds carry no comparable version; the menu item stays inert.
		log.Debug().Err(err).Msg("update checks disabled")
		updateChecker = nil
	}

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	root := ui.NewRootUI(myWindow, myApp, downloadSvc, extractSvc, searchSvc, catalogSvc, updateChecker, authClient, log)
	root.SetMapCanvas(ui.NewFileMapCanvas(cacheDir, log))

	// Fill the dataset picker without blocking first paint.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		root.LoadCatalog(ctx, !settings.GetEnableCache())
	}()

	myWindow.ShowAndRun()
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/catalog"
	"github.com/opengeos/earthdata-desktop/internal/cmr"
	"github.com/opengeos/earthdata-desktop/internal/config"
	"github.com/opengeos/earthdata-desktop/internal/download"
	"github.com/opengeos/earthdata-desktop/internal/extract"
	"github.com/opengeos/earthdata-desktop/internal/geo"
	"github.com/opengeos/earthdata-desktop/internal/model"
	"github.com/opengeos/earthdata-desktop/internal/platform"
	"github.com/opengeos/earthdata-desktop/internal/raster"
	"github.com/opengeos/earthdata-desktop/internal/update"
)

// Search timing constants
const (
	searchTimeout = 90 * time.Second
)

// StatusFilter enumerates visible subsets of tasks in the download queue.
type StatusFilter int

const (
	FilterAll StatusFilter = iota
	FilterActive
	FilterCompleted
	FilterFailed
)

// String returns the display name for the filter tab.
func (sf StatusFilter) String() string {
	switch sf {
	case FilterActive:
		return "Active"
	case FilterCompleted:
		return "Completed"
	case FilterFailed:
		return "Failed"
	default:
		return "All"
	}
}

// RootUI represents the main UI structure
type RootUI struct {
	window fyne.Window
	log    zerolog.Logger

	settings      *config.Settings
	downloadSvc   download.Downloader
	extractSvc    extract.Extractor
	searchSvc     *cmr.Client
	catalogSvc    *catalog.Service
	updateChecker *update.Checker
	authClient    *http.Client
	mapCanvas     MapCanvas

	// Dataset catalog, loaded in the background after startup.
	catalogMu sync.RWMutex
	datasets  *catalog.Catalog

	// Results of the most recent search. Replaced wholesale per search.
	// checkedResults holds the indices ticked for a multi-granule download.
	results        []model.Granule
	selectedResult int
	checkedResults map[int]bool

	// A new search cancels the one still in flight.
	searchMu     sync.Mutex
	searchCancel context.CancelFunc
	searchGen    uint64

	currentFilter StatusFilter
	tasks         binding.UntypedList
	filteredTasks []*model.DownloadTask

	// UI update debouncing
	lastUIUpdate time.Time
	uiUpdateMu   sync.Mutex

	// Search form
	keywordEntry   *widget.Entry
	datasetSelect  *widget.Select
	bboxEntry      *widget.Entry
	startDateEntry *widget.Entry
	endDateEntry   *widget.Entry
	maxItemsEntry  *widget.Entry
	cloudMinEntry  *widget.Entry
	cloudMaxEntry  *widget.Entry
	dayNightSelect *widget.Select
	providerEntry  *widget.Entry
	versionEntry   *widget.Entry
	patternEntry   *widget.Entry
	orbitMinEntry  *widget.Entry
	orbitMaxEntry  *widget.Entry
	searchBtn      *widget.Button

	// Results panel
	resultsList   *widget.List
	resultsHeader *widget.Label
	downloadBtn   *widget.Button
	displayBtn    *widget.Button

	// Download queue
	taskList *widget.List

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite
}

// NewRootUI creates and initializes the main UI
func NewRootUI(
	window fyne.Window,
	app fyne.App,
	downloadSvc download.Downloader,
	extractSvc extract.Extractor,
	searchSvc *cmr.Client,
	catalogSvc *catalog.Service,
	updateChecker *update.Checker,
	authClient *http.Client,
	log zerolog.Logger,
) *RootUI {
	settings := config.NewSettings(app)

	// Make sure the target directory exists before the first download.
	platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory())

	ui := &RootUI{
		window:         window,
		log:            log.With().Str("component", "ui").Logger(),
		settings:       settings,
		downloadSvc:    downloadSvc,
		extractSvc:     extractSvc,
		searchSvc:      searchSvc,
		catalogSvc:     catalogSvc,
		updateChecker:  updateChecker,
		authClient:     authClient,
		mapCanvas:      NewNullMapCanvas(),
		selectedResult: -1,
		checkedResults: map[int]bool{},
		tasks:          binding.NewUntypedList(),
	}

	window.SetTitle("NASA Earthdata Explorer")

	ui.downloadSvc.SetUpdateCallback(ui.onTaskUpdate)
	if ui.extractSvc != nil {
		ui.extractSvc.SetUpdateCallback(ui.onExtractionUpdate)
	}

	ui.setupUI()
	return ui
}

// SetMapCanvas replaces the map backend. Call before the first search.
func (ui *RootUI) SetMapCanvas(mc MapCanvas) {
	if mc != nil {
		ui.mapCanvas = mc
	}
}

// Settings exposes the preference store so main can wire initial values.
func (ui *RootUI) Settings() *config.Settings {
	return ui.settings
}

// LoadCatalog fetches the dataset catalog and fills the dataset picker.
// Meant to run on a background goroutine right after startup.
func (ui *RootUI) LoadCatalog(ctx context.Context, forceRefresh bool) {
	cat, err := ui.catalogSvc.Load(ctx, forceRefresh)
	if err != nil {
		ui.log.Warn().Err(err).Msg("dataset catalog unavailable")
		fyne.Do(func() {
			ui.showNotification("Dataset catalog unavailable; type a short name manually.", false)
		})
		return
	}

	ui.catalogMu.Lock()
	ui.datasets = cat
	ui.catalogMu.Unlock()

	ui.log.Info().Int("datasets", cat.Len()).Msg("dataset catalog loaded")
	fyne.Do(func() {
		ui.datasetSelect.Options = cat.ShortNames()
		ui.datasetSelect.Refresh()
	})
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	searchPanel := ui.createSearchPanel()
	resultsPanel := ui.createResultsPanel()
	queuePanel := ui.createQueuePanel()

	// Notification panel under the toolbar (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationLabel.Truncation = fyne.TextTruncateEllipsis
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewBorder(nil, nil, nil, ui.notificationSpinner, ui.notificationLabel)
	ui.notificationContainer.Hide()

	settingsBtn := widget.NewButton(IconSettings+" Settings", ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance
	toolbar := container.NewBorder(nil, nil, widget.NewLabelWithStyle(
		IconGlobe+" NASA Earthdata Explorer", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		settingsBtn)

	top := container.NewVBox(toolbar, ui.notificationContainer)

	rightSide := container.NewVSplit(resultsPanel, queuePanel)
	rightSide.SetOffset(0.55)

	split := container.NewHSplit(container.NewVScroll(searchPanel), rightSide)
	split.SetOffset(0.32)

	content := container.NewBorder(top, nil, nil, nil, split)
	ui.window.SetContent(content)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem("Settings", ui.onShowSettings)
	fileMenu := fyne.NewMenu("File", settingsItem)

	updateItem := fyne.NewMenuItem("Check for Updates", ui.onCheckUpdates)
	docsItem := fyne.NewMenuItem("Documentation", func() {
		if err := platform.OpenURLInBrowser("https://github.com/opengeos/earthdata-desktop"); err != nil {
			ui.log.Warn().Err(err).Msg("could not open browser")
		}
	})
	helpMenu := fyne.NewMenu("Help", updateItem, docsItem)

	ui.window.SetMainMenu(fyne.NewMainMenu(fileMenu, helpMenu))
}

// createSearchPanel builds the left-hand granule search form.
func (ui *RootUI) createSearchPanel() fyne.CanvasObject {
	ui.keywordEntry = widget.NewEntry()
	ui.keywordEntry.SetPlaceHolder("Filter datasets, e.g. landsat")
	ui.keywordEntry.OnChanged = ui.onKeywordChanged

	ui.datasetSelect = widget.NewSelect(nil, nil)
	ui.datasetSelect.PlaceHolder = "Select a dataset"

	ui.bboxEntry = widget.NewEntry()
	ui.bboxEntry.SetPlaceHolder("west,south,east,north")

	useExtentBtn := widget.NewButton("Map Extent", ui.onUseMapExtent)
	useExtentBtn.Importance = widget.LowImportance
	clearBboxBtn := widget.NewButton(IconClose, func() { ui.bboxEntry.SetText("") })
	clearBboxBtn.Importance = widget.LowImportance
	bboxRow := container.NewBorder(nil, nil, nil, container.NewHBox(useExtentBtn, clearBboxBtn), ui.bboxEntry)

	ui.startDateEntry = widget.NewEntry()
	ui.startDateEntry.SetPlaceHolder("2024-01-01")
	ui.endDateEntry = widget.NewEntry()
	ui.endDateEntry.SetPlaceHolder("2024-12-31")

	ui.maxItemsEntry = widget.NewEntry()
	ui.maxItemsEntry.SetText(strconv.Itoa(ui.settings.GetDefaultMaxItems()))

	// Advanced filters live in a collapsed accordion like the rest of the
	// form so the common case stays compact.
	ui.cloudMinEntry = widget.NewEntry()
	ui.cloudMinEntry.SetPlaceHolder("0")
	ui.cloudMaxEntry = widget.NewEntry()
	ui.cloudMaxEntry.SetPlaceHolder("100")

	ui.dayNightSelect = widget.NewSelect([]string{"Any", "Day", "Night", "Unspecified"}, nil)
	ui.dayNightSelect.SetSelected("Any")

	ui.providerEntry = widget.NewEntry()
	ui.providerEntry.SetPlaceHolder("e.g. LPCLOUD")
	ui.versionEntry = widget.NewEntry()
	ui.versionEntry.SetPlaceHolder("e.g. 2.0")
	ui.patternEntry = widget.NewEntry()
	ui.patternEntry.SetPlaceHolder("Granule name, * allowed")

	ui.orbitMinEntry = widget.NewEntry()
	ui.orbitMaxEntry = widget.NewEntry()
	orbitRow := container.NewGridWithColumns(2, ui.orbitMinEntry, ui.orbitMaxEntry)

	advanced := widget.NewAccordion(widget.NewAccordionItem("Advanced Filters", container.NewVBox(
		widget.NewLabel("Cloud Cover (%):"),
		container.NewGridWithColumns(2, ui.cloudMinEntry, ui.cloudMaxEntry),
		widget.NewLabel("Day/Night:"),
		ui.dayNightSelect,
		widget.NewLabel("Provider:"),
		ui.providerEntry,
		widget.NewLabel("Version:"),
		ui.versionEntry,
		widget.NewLabel("Granule Name Pattern:"),
		ui.patternEntry,
		widget.NewLabel("Orbit Number (min / max):"),
		orbitRow,
	)))

	ui.searchBtn = widget.NewButton(IconSearch+" Search", ui.onSearchClick)
	ui.searchBtn.Importance = widget.HighImportance
	resetBtn := widget.NewButton("Reset", ui.onResetClick)
	resetBtn.Importance = widget.LowImportance

	return container.NewVBox(
		widget.NewLabelWithStyle("Search Granules", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		widget.NewLabel("Keyword:"),
		ui.keywordEntry,
		widget.NewLabel("Dataset:"),
		ui.datasetSelect,
		widget.NewLabel("Bounding Box:"),
		bboxRow,
		widget.NewLabel("Start Date:"),
		ui.startDateEntry,
		widget.NewLabel("End Date:"),
		ui.endDateEntry,
		widget.NewLabel("Max Results:"),
		ui.maxItemsEntry,
		advanced,
		widget.NewSeparator(),
		container.NewGridWithColumns(2, ui.searchBtn, resetBtn),
	)
}

// createResultsPanel builds the granule results list with its actions.
func (ui *RootUI) createResultsPanel() fyne.CanvasObject {
	ui.resultsHeader = widget.NewLabel("No results")

	ui.resultsList = widget.NewList(
		func() int { return len(ui.results) },
		func() fyne.CanvasObject {
			check := widget.NewCheck("", nil)
			title := widget.NewLabel("")
			title.TextStyle = fyne.TextStyle{Bold: true}
			title.Truncation = fyne.TextTruncateEllipsis
			meta := widget.NewLabel("")
			meta.Alignment = fyne.TextAlignTrailing
			return container.NewBorder(nil, nil, check, meta, title)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id >= len(ui.results) {
				return
			}
			g := ui.results[id]
			row := obj.(*fyne.Container)
			title := row.Objects[0].(*widget.Label)
			check := row.Objects[1].(*widget.Check)
			meta := row.Objects[2].(*widget.Label)
			title.SetText(g.DisplayID())
			meta.SetText(g.Date() + MiddleDotSeparator + g.DisplaySize())

			// Rows are recycled, so rebind the checkbox to this id.
			check.OnChanged = nil
			check.SetChecked(ui.checkedResults[id])
			check.OnChanged = func(on bool) {
				if on {
					ui.checkedResults[id] = true
				} else {
					delete(ui.checkedResults, id)
				}
				ui.updateResultsHeader()
			}
		},
	)
	ui.resultsList.OnSelected = func(id widget.ListItemID) {
		ui.selectedResult = id
	}
	ui.resultsList.OnUnselected = func(widget.ListItemID) {
		ui.selectedResult = -1
	}

	ui.downloadBtn = widget.NewButton("Download", ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance
	downloadAllBtn := widget.NewButton("Download All", ui.onDownloadAllClick)
	ui.displayBtn = widget.NewButton("Display COG", ui.onDisplayClick)
	saveBtn := widget.NewButton("Save Footprints", ui.onSaveFootprints)
	saveBtn.Importance = widget.LowImportance
	clearBtn := widget.NewButton("Clear", ui.onClearResults)
	clearBtn.Importance = widget.LowImportance

	actions := container.NewHBox(ui.downloadBtn, downloadAllBtn, ui.displayBtn, saveBtn, clearBtn)
	header := container.NewBorder(nil, nil, ui.resultsHeader, actions)

	return container.NewBorder(header, nil, nil, nil, ui.resultsList)
}

// createQueuePanel builds the download queue with its status filter tabs.
func (ui *RootUI) createQueuePanel() fyne.CanvasObject {
	ui.taskList = widget.NewList(
		func() int { return len(ui.filteredTasks) },
		func() fyne.CanvasObject { return ui.createTaskItem() },
		func(id widget.ListItemID, obj fyne.CanvasObject) { ui.updateFilteredTaskItem(id, obj) },
	)
	ui.currentFilter = FilterAll

	filters := []StatusFilter{FilterAll, FilterActive, FilterCompleted, FilterFailed}
	names := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.String()
	}
	filterSelect := widget.NewSelect(names, func(selected string) {
		for _, f := range filters {
			if f.String() == selected {
				ui.onFilterChanged(f)
				return
			}
		}
	})
	filterSelect.SetSelected(FilterAll.String())

	header := container.NewBorder(nil, nil,
		widget.NewLabelWithStyle("Downloads", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		filterSelect)

	return container.NewBorder(header, nil, nil, nil, ui.taskList)
}

// onKeywordChanged narrows the dataset picker as the user types.
func (ui *RootUI) onKeywordChanged(keyword string) {
	ui.catalogMu.RLock()
	cat := ui.datasets
	ui.catalogMu.RUnlock()
	if cat == nil {
		return
	}

	if strings.TrimSpace(keyword) == "" {
		ui.datasetSelect.Options = cat.ShortNames()
	} else {
		ui.datasetSelect.Options = cat.FilterByKeyword(keyword)
	}
	ui.datasetSelect.Refresh()
}

// onUseMapExtent copies the visible map extent into the bounding box field.
func (ui *RootUI) onUseMapExtent() {
	box, ok := ui.mapCanvas.CurrentExtent()
	if !ok {
		ui.showNotification("Map extent is not available.", false)
		return
	}
	ui.bboxEntry.SetText(box.String())
}

// buildSearchParams assembles and validates the query from the form.
func (ui *RootUI) buildSearchParams() (cmr.SearchParams, error) {
	params := cmr.SearchParams{
		ShortName: strings.TrimSpace(ui.datasetSelect.Selected),
		Version:   strings.TrimSpace(ui.versionEntry.Text),
		Provider:  strings.TrimSpace(ui.providerEntry.Text),
		PageSize:  ui.settings.GetDefaultMaxItems(),
	}
	if params.ShortName == "" {
		// Accept a hand-typed short name in the keyword box when the
		// catalog never loaded.
		params.ShortName = strings.TrimSpace(ui.keywordEntry.Text)
	}

	if text := strings.TrimSpace(ui.bboxEntry.Text); text != "" {
		box, err := model.ParseBoundingBox(text)
		if err != nil {
			return params, fmt.Errorf("bounding box: %w", err)
		}
		params.BoundingBox = box
	}

	if text := strings.TrimSpace(ui.startDateEntry.Text); text != "" {
		start, err := time.Parse(DateInputFormat, text)
		if err != nil {
			return params, fmt.Errorf("start date must be yyyy-mm-dd")
		}
		params.Start = &start
	}
	if text := strings.TrimSpace(ui.endDateEntry.Text); text != "" {
		end, err := time.Parse(DateInputFormat, text)
		if err != nil {
			return params, fmt.Errorf("end date must be yyyy-mm-dd")
		}
		// The form takes whole days; include the entire end day.
		end = end.Add(24*time.Hour - time.Second)
		params.End = &end
	}

	if text := strings.TrimSpace(ui.maxItemsEntry.Text); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 {
			return params, fmt.Errorf("max results must be a positive number")
		}
		params.PageSize = n
	}

	if text := strings.TrimSpace(ui.cloudMinEntry.Text); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 || n > 100 {
			return params, fmt.Errorf("cloud cover min must be 0-100")
		}
		params.CloudCoverMin = &n
	}
	if text := strings.TrimSpace(ui.cloudMaxEntry.Text); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 || n > 100 {
			return params, fmt.Errorf("cloud cover max must be 0-100")
		}
		params.CloudCoverMax = &n
	}

	if ui.dayNightSelect.Selected != "" && ui.dayNightSelect.Selected != "Any" {
		params.DayNightFlag = ui.dayNightSelect.Selected
	}

	params.GranulePattern = strings.TrimSpace(ui.patternEntry.Text)

	if text := strings.TrimSpace(ui.orbitMinEntry.Text); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil {
			return params, fmt.Errorf("orbit number must be numeric")
		}
		params.OrbitMin = n
	}
	if text := strings.TrimSpace(ui.orbitMaxEntry.Text); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil {
			return params, fmt.Errorf("orbit number must be numeric")
		}
		params.OrbitMax = n
	}

	return params, params.Validate()
}

// onSearchClick runs a granule search with the current form values.
func (ui *RootUI) onSearchClick() {
	params, err := ui.buildSearchParams()
	if err != nil {
		ui.showNotification(err.Error(), false)
		return
	}

	// Only one search runs at a time; starting a new one cancels the
	// previous request.
	ui.searchMu.Lock()
	if ui.searchCancel != nil {
		ui.searchCancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	ui.searchCancel = cancel
	ui.searchGen++
	gen := ui.searchGen
	ui.searchMu.Unlock()

	ui.showNotification("Searching "+params.ShortName+"…", true)
	ui.searchBtn.Disable()

	go func() {
		defer cancel()

		granules, err := ui.searchSvc.SearchGranules(ctx, params)
		// The queued closure may run after the deferred cancel, so the
		// superseded check has to come from the error itself, not ctx.
		superseded := errors.Is(err, context.Canceled)

		fyne.Do(func() {
			ui.searchMu.Lock()
			current := gen == ui.searchGen
			ui.searchMu.Unlock()
			if superseded || !current {
				// A newer search owns the button now.
				return
			}

			ui.searchBtn.Enable()
			if err != nil {
				ui.showNotification("Search failed: "+err.Error(), false)
				return
			}
			ui.setResults(granules)
		})
	}()
}

// setResults replaces the result set and refreshes the map overlays.
// Must run on the UI thread.
func (ui *RootUI) setResults(granules []model.Granule) {
	ui.results = granules
	ui.selectedResult = -1
	ui.checkedResults = map[int]bool{}
	ui.resultsList.UnselectAll()
	ui.resultsList.Refresh()

	if len(granules) == 0 {
		ui.resultsHeader.SetText("No results")
		ui.showNotification("No granules matched the search.", false)
		ui.mapCanvas.ShowFootprints(geo.FeatureCollection{Type: "FeatureCollection"})
		return
	}

	ui.updateResultsHeader()
	ui.hideNotification()

	ui.mapCanvas.ShowFootprints(geo.FootprintCollection(granules))
	if ui.settings.GetAutoZoom() {
		if extent, ok := geo.ResultsExtent(granules); ok {
			ui.mapCanvas.SetExtent(extent)
		}
	}
}

// onResetClick restores the search form to its defaults.
func (ui *RootUI) onResetClick() {
	ui.keywordEntry.SetText("")
	ui.datasetSelect.ClearSelected()
	ui.bboxEntry.SetText("")
	ui.startDateEntry.SetText("")
	ui.endDateEntry.SetText("")
	ui.maxItemsEntry.SetText(strconv.Itoa(ui.settings.GetDefaultMaxItems()))
	ui.cloudMinEntry.SetText("")
	ui.cloudMaxEntry.SetText("")
	ui.dayNightSelect.SetSelected("Any")
	ui.providerEntry.SetText("")
	ui.versionEntry.SetText("")
	ui.patternEntry.SetText("")
	ui.orbitMinEntry.SetText("")
	ui.orbitMaxEntry.SetText("")
	ui.hideNotification()
}

// updateResultsHeader refreshes the result count, including how many rows
// are ticked for download.
func (ui *RootUI) updateResultsHeader() {
	if len(ui.results) == 0 {
		ui.resultsHeader.SetText("No results")
		return
	}
	text := fmt.Sprintf("%d granules", len(ui.results))
	if n := len(ui.checkedResults); n > 0 {
		text += MiddleDotSeparator + fmt.Sprintf("%d checked", n)
	}
	ui.resultsHeader.SetText(text)
}

// onClearResults drops the current results and clears the map.
func (ui *RootUI) onClearResults() {
	ui.results = nil
	ui.selectedResult = -1
	ui.checkedResults = map[int]bool{}
	ui.resultsList.UnselectAll()
	ui.resultsList.Refresh()
	ui.resultsHeader.SetText("No results")
	ui.mapCanvas.Clear()
}

// selectedGranule returns the highlighted result, or an error message if
// nothing is selected.
func (ui *RootUI) selectedGranule() (*model.Granule, bool) {
	if ui.selectedResult < 0 || ui.selectedResult >= len(ui.results) {
		return nil, false
	}
	return &ui.results[ui.selectedResult], true
}

// granulesForDownload returns the ticked results in list order, falling
// back to the highlighted row when nothing is ticked.
func (ui *RootUI) granulesForDownload() []model.Granule {
	if len(ui.checkedResults) == 0 {
		if g, ok := ui.selectedGranule(); ok {
			return []model.Granule{*g}
		}
		return nil
	}

	ids := make([]int, 0, len(ui.checkedResults))
	for id := range ui.checkedResults {
		if id >= 0 && id < len(ui.results) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	granules := make([]model.Granule, 0, len(ids))
	for _, id := range ids {
		granules = append(granules, ui.results[id])
	}
	return granules
}

// onDownloadClick queues the ticked granules, or the highlighted one when
// no checkboxes are set.
func (ui *RootUI) onDownloadClick() {
	granules := ui.granulesForDownload()
	if len(granules) == 0 {
		ui.showNotification("Check or select a granule to download.", false)
		return
	}

	if len(granules) == 1 {
		queued, err := ui.queueGranule(granules[0])
		if err != nil {
			ui.showNotification("Download failed: "+err.Error(), false)
			return
		}
		ui.showNotification(fmt.Sprintf("Queued %d files from %s", queued, granules[0].DisplayID()), false)
		return
	}

	ui.queueGranules(granules)
}

// onDownloadAllClick queues every result.
func (ui *RootUI) onDownloadAllClick() {
	if len(ui.results) == 0 {
		ui.showNotification("Nothing to download; run a search first.", false)
		return
	}
	ui.queueGranules(ui.results)
}

// queueGranules queues a batch of granules and reports the outcome.
func (ui *RootUI) queueGranules(granules []model.Granule) {
	queued, failed := 0, 0
	for _, g := range granules {
		n, err := ui.queueGranule(g)
		if err != nil {
			ui.log.Warn().Err(err).Str("granule", g.DisplayID()).Msg("could not queue granule")
			failed++
			continue
		}
		queued += n
	}

	msg := fmt.Sprintf("Queued %d files from %d granules", queued, len(granules)-failed)
	if failed > 0 {
		msg += fmt.Sprintf(" (%d granules skipped)", failed)
	}
	ui.showNotification(msg, false)
}

// queueGranule adds download tasks for one granule and mirrors them in the
// queue list.
func (ui *RootUI) queueGranule(g model.Granule) (int, error) {
	created, err := ui.downloadSvc.AddGranule(g)
	if err != nil {
		return 0, err
	}
	for _, task := range created {
		ui.tasks.Append(task)
	}
	ui.updateFilteredTasks()
	ui.taskList.Refresh()
	return len(created), nil
}

// onDisplayClick adds one of the selected granule's COG assets as a map
// layer. Granules with several assets get a picker first.
func (ui *RootUI) onDisplayClick() {
	g, ok := ui.selectedGranule()
	if !ok {
		ui.showNotification("Select a granule to display.", false)
		return
	}

	links := raster.COGLinks(*g)
	if len(links) == 0 {
		ui.showNotification("This granule has no cloud-optimized GeoTIFF assets.", false)
		return
	}
	if len(links) == 1 {
		ui.displayCOG(g, links[0])
		return
	}

	names := make([]string, len(links))
	for i, link := range links {
		names[i] = raster.LayerForLink(link).Name
	}
	assetSelect := widget.NewSelect(names, nil)
	assetSelect.SetSelectedIndex(0)

	content := container.NewVBox(
		widget.NewLabel("Choose an asset from "+g.DisplayID()+":"),
		assetSelect,
	)
	dialog.ShowCustomConfirm("Display COG", "Display", "Cancel", content,
		func(confirmed bool) {
			idx := assetSelect.SelectedIndex()
			if !confirmed || idx < 0 || idx >= len(links) {
				return
			}
			ui.displayCOG(g, links[idx])
		}, ui.window)
}

// displayCOG hands one raster link to the map canvas.
func (ui *RootUI) displayCOG(g *model.Granule, link string) {
	cookiePath := raster.DefaultCookieFile()
	if ui.authClient != nil && ui.authClient.Jar != nil {
		if err := raster.WriteCookieFile(cookiePath, ui.authClient.Jar, []string{"https://urs.earthdata.nasa.gov"}); err != nil {
			ui.log.Warn().Err(err).Msg("could not write session cookie file")
		}
	}

	layer := raster.LayerForLink(link)
	ui.mapCanvas.ShowRaster(layer, raster.GDALConfig(cookiePath))
	if box := g.FootprintBox(); box != nil && ui.settings.GetAutoZoom() {
		ui.mapCanvas.SetExtent(box.Buffered(0.1))
	}
	ui.showNotification("Added layer "+layer.Name, false)
}

// onSaveFootprints writes the result footprints to a GeoJSON file.
func (ui *RootUI) onSaveFootprints() {
	if len(ui.results) == 0 {
		ui.showNotification("Nothing to save; run a search first.", false)
		return
	}

	path, err := geo.WriteFootprints(ui.results, ui.settings.GetDownloadDirectory())
	if err != nil {
		ui.showNotification("Could not save footprints: "+err.Error(), false)
		return
	}
	ui.showNotification("Footprints saved to "+path, false)
}

// showNotification displays a message in the notification panel.
// When spinning is true, a spinner indicates background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	ui.notificationLabel.SetText(message)
	if spinning {
		ui.notificationSpinner.Show()
		ui.notificationSpinner.Start()
	} else {
		ui.notificationSpinner.Stop()
		ui.notificationSpinner.Hide()
	}
	ui.notificationContainer.Show()
	ui.notificationContainer.Refresh()
}

// hideNotification hides the notification panel.
func (ui *RootUI) hideNotification() {
	ui.notificationSpinner.Stop()
	ui.notificationSpinner.Hide()
	ui.notificationContainer.Hide()
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	dlg := NewSettingsDialog(ui.settings, ui.window, func() {
		// Push applied values into the running download service.
		ui.downloadSvc.SetMaxParallelDownloads(ui.settings.GetMaxParallelDownloads())
		ui.downloadSvc.SetDownloadDirectory(ui.settings.GetDownloadDirectory())
		platform.CreateDirectoryIfNotExists(ui.settings.GetDownloadDirectory())
	})
	dlg.Show()
}

// onCheckUpdates queries the release manifest and reports the result.
func (ui *RootUI) onCheckUpdates() {
	if ui.updateChecker == nil {
		return
	}
	ui.showNotification("Checking for updates…", true)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		release, newer, err := ui.updateChecker.Check(ctx)

		fyne.Do(func() {
			ui.hideNotification()
			if err != nil {
				ui.showNotification("Update check failed: "+err.Error(), false)
				return
			}
			if !newer {
				dialog.ShowInformation("Up to Date", "You are running the latest version.", ui.window)
				return
			}
			dialog.ShowConfirm("Update Available",
				fmt.Sprintf("Version %s is available.\n\n%s\n\nOpen the download page?", release.Version, release.Notes),
				func(open bool) {
					if open {
						platform.OpenURLInBrowser(release.URL)
					}
				}, ui.window)
		})
	}()
}

// createTaskItem creates a new task row for the queue list.
func (ui *RootUI) createTaskItem() fyne.CanvasObject {
	taskRow := NewTaskRow(nil)
	taskRow.SetCallbacks(
		ui.onStopRetryTask,
		ui.onRevealFile,
		ui.onCopyPath,
		ui.onRemoveTask,
	)
	return taskRow
}

// updateFilteredTaskItem updates a queue row with current data.
func (ui *RootUI) updateFilteredTaskItem(id widget.ListItemID, item fyne.CanvasObject) {
	if id >= len(ui.filteredTasks) {
		return
	}
	if taskRow, ok := item.(*TaskRow); ok {
		taskRow.UpdateTask(ui.filteredTasks[id])
	}
}

// onFilterChanged handles filter changes from the status selector.
func (ui *RootUI) onFilterChanged(filter StatusFilter) {
	ui.currentFilter = filter
	ui.updateFilteredTasks()
	ui.taskList.Refresh()
}

// updateFilteredTasks rebuilds the visible slice from the binding list.
func (ui *RootUI) updateFilteredTasks() {
	all := ui.getAllTasks()
	filtered := make([]*model.DownloadTask, 0, len(all))
	for _, task := range all {
		if ui.shouldShowTask(task) {
			filtered = append(filtered, task)
		}
	}
	ui.filteredTasks = filtered
}

// shouldShowTask returns whether a task passes the current filter.
func (ui *RootUI) shouldShowTask(task *model.DownloadTask) bool {
	switch ui.currentFilter {
	case FilterActive:
		return task.Status == model.TaskStatusPending || task.Status.IsActive()
	case FilterCompleted:
		return task.Status == model.TaskStatusCompleted
	case FilterFailed:
		return task.Status == model.TaskStatusError || task.Status == model.TaskStatusStopped
	default:
		return true
	}
}

// getAllTasks converts the binding list to a task slice.
func (ui *RootUI) getAllTasks() []*model.DownloadTask {
	length := ui.tasks.Length()
	out := make([]*model.DownloadTask, 0, length)
	for i := 0; i < length; i++ {
		item, err := ui.tasks.GetValue(i)
		if err != nil {
			continue
		}
		if task, ok := item.(*model.DownloadTask); ok {
			out = append(out, task)
		}
	}
	return out
}

// onStopRetryTask stops a queued or running task, or restarts a failed one.
func (ui *RootUI) onStopRetryTask(taskID string) {
	task, ok := ui.downloadSvc.GetTask(taskID)
	if !ok {
		return
	}

	var err error
	switch {
	case task.Status == model.TaskStatusPending || task.Status.IsActive():
		err = ui.downloadSvc.StopTask(taskID)
	case task.Status == model.TaskStatusStopped || task.Status == model.TaskStatusError:
		err = ui.downloadSvc.RestartTask(taskID)
	}
	if err != nil {
		ui.showNotification(err.Error(), false)
	}
}

// onRevealFile shows a downloaded file in the system file manager.
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.OpenFileInManager(filePath); err != nil {
		ui.log.Warn().Err(err).Str("path", filePath).Msg("could not reveal file")
		ui.showNotification("Could not open file manager: "+err.Error(), false)
	}
}

// onCopyPath copies a file path to the clipboard.
func (ui *RootUI) onCopyPath(filePath string) {
	ui.window.Clipboard().SetContent(filePath)
	ui.showNotification("Path copied to clipboard", false)
}

// onRemoveTask removes a task from the service and the queue list.
func (ui *RootUI) onRemoveTask(taskID string) {
	if err := ui.downloadSvc.RemoveTask(taskID); err != nil {
		ui.showNotification(err.Error(), false)
		return
	}

	length := ui.tasks.Length()
	for i := 0; i < length; i++ {
		item, err := ui.tasks.GetValue(i)
		if err != nil {
			continue
		}
		if task, ok := item.(*model.DownloadTask); ok && task.ID == taskID {
			if all, err := ui.tasks.Get(); err == nil {
				ui.tasks.Set(append(all[:i], all[i+1:]...))
			}
			break
		}
	}

	ui.updateFilteredTasks()
	ui.taskList.Refresh()
}

// debouncedRefresh limits full-list refreshes during rapid progress updates.
func (ui *RootUI) debouncedRefresh() bool {
	ui.uiUpdateMu.Lock()
	defer ui.uiUpdateMu.Unlock()

	now := time.Now()
	if now.Sub(ui.lastUIUpdate) < UIUpdateDebounce {
		return false
	}
	ui.lastUIUpdate = now
	return true
}

// onTaskUpdate handles task updates from the download service. It runs on
// the service's goroutines; all widget access goes through fyne.Do.
func (ui *RootUI) onTaskUpdate(task *model.DownloadTask) {
	wasCompleted := false

	length := ui.tasks.Length()
	for i := 0; i < length; i++ {
		item, err := ui.tasks.GetValue(i)
		if err != nil {
			continue
		}
		if existing, ok := item.(*model.DownloadTask); ok && existing.ID == task.ID {
			if existing.Status != model.TaskStatusCompleted && task.Status == model.TaskStatusCompleted {
				wasCompleted = true
			}
			ui.tasks.SetValue(i, task)
			break
		}
	}

	ui.updateFilteredTasks()

	if wasCompleted && ui.settings.GetNotifications() {
		ui.sendCompletionNotification(task)
	}

	// Status transitions always repaint; pure progress ticks are debounced.
	if !task.Status.IsFinished() && !ui.debouncedRefresh() {
		return
	}

	fyne.Do(func() {
		ui.taskList.Refresh()
	})
}

// sendCompletionNotification sends a system notification for a completed
// download and shows the in-app toast.
func (ui *RootUI) sendCompletionNotification(task *model.DownloadTask) {
	fyne.CurrentApp().SendNotification(&fyne.Notification{
		Title:   "Download Completed",
		Content: task.DisplayTitle(),
	})

	fyne.Do(func() {
		ui.showToastNotification(task)
	})
}

// showToastNotification shows an in-app toast with reveal/open actions.
func (ui *RootUI) showToastNotification(task *model.DownloadTask) {
	titleLabel := widget.NewLabel("Download Completed")
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(task.DisplayTitle())
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	revealBtn := widget.NewButton("Reveal", func() {
		if task.OutputPath != "" {
			ui.onRevealFile(task.OutputPath)
		}
	})
	revealBtn.Importance = widget.HighImportance

	openBtn := widget.NewButton("Open", func() {
		if task.OutputPath != "" {
			if err := platform.OpenFileWithDefaultApp(task.OutputPath); err != nil {
				ui.log.Warn().Err(err).Msg("could not open file")
			}
		}
	})
	openBtn.Importance = widget.MediumImportance

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		if toastPopup != nil {
			toastPopup.Hide()
		}
	})
	closeBtn.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, titleLabel, closeBtn)
	actions := container.NewHBox(revealBtn, openBtn)
	if ui.extractSvc != nil && extract.CanExtract(task.OutputPath) {
		extractBtn := widget.NewButton("Extract", func() {
			ui.onExtractFile(task.OutputPath)
			if toastPopup != nil {
				toastPopup.Hide()
			}
		})
		extractBtn.Importance = widget.MediumImportance
		actions.Add(extractBtn)
	}
	content := container.NewVBox(header, messageLabel, actions)

	toastPopup = widget.NewPopUp(content, ui.window.Canvas())

	canvasSize := ui.window.Canvas().Size()
	toastSize := fyne.NewSize(ToastWidth, ToastHeight)
	toastPos := fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin)

	toastPopup.Resize(toastSize)
	toastPopup.Move(toastPos)
	toastPopup.Show()

	go func() {
		time.Sleep(ToastAutoHide)
		fyne.Do(func() {
			toastPopup.Hide()
		})
	}()
}

// onExtractFile unpacks a downloaded archive next to itself.
func (ui *RootUI) onExtractFile(archivePath string) {
	task, err := ui.extractSvc.StartExtraction(archivePath)
	if err != nil {
		ui.showNotification("Extraction failed: "+err.Error(), false)
		return
	}
	ui.showNotification("Extracting "+task.InputPath+"…", true)
}

// onExtractionUpdate surfaces extraction progress in the notification panel.
// Runs on the extraction service's goroutines.
func (ui *RootUI) onExtractionUpdate(task *model.ExtractionTask) {
	switch task.Status {
	case model.TaskStatusCompleted:
		fyne.Do(func() {
			ui.showNotification(fmt.Sprintf("Extracted %d files to %s", task.FilesDone, task.OutputDir), false)
		})
	case model.TaskStatusError:
		fyne.Do(func() {
			ui.showNotification("Extraction failed: "+task.LastError, false)
		})
	}
}

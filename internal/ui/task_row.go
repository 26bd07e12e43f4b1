package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

// Progress calculation constants
const (
	MaxProgressPercent = 100
	MinProgressPercent = 1
)

// TaskRow is a compact row widget for one download task in the queue list.
type TaskRow struct {
	widget.BaseWidget

	task *model.DownloadTask

	titleLabel    *widget.Label
	statusLabel   *widget.Label
	progressLabel *widget.Label
	speedEtaLabel *widget.Label

	stopRetryBtn *widget.Button
	revealBtn    *widget.Button // reveal in file manager
	copyBtn      *widget.Button // copy output path
	removeBtn    *widget.Button

	onStopRetry func(taskID string)
	onReveal    func(filePath string)
	onCopyPath  func(filePath string)
	onRemove    func(taskID string)
}

// NewTaskRow creates a new task row widget
func NewTaskRow(task *model.DownloadTask) *TaskRow {
	if task == nil {
		// Placeholder so list bindings never hand the renderer a nil task
		task = &model.DownloadTask{ID: "placeholder", Status: model.TaskStatusPending}
	}

	tr := &TaskRow{task: task}
	tr.ExtendBaseWidget(tr)
	tr.createUI()
	tr.updateFromTask()
	return tr
}

// SetCallbacks sets the action callbacks
func (tr *TaskRow) SetCallbacks(
	onStopRetry func(taskID string),
	onReveal func(filePath string),
	onCopyPath func(filePath string),
	onRemove func(taskID string),
) {
	tr.onStopRetry = onStopRetry
	tr.onReveal = onReveal
	tr.onCopyPath = onCopyPath
	tr.onRemove = onRemove
}

// UpdateTask updates the row with new task data
func (tr *TaskRow) UpdateTask(task *model.DownloadTask) {
	if task == nil {
		return
	}
	tr.task = task
	tr.updateFromTask()
	tr.Refresh()
}

// hasLocalPath reports whether the task's OutputPath points at a file on
// disk rather than being empty or still a URL.
func hasLocalPath(task *model.DownloadTask) bool {
	p := task.OutputPath
	if p == "" || strings.HasPrefix(p, "http") {
		return false
	}
	return strings.Contains(p, "/") || strings.Contains(p, "\\")
}

// createUI creates the UI components
func (tr *TaskRow) createUI() {
	tr.titleLabel = widget.NewLabel("")
	tr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	tr.titleLabel.Truncation = fyne.TextTruncateEllipsis
	tr.titleLabel.Alignment = fyne.TextAlignLeading

	tr.statusLabel = widget.NewLabel("")
	tr.statusLabel.Alignment = fyne.TextAlignTrailing
	tr.progressLabel = widget.NewLabel("")
	tr.progressLabel.Alignment = fyne.TextAlignTrailing
	tr.speedEtaLabel = widget.NewLabel("")
	tr.speedEtaLabel.Alignment = fyne.TextAlignLeading
	tr.speedEtaLabel.TextStyle = fyne.TextStyle{Monospace: true}

	tr.stopRetryBtn = widget.NewButton(IconStop, func() {
		if tr.onStopRetry != nil {
			tr.onStopRetry(tr.task.ID)
		}
	})
	tr.stopRetryBtn.Importance = widget.MediumImportance

	tr.revealBtn = widget.NewButton(IconFolder, func() {
		currentTask := tr.task
		if tr.onReveal == nil {
			return
		}
		if !hasLocalPath(currentTask) {
			widget.ShowPopUp(widget.NewLabel("File not on disk yet; wait for the download to finish."),
				fyne.CurrentApp().Driver().CanvasForObject(tr.revealBtn))
			return
		}
		tr.onReveal(currentTask.OutputPath)
	})
	tr.revealBtn.Importance = widget.MediumImportance

	tr.copyBtn = widget.NewButton(IconCopy, func() {
		currentTask := tr.task
		if tr.onCopyPath == nil {
			return
		}
		if !hasLocalPath(currentTask) {
			widget.ShowPopUp(widget.NewLabel("No file path to copy yet."),
				fyne.CurrentApp().Driver().CanvasForObject(tr.copyBtn))
			return
		}
		tr.onCopyPath(currentTask.OutputPath)
	})
	tr.copyBtn.Importance = widget.MediumImportance

	tr.removeBtn = widget.NewButton(IconClose, func() {
		if tr.onRemove != nil {
			tr.onRemove(tr.task.ID)
		}
	})
	tr.removeBtn.Importance = widget.LowImportance
}

// updateFromTask updates UI components based on task state
func (tr *TaskRow) updateFromTask() {
	if tr.task == nil {
		return
	}

	title := strings.TrimSpace(tr.task.DisplayTitle())
	title = strings.ReplaceAll(title, "\n", " ")
	tr.titleLabel.SetText(title)

	switch tr.task.Status {
	case model.TaskStatusError:
		tr.statusLabel.Importance = widget.DangerImportance
	case model.TaskStatusCompleted:
		tr.statusLabel.Importance = widget.SuccessImportance
	case model.TaskStatusDownloading, model.TaskStatusStarting:
		tr.statusLabel.Importance = widget.HighImportance
	default:
		tr.statusLabel.Importance = widget.MediumImportance
	}
	tr.statusLabel.SetText(tr.task.Status.String())

	percent := effectivePercent(tr.task)
	if tr.task.Status == model.TaskStatusCompleted {
		// Redundant once finished; the status label already says so.
		tr.progressLabel.SetText("")
	} else {
		tr.progressLabel.SetText(fmt.Sprintf(ProgressLabelFormat, percent))
	}

	speedEta := ""
	switch tr.task.Status {
	case model.TaskStatusDownloading:
		if tr.task.Speed != "" {
			speedEta = tr.task.Speed
		}
		if tr.task.ETASec > 0 {
			if speedEta != "" {
				speedEta += MiddleDotSeparator
			}
			speedEta += tr.task.ETAString()
		}
		if speedEta == "" {
			speedEta = DashPlaceholder
		}
	case model.TaskStatusError:
		speedEta = tr.task.LastError
	}
	tr.speedEtaLabel.SetText(speedEta)

	tr.updateButtons()
}

// effectivePercent derives a display percentage that never sticks at 0
// while bytes are actually moving.
func effectivePercent(task *model.DownloadTask) int {
	if task.Status == model.TaskStatusCompleted {
		return MaxProgressPercent
	}
	percent := task.Percent
	if percent <= 0 && task.Progress > 0 {
		percent = int(task.Progress * MaxProgressPercent)
		if percent == 0 {
			percent = MinProgressPercent
		}
	}
	if percent < 0 {
		percent = 0
	}
	if percent > MaxProgressPercent {
		percent = MaxProgressPercent
	}
	return percent
}

// updateButtons updates button states based on task status
func (tr *TaskRow) updateButtons() {
	if tr.task == nil {
		return
	}

	// Stop while the task can still be cancelled; retry once it stopped or
	// failed; nothing to do for a completed task.
	switch {
	case tr.task.Status == model.TaskStatusPending || tr.task.Status.IsActive():
		tr.stopRetryBtn.SetText(IconStop)
		tr.stopRetryBtn.Enable()
	case tr.task.Status == model.TaskStatusStopped || tr.task.Status == model.TaskStatusError:
		tr.stopRetryBtn.SetText(IconRetry)
		tr.stopRetryBtn.Enable()
	default:
		tr.stopRetryBtn.SetText(IconStop)
		tr.stopRetryBtn.Disable()
	}

	if hasLocalPath(tr.task) {
		tr.revealBtn.Enable()
		tr.copyBtn.Enable()
	} else {
		tr.revealBtn.Disable()
		tr.copyBtn.Disable()
	}

	if tr.task.Status.IsActive() {
		tr.removeBtn.Disable()
	} else {
		tr.removeBtn.Enable()
	}
}

// CreateRenderer creates the widget renderer
func (tr *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	return &taskRowRenderer{taskRow: tr}
}

// taskRowRenderer renders the task row widget
type taskRowRenderer struct {
	taskRow *TaskRow
	layout  *fyne.Container
}

// Layout arranges the components
func (r *taskRowRenderer) Layout(size fyne.Size) {
	if r.layout == nil {
		r.createLayout()
	}
	if size.Width < RowMinWidth {
		size.Width = RowMinWidth
	}
	if size.Height < RowMinHeight {
		size.Height = RowMinHeight
	}
	r.layout.Resize(size)
}

// MinSize returns the minimum size
func (r *taskRowRenderer) MinSize() fyne.Size {
	if r.layout != nil {
		return r.layout.MinSize()
	}
	return fyne.NewSize(RowMinWidth, RowMinHeight)
}

// Refresh refreshes the renderer
func (r *taskRowRenderer) Refresh() {
	if r.layout == nil {
		r.createLayout()
	}
	r.layout.Refresh()
}

// Objects returns the container objects
func (r *taskRowRenderer) Objects() []fyne.CanvasObject {
	if r.layout == nil {
		r.createLayout()
	}
	return []fyne.CanvasObject{r.layout}
}

// Destroy cleans up the renderer
func (r *taskRowRenderer) Destroy() {}

// createLayout creates the main layout
func (r *taskRowRenderer) createLayout() {
	tr := r.taskRow

	// Fix width using a transparent rectangle underneath so the right-hand
	// info columns stay aligned across rows.
	fixedWidth := func(w float32, obj fyne.CanvasObject) fyne.CanvasObject {
		spacer := canvas.NewRectangle(color.RGBA{0, 0, 0, 0})
		spacer.SetMinSize(fyne.NewSize(w, obj.MinSize().Height))
		return container.NewStack(spacer, obj)
	}

	rightSide := container.NewVBox(
		fixedWidth(StatusLabelWidth, tr.statusLabel),
		container.NewHBox(
			fixedWidth(SpeedLabelWidth, tr.speedEtaLabel),
			fixedWidth(PercentLabelWidth, tr.progressLabel),
		),
	)

	actionRow := container.NewHBox(
		tr.stopRetryBtn,
		tr.revealBtn,
		tr.copyBtn,
		tr.removeBtn,
	)

	// Buttons flush to the right edge, info columns next to them, title
	// taking the remaining space on the left.
	rightCluster := container.NewBorder(nil, nil, nil, actionRow, rightSide)
	mainContent := container.NewBorder(nil, nil, nil, rightCluster, tr.titleLabel)

	r.layout = container.NewVBox(
		mainContent,
		widget.NewSeparator(),
	)
}

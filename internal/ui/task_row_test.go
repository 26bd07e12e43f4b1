package ui

import (
	"testing"

	"fyne.io/fyne/v2/test"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

func TestTaskRowButtonStates(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	task := &model.DownloadTask{
		ID:     "t1",
		Title:  "HLS.L30.T11SLT.tif",
		Status: model.TaskStatusPending,
	}
	row := NewTaskRow(task)

	if row.stopRetryBtn.Disabled() {
		t.Error("stop button should be enabled for a pending task")
	}
	if row.stopRetryBtn.Text != IconStop {
		t.Errorf("pending task should show stop, got %q", row.stopRetryBtn.Text)
	}
	if !row.revealBtn.Disabled() {
		t.Error("reveal should be disabled before the file exists on disk")
	}

	task.Status = model.TaskStatusError
	task.LastError = "connection reset"
	row.UpdateTask(task)
	if row.stopRetryBtn.Text != IconRetry {
		t.Errorf("failed task should show retry, got %q", row.stopRetryBtn.Text)
	}
	if row.speedEtaLabel.Text != "connection reset" {
		t.Errorf("error text not surfaced, got %q", row.speedEtaLabel.Text)
	}

	task.Status = model.TaskStatusCompleted
	task.OutputPath = "/tmp/downloads/HLS.L30.T11SLT.tif"
	row.UpdateTask(task)
	if row.revealBtn.Disabled() || row.copyBtn.Disabled() {
		t.Error("reveal and copy should be enabled once the file is on disk")
	}
	if !row.stopRetryBtn.Disabled() {
		t.Error("stop/retry should be disabled for a completed task")
	}
	if row.progressLabel.Text != "" {
		t.Errorf("completed task should not show a percent label, got %q", row.progressLabel.Text)
	}
}

func TestTaskRowCallbacks(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	task := &model.DownloadTask{ID: "t2", Status: model.TaskStatusPending}
	row := NewTaskRow(task)

	var stopped, removed string
	row.SetCallbacks(
		func(id string) { stopped = id },
		nil,
		nil,
		func(id string) { removed = id },
	)

	test.Tap(row.stopRetryBtn)
	if stopped != "t2" {
		t.Errorf("stop callback got %q, want t2", stopped)
	}

	test.Tap(row.removeBtn)
	if removed != "t2" {
		t.Errorf("remove callback got %q, want t2", removed)
	}
}

func TestEffectivePercent(t *testing.T) {
	cases := []struct {
		status   model.TaskStatus
		percent  int
		progress float64
		want     int
	}{
		{model.TaskStatusDownloading, 42, 0.42, 42},
		{model.TaskStatusDownloading, 0, 0.005, 1}, // moving but rounds to zero
		{model.TaskStatusDownloading, 150, 1.5, 100},
		{model.TaskStatusCompleted, 0, 0, 100},
		{model.TaskStatusPending, 0, 0, 0},
	}
	for _, tc := range cases {
		task := &model.DownloadTask{Status: tc.status, Percent: tc.percent, Progress: tc.progress}
		if got := effectivePercent(task); got != tc.want {
			t.Errorf("effectivePercent(%s, %d, %.3f) = %d, want %d",
				tc.status, tc.percent, tc.progress, got, tc.want)
		}
	}
}

func TestHasLocalPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"", false},
		{"https://data.lpdaac.earthdatacloud.nasa.gov/granule.tif", false},
		{"granule.tif", false},
		{"/tmp/downloads/granule.tif", true},
		{`C:\Downloads\granule.tif`, true},
	}
	for _, tc := range cases {
		task := &model.DownloadTask{OutputPath: tc.path}
		if got := hasLocalPath(task); got != tc.want {
			t.Errorf("hasLocalPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

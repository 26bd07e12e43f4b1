package extract

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

func writeTestArchive(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(dir, "granule_bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return path
}

func waitForFinished(t *testing.T, svc *Service, taskID string) *model.ExtractionTask {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if task, ok := svc.GetTask(taskID); ok && task.Status.IsFinished() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish in time", taskID)
	return nil
}

func TestStartExtraction(t *testing.T) {
	dir := t.TempDir()
	archive := writeTestArchive(t, dir, map[string]string{
		"B04.tif":          "red band",
		"B08.tif":          "nir band",
		"meta/angles.json": "{}",
	})

	svc := NewService(zerolog.Nop())
	task, err := svc.StartExtraction(archive)
	if err != nil {
		t.Fatalf("StartExtraction: %v", err)
	}

	done := waitForFinished(t, svc, task.ID)
	if done.Status != model.TaskStatusCompleted {
		t.Fatalf("status = %s, want Completed (err: %s)", done.Status, done.LastError)
	}
	if done.FilesDone != 3 || done.Percent != 100 {
		t.Errorf("FilesDone=%d Percent=%d, want 3 and 100", done.FilesDone, done.Percent)
	}

	wantDir := filepath.Join(dir, "granule_bundle")
	if done.OutputDir != wantDir {
		t.Errorf("OutputDir = %s, want %s", done.OutputDir, wantDir)
	}
	data, err := os.ReadFile(filepath.Join(wantDir, "B04.tif"))
	if err != nil || string(data) != "red band" {
		t.Errorf("extracted content = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(wantDir, "meta", "angles.json")); err != nil {
		t.Errorf("nested entry missing: %v", err)
	}
}

func TestStartExtractionRejectsNonZip(t *testing.T) {
	svc := NewService(zerolog.Nop())
	if _, err := svc.StartExtraction("/tmp/granule.tif"); err == nil {
		t.Fatal("expected error for non-zip input")
	}
}

func TestStartExtractionMissingFile(t *testing.T) {
	svc := NewService(zerolog.Nop())
	if _, err := svc.StartExtraction(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestExtractionRejectsEscapingEntries(t *testing.T) {
	dir := t.TempDir()

	// Build an archive with a path traversal entry by hand.
	path := filepath.Join(dir, "granule_bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.CreateRaw(&zip.FileHeader{Name: "../evil.txt", Method: zip.Store})
	if err != nil {
		t.Fatalf("create raw entry: %v", err)
	}
	if _, err := w.Write([]byte("nope")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	f.Close()

	svc := NewService(zerolog.Nop())
	task, err := svc.StartExtraction(path)
	if err != nil {
		t.Fatalf("StartExtraction: %v", err)
	}

	done := waitForFinished(t, svc, task.ID)
	if done.Status != model.TaskStatusError {
		t.Fatalf("status = %s, want Error", done.Status)
	}
	if _, err := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the destination")
	}
}

func TestDuplicateExtractionRejected(t *testing.T) {
	dir := t.TempDir()
	entries := map[string]string{}
	for i := 0; i < 200; i++ {
		entries[fmt.Sprintf("band/file_%03d.tif", i)] = "data"
	}
	archive := writeTestArchive(t, dir, entries)

	svc := NewService(zerolog.Nop())
	task, err := svc.StartExtraction(archive)
	if err != nil {
		t.Fatalf("StartExtraction: %v", err)
	}

	// A second request for the same archive while the first is active
	// must be rejected; if the first already finished, it is allowed.
	if _, err := svc.StartExtraction(archive); err == nil {
		if got, _ := svc.GetTask(task.ID); !got.Status.IsFinished() {
			t.Error("duplicate extraction accepted while first still active")
		}
	}

	waitForFinished(t, svc, task.ID)
}

func TestUpdateCallbackFires(t *testing.T) {
	dir := t.TempDir()
	archive := writeTestArchive(t, dir, map[string]string{"B04.tif": "red band"})

	svc := NewService(zerolog.Nop())

	var mu sync.Mutex
	var statuses []model.TaskStatus
	svc.SetUpdateCallback(func(task *model.ExtractionTask) {
		mu.Lock()
		statuses = append(statuses, task.Status)
		mu.Unlock()
	})

	task, err := svc.StartExtraction(archive)
	if err != nil {
		t.Fatalf("StartExtraction: %v", err)
	}
	waitForFinished(t, svc, task.ID)

	mu.Lock()
	defer mu.Unlock()
	if len(statuses) == 0 {
		t.Fatal("no callbacks received")
	}
	if statuses[len(statuses)-1] != model.TaskStatusCompleted {
		t.Errorf("last status = %s, want Completed", statuses[len(statuses)-1])
	}
}

func TestCanExtract(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"bundle.zip", true},
		{"bundle.ZIP", true},
		{"granule.tif", false},
		{"granule.h5", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := CanExtract(tc.path); got != tc.want {
			t.Errorf("CanExtract(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

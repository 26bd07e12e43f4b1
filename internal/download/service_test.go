package download

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opengeos/earthdata-desktop/internal/model"
)

func newTestService(t *testing.T, maxParallel int) *Service {
	t.Helper()
	return NewService(t.TempDir(), maxParallel, http.DefaultClient, zerolog.Nop())
}

func waitForStatus(t *testing.T, s *Service, id string, want model.TaskStatus) *model.DownloadTask {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task, ok := s.GetTask(id)
		if ok && task.Status == want {
			return task
		}
		if ok && task.Status.IsFinished() && task.Status != want {
			t.Fatalf("task %s finished as %s, want %s (err: %s)", id, task.Status, want, task.LastError)
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %s", id, want)
	return nil
}

func TestAddTaskDownloadsFile(t *testing.T) {
	content := "granule bytes"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(content))
	}))
	defer server.Close()

	s := newTestService(t, 2)

	task, err := s.AddTask(server.URL+"/HLS.L30.B04.tif", "HLS.L30", "G100")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	done := waitForStatus(t, s, task.ID, model.TaskStatusCompleted)
	if done.Percent != 100 {
		t.Errorf("expected 100%%, got %d", done.Percent)
	}
	if filepath.Base(done.OutputPath) != "HLS.L30.B04.tif" {
		t.Errorf("unexpected output path: %s", done.OutputPath)
	}

	data, err := os.ReadFile(done.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != content {
		t.Errorf("output content mismatch: %q", data)
	}
	if _, err := os.Stat(done.OutputPath + ".part"); !os.IsNotExist(err) {
		t.Error("partial file left behind after completion")
	}
}

func TestAddTaskRejectsDuplicateURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	s := newTestService(t, 1)
	if _, err := s.AddTask(server.URL+"/a.tif", "a", "G1"); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if _, err := s.AddTask(server.URL+"/a.tif", "a", "G1"); err == nil {
		t.Fatal("expected duplicate URL error")
	}
}

func TestFailedTaskDoesNotBlockOthers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := newTestService(t, 2)

	bad, err := s.AddTask(server.URL+"/bad.tif", "bad", "G1")
	if err != nil {
		t.Fatal(err)
	}
	good, err := s.AddTask(server.URL+"/good.tif", "good", "G2")
	if err != nil {
		t.Fatal(err)
	}

	failed := waitForStatus(t, s, bad.ID, model.TaskStatusError)
	if failed.LastError == "" {
		t.Error("failed task must record its error")
	}
	waitForStatus(t, s, good.ID, model.TaskStatusCompleted)
}

func TestAuthFailureIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	s := newTestService(t, 1)
	task, err := s.AddTask(server.URL+"/x.tif", "x", "G1")
	if err != nil {
		t.Fatal(err)
	}

	failed := waitForStatus(t, s, task.ID, model.TaskStatusError)
	if !strings.Contains(failed.LastError, "credentials") {
		t.Errorf("expected credential hint in error, got: %s", failed.LastError)
	}
}

func TestMaxParallelQueuesTasks(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	s := newTestService(t, 1)
	first, err := s.AddTask(server.URL+"/a.tif", "a", "G1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.AddTask(server.URL+"/b.tif", "b", "G2")
	if err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, s, first.ID, model.TaskStatusDownloading)
	if task, _ := s.GetTask(second.ID); task.Status != model.TaskStatusPending {
		t.Fatalf("second task should be queued, is %s", task.Status)
	}

	close(release)
	waitForStatus(t, s, first.ID, model.TaskStatusCompleted)
	waitForStatus(t, s, second.ID, model.TaskStatusCompleted)
}

func TestParallelLimitHoldsUnderBurst(t *testing.T) {
	var inflight, peak atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		inflight.Add(-1)
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	s := newTestService(t, 1)
	var tasks []*model.DownloadTask
	for i := 0; i < 4; i++ {
		task, err := s.AddTask(fmt.Sprintf("%s/band_%d.tif", server.URL, i), "band", "G1")
		if err != nil {
			t.Fatal(err)
		}
		tasks = append(tasks, task)
	}

	waitForStatus(t, s, tasks[0].ID, model.TaskStatusDownloading)
	time.Sleep(100 * time.Millisecond)
	if got := peak.Load(); got != 1 {
		t.Fatalf("%d downloads running at once, limit is 1", got)
	}

	close(release)
	for _, task := range tasks {
		waitForStatus(t, s, task.ID, model.TaskStatusCompleted)
	}
	if got := peak.Load(); got != 1 {
		t.Fatalf("peak concurrency %d exceeded limit of 1", got)
	}
}

func TestStopPendingTask(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()
	defer close(release)

	s := newTestService(t, 1)
	if _, err := s.AddTask(server.URL+"/a.tif", "a", "G1"); err != nil {
		t.Fatal(err)
	}
	queued, err := s.AddTask(server.URL+"/b.tif", "b", "G2")
	if err != nil {
		t.Fatal(err)
	}

	if err := s.StopTask(queued.ID); err != nil {
		t.Fatalf("StopTask: %v", err)
	}
	if task, _ := s.GetTask(queued.ID); task.Status != model.TaskStatusStopped {
		t.Errorf("expected Stopped, got %s", task.Status)
	}
}

func TestStopRunningTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(5 * time.Second)
	}))
	defer server.Close()

	s := newTestService(t, 1)
	task, err := s.AddTask(server.URL+"/a.tif", "a", "G1")
	if err != nil {
		t.Fatal(err)
	}

	waitForStatus(t, s, task.ID, model.TaskStatusDownloading)
	if err := s.StopTask(task.ID); err != nil {
		t.Fatalf("StopTask: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := s.GetTask(task.ID)
		if got.Status == model.TaskStatusStopped {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task never stopped")
}

func TestRestartFailedTask(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	s := newTestService(t, 1)
	task, err := s.AddTask(server.URL+"/a.tif", "a", "G1")
	if err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, s, task.ID, model.TaskStatusError)

	fail.Store(false)
	if err := s.RestartTask(task.ID); err != nil {
		t.Fatalf("RestartTask: %v", err)
	}
	waitForStatus(t, s, task.ID, model.TaskStatusCompleted)
}

func TestAddGranule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	s := newTestService(t, 2)
	granule := model.Granule{
		ConceptID: "G100",
		NativeID:  "HLS.L30.T11SLT",
		DataLinks: []string{server.URL + "/B04.tif", server.URL + "/B05.tif"},
	}

	tasks, err := s.AddGranule(granule)
	if err != nil {
		t.Fatalf("AddGranule: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.GranuleID != "G100" {
			t.Errorf("task missing granule ID: %+v", task)
		}
		waitForStatus(t, s, task.ID, model.TaskStatusCompleted)
	}
}

func TestAddGranuleWithoutLinks(t *testing.T) {
	s := newTestService(t, 1)
	if _, err := s.AddGranule(model.Granule{ConceptID: "G1"}); err == nil {
		t.Fatal("expected error for granule without data links")
	}
}

func TestRemoveTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	s := newTestService(t, 1)
	task, err := s.AddTask(server.URL+"/a.tif", "a", "G1")
	if err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, s, task.ID, model.TaskStatusCompleted)

	if err := s.RemoveTask(task.ID); err != nil {
		t.Fatalf("RemoveTask: %v", err)
	}
	if _, ok := s.GetTask(task.ID); ok {
		t.Error("task still present after removal")
	}
	if err := s.RemoveTask(task.ID); err == nil {
		t.Error("expected error removing unknown task")
	}
}
